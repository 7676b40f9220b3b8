// Package report renders feature rows, fitted models, and archetype labels as
// console tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pitchside/refmetrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintMatchList prints stored match metadata.
func PrintMatchList(w io.Writer, matches []model.Match) {
	table := newTable(w)
	table.Header("MATCH_ID", "DATE", "HOME", "AWAY", "REFEREE", "COMP", "SEASON")
	for i := range matches {
		m := &matches[i]
		table.Append(
			strconv.FormatInt(m.MatchID, 10),
			m.MatchDate,
			m.HomeTeam,
			m.AwayTeam,
			m.RefereeName,
			strconv.Itoa(m.CompetitionID),
			strconv.Itoa(m.SeasonID),
		)
	}
	table.Render()
}

// featureOrder is the display order for the playstyle/discipline summary.
var featureOrder = []string{
	"ppda", "block_height_x", "def_share_att_third",
	"possession_share", "directness", "avg_pass_length", "long_pass_share",
	"passes_per_possession", "wing_share", "lane_center_share", "cross_share",
	"counter_rate", "fouls_committed", "yellows", "reds",
	"fouls_per_opp_pass", "located_fouls", "missing_location_fouls",
	"opp_passes", "minutes_played",
}

// PrintFeatureRow prints one team-match feature vector.
func PrintFeatureRow(w io.Writer, row *model.FeatureRow) {
	fmt.Fprintf(w, "\nMatch %d  |  %s  |  %s vs %s (%s)  |  Referee: %s\n\n",
		row.MatchID, row.MatchDate, row.Team, row.Opponent, row.HomeAway, row.RefereeName)

	table := newTable(w)
	table.Header("FEATURE", "VALUE")
	for _, name := range featureOrder {
		if v, ok := row.Feature(name); ok {
			table.Append(name, fmt.Sprintf("%.3f", v))
		}
	}
	table.Render()
}

// PrintFoulGrid prints the 5x3 spatial foul counts for one row, defensive end
// on the left.
func PrintFoulGrid(w io.Writer, row *model.FeatureRow) {
	table := newTable(w)
	table.Header("LANE", "X0 (DEF)", "X1", "X2", "X3", "X4 (ATT)")
	laneNames := []string{"left", "center", "right"}
	for y := 0; y < model.GridYBins; y++ {
		cells := []any{laneNames[y]}
		for x := 0; x < model.GridXBins; x++ {
			z := model.ZoneID{X: x, Y: y}
			cells = append(cells, fmt.Sprintf("%.0f", row.FeatureOr(z.ResponseName(), 0)))
		}
		table.Append(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "located: %.0f  missing location: %.0f\n",
		row.FeatureOr("located_fouls", 0), row.FeatureOr("missing_location_fouls", 0))
}

// PrintSlopes prints the referee x feature interaction slope table.
func PrintSlopes(w io.Writer, slopes []model.RefereeSlope) {
	table := newTable(w)
	table.Header("ZONE", "REFEREE", "FEATURE", "SLOPE", "SE", "P", "SIG")
	for _, s := range slopes {
		table.Append(
			s.Zone.String(),
			s.RefereeName,
			s.Feature,
			fmt.Sprintf("%.4f", s.Slope),
			fmt.Sprintf("%.4f", s.StdErr),
			fmt.Sprintf("%.4f", s.PValue),
			sigMark(s.Significant),
		)
	}
	table.Render()
}

// PrintEffects prints the referee fixed-effect table. Effects are shifts
// relative to each model's reference referee.
func PrintEffects(w io.Writer, effects []model.RefereeEffect) {
	table := newTable(w)
	table.Header("ZONE", "REFEREE", "EFFECT", "SE", "P", "SIG")
	for _, e := range effects {
		table.Append(
			e.Zone.String(),
			e.RefereeName,
			fmt.Sprintf("%.4f", e.Effect),
			fmt.Sprintf("%.4f", e.StdErr),
			fmt.Sprintf("%.4f", e.PValue),
			sigMark(e.Significant),
		)
	}
	table.Render()
}

// PrintDiagnostics summarizes fitted zone models: the per-zone fit table,
// aggregate fit quality, and how often each coefficient reaches significance.
func PrintDiagnostics(w io.Writer, models map[model.ZoneID]*model.ZoneModel, alpha float64) {
	table := newTable(w)
	table.Header("ZONE", "N", "CONVERGED", "LOGLIK", "AIC", "BIC", "TERMS")

	var aicSum, obsSum float64
	converged := 0
	count := 0
	sigCount := make(map[string]int)
	for _, zone := range model.AllZones() {
		zm, ok := models[zone]
		if !ok {
			continue
		}
		count++
		aicSum += zm.AIC
		obsSum += float64(zm.NumObs)
		if zm.Converged {
			converged++
		}
		for _, c := range zm.Coefficients {
			if c.PValue < alpha {
				sigCount[c.Name()]++
			}
		}
		table.Append(
			zone.String(),
			strconv.Itoa(zm.NumObs),
			fmt.Sprintf("%t", zm.Converged),
			fmt.Sprintf("%.1f", zm.LogLikelihood),
			fmt.Sprintf("%.1f", zm.AIC),
			fmt.Sprintf("%.1f", zm.BIC),
			strconv.Itoa(len(zm.Coefficients)),
		)
	}
	table.Render()

	if count == 0 {
		fmt.Fprintln(w, "no fitted zone models")
		return
	}
	fmt.Fprintf(w, "\nzones fitted: %d/%d  converged: %d/%d  mean AIC: %.1f  mean n: %.0f\n\n",
		count, model.GridXBins*model.GridYBins, converged, count,
		aicSum/float64(count), obsSum/float64(count))

	names := make([]string, 0, len(sigCount))
	for name := range sigCount {
		names = append(names, name)
	}
	sort.Strings(names)
	sig := newTable(w)
	sig.Header("COEFFICIENT", "SIG_ZONES", "RATE")
	for _, name := range names {
		sig.Append(name, strconv.Itoa(sigCount[name]),
			fmt.Sprintf("%.0f%%", 100*float64(sigCount[name])/float64(count)))
	}
	sig.Render()
}

// PrintPredictions prints expected foul counts per zone with a coverage note
// when some zones have no model.
func PrintPredictions(w io.Writer, preds map[model.ZoneID]float64) {
	table := newTable(w)
	table.Header("ZONE", "EXPECTED_FOULS")
	total := 0.0
	covered := 0
	for _, zone := range model.AllZones() {
		v, ok := preds[zone]
		if !ok {
			table.Append(zone.String(), "—")
			continue
		}
		covered++
		total += v
		table.Append(zone.String(), fmt.Sprintf("%.2f", v))
	}
	table.Render()
	fmt.Fprintf(w, "total over covered zones: %.2f  coverage: %d/%d\n",
		total, covered, model.GridXBins*model.GridYBins)
	if covered < model.GridXBins*model.GridYBins {
		fmt.Fprintln(w, "note: uncovered zones have no fitted model and are excluded from the total")
	}
}

// ArchetypeListing is one categorized team-match for display.
type ArchetypeListing struct {
	MatchID   int64
	MatchDate string
	Team      string
	Opponent  string
	Tags      model.ArchetypeRow
}

// PrintArchetypes prints the axis tags and composite label per team-match.
func PrintArchetypes(w io.Writer, rows []ArchetypeListing) {
	table := newTable(w)
	table.Header("MATCH", "DATE", "TEAM", "OPPONENT", "PRESSING", "BLOCK", "STYLE", "WIDTH", "TRANSITION", "ARCHETYPE")
	for i := range rows {
		r := &rows[i]
		table.Append(
			strconv.FormatInt(r.MatchID, 10),
			r.MatchDate,
			r.Team,
			r.Opponent,
			r.Tags.Pressing,
			r.Tags.Block,
			r.Tags.PossessionDirectness,
			r.Tags.Width,
			r.Tags.Transition,
			r.Tags.Archetype,
		)
	}
	table.Render()
}

func sigMark(significant bool) string {
	if significant {
		return "*"
	}
	return " "
}
