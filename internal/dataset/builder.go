// Package dataset assembles per-team-match feature rows from raw matches and
// standardizes the modeling features.
package dataset

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pitchside/refmetrics/internal/discipline"
	"github.com/pitchside/refmetrics/internal/features"
	"github.com/pitchside/refmetrics/internal/model"
)

// DataError reports one row that failed validation. The row is still
// produced; callers decide whether to drop it.
type DataError struct {
	MatchID int64
	Team    string
	Fields  []string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("match %d team %s: invalid fields %s", e.MatchID, e.Team, strings.Join(e.Fields, ", "))
}

// Builder turns matches into feature rows, two per match.
type Builder struct {
	Extractor *features.Extractor
	Analyzer  *discipline.Analyzer
	log       *logrus.Entry
}

// NewBuilder returns a builder with default extraction settings.
func NewBuilder(log *logrus.Logger) *Builder {
	return &Builder{
		Extractor: features.NewExtractor(),
		Analyzer:  discipline.NewAnalyzer(),
		log:       log.WithField("component", "dataset"),
	}
}

// Build produces one row per team per match. Validation problems are
// collected, not fatal; the offending rows are still returned.
func (b *Builder) Build(matches []model.Match) ([]model.FeatureRow, []DataError) {
	rows := make([]model.FeatureRow, 0, 2*len(matches))
	var errs []DataError

	for i := range matches {
		m := &matches[i]
		for _, side := range []struct {
			team, opponent, homeAway string
		}{
			{m.HomeTeam, m.AwayTeam, "home"},
			{m.AwayTeam, m.HomeTeam, "away"},
		} {
			row := b.buildRow(m, side.team, side.opponent, side.homeAway)
			if fields := validateRow(&row); len(fields) > 0 {
				errs = append(errs, DataError{MatchID: m.MatchID, Team: side.team, Fields: fields})
			}
			rows = append(rows, row)
		}
	}

	b.log.WithFields(logrus.Fields{
		"matches": len(matches),
		"rows":    len(rows),
		"invalid": len(errs),
	}).Info("built feature rows")
	return rows, errs
}

func (b *Builder) buildRow(m *model.Match, team, opponent, homeAway string) model.FeatureRow {
	feats := b.Extractor.Extract(m.Events, team, opponent)
	for k, v := range b.Analyzer.Extract(m.Events, team, opponent) {
		feats[k] = v
	}
	addExposure(feats, m.Events, team, opponent)
	if homeAway == "home" {
		feats["home_indicator"] = 1
	} else {
		feats["home_indicator"] = 0
	}

	return model.FeatureRow{
		MatchID:       m.MatchID,
		MatchDate:     m.MatchDate,
		Team:          team,
		Opponent:      opponent,
		HomeAway:      homeAway,
		RefereeName:   m.RefereeName,
		CompetitionID: m.CompetitionID,
		SeasonID:      m.SeasonID,
		Features:      feats,
	}
}

func validateRow(row *model.FeatureRow) []string {
	fields := features.Validate(row.Features)
	if err := discipline.Validate(row.Features); err != nil {
		fields = append(fields, "discipline: "+err.Error())
	}
	return fields
}
