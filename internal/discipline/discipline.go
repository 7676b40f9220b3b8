// Package discipline extracts foul and card outcomes with spatial zone
// analysis from match events.
package discipline

import (
	"fmt"

	"github.com/pitchside/refmetrics/internal/model"
	"github.com/pitchside/refmetrics/internal/pitch"
)

// CardTreatment selects how a second yellow is tallied.
type CardTreatment string

const (
	// CardTreatmentSeparate counts a second yellow into both the yellow and
	// the red tally.
	CardTreatmentSeparate CardTreatment = "separate"
	// CardTreatmentRedOnly counts a second yellow as a red only.
	CardTreatmentRedOnly CardTreatment = "red_only"
)

// Analyzer computes the discipline half of a team-match feature row.
type Analyzer struct {
	CardTreatment CardTreatment
}

// NewAnalyzer returns an analyzer using the separate second-yellow policy.
func NewAnalyzer() *Analyzer {
	return &Analyzer{CardTreatment: CardTreatmentSeparate}
}

// Priors used for the spatial shares when a team commits no located fouls.
var (
	thirdPriors = [3]float64{0.2, 0.5, 0.3}   // def, mid, att
	lanePriors  = [3]float64{0.25, 0.5, 0.25} // left, center, right
)

// Extract computes foul counts, card tallies, rates, and the 15-cell spatial
// foul grid for team against opponent.
func (a *Analyzer) Extract(events []model.Event, team, opponent string) map[string]float64 {
	features := make(map[string]float64)

	var fouls []model.Event
	oppPasses := 0
	for _, ev := range events {
		if ev.Team == team && (ev.Type == model.EventFoul || ev.Type == model.EventBadBehaviour) {
			fouls = append(fouls, ev)
		}
		if ev.Team == opponent && ev.Type == model.EventPass {
			oppPasses++
		}
	}

	a.counts(features, fouls)

	if oppPasses > 0 {
		features["fouls_per_opp_pass"] = float64(len(fouls)) / float64(oppPasses)
	} else {
		features["fouls_per_opp_pass"] = 0.0
	}

	a.spatial(features, fouls)

	return features
}

func (a *Analyzer) counts(features map[string]float64, fouls []model.Event) {
	var yellows, reds, secondYellows int
	for _, foul := range fouls {
		switch foul.Card {
		case model.CardYellow:
			yellows++
		case model.CardRed:
			reds++
		case model.CardSecondYellow:
			secondYellows++
			if a.CardTreatment == CardTreatmentSeparate {
				yellows++
				reds++
			} else {
				reds++
			}
		}
	}
	features["fouls_committed"] = float64(len(fouls))
	features["yellows"] = float64(yellows)
	features["reds"] = float64(reds)
	features["second_yellows"] = float64(secondYellows)
}

func (a *Analyzer) spatial(features map[string]float64, fouls []model.Event) {
	for _, z := range model.AllZones() {
		features[z.ResponseName()] = 0
	}

	var thirds, lanes [3]int
	located := 0
	for _, foul := range fouls {
		if foul.Location == nil {
			continue
		}
		located++
		z := pitch.ZoneOf(foul.Location.X, foul.Location.Y)
		features[z.ResponseName()]++
		thirds[pitch.ThirdOf(foul.Location.X)]++
		lanes[pitch.LaneOf(foul.Location.Y)]++
	}

	if located > 0 {
		n := float64(located)
		features["foul_share_def_third"] = float64(thirds[pitch.DefensiveThird]) / n
		features["foul_share_mid_third"] = float64(thirds[pitch.MiddleThird]) / n
		features["foul_share_att_third"] = float64(thirds[pitch.AttackingThird]) / n
		features["foul_share_left"] = float64(lanes[pitch.LeftLane]) / n
		features["foul_share_center"] = float64(lanes[pitch.CenterLane]) / n
		features["foul_share_right"] = float64(lanes[pitch.RightLane]) / n
		features["foul_share_wide"] = float64(lanes[pitch.LeftLane]+lanes[pitch.RightLane]) / n
	} else {
		features["foul_share_def_third"] = thirdPriors[0]
		features["foul_share_mid_third"] = thirdPriors[1]
		features["foul_share_att_third"] = thirdPriors[2]
		features["foul_share_left"] = lanePriors[0]
		features["foul_share_center"] = lanePriors[1]
		features["foul_share_right"] = lanePriors[2]
		features["foul_share_wide"] = lanePriors[0] + lanePriors[2]
	}

	features["located_fouls"] = float64(located)
	features["missing_location_fouls"] = float64(len(fouls) - located)
}

// ZoneExposure tallies a team's located activity per zone: all events,
// passes, and on-ball actions. Used as an alternative exposure basis.
type ZoneExposure struct {
	Events  int
	Passes  int
	Actions int
}

// onBallActions are the event types counted as actions for zone exposure.
var onBallActions = map[string]struct{}{
	model.EventPass: {},
	model.EventShot: {},
	"Carry":         {},
	"Dribble":       {},
	"Cross":         {},
}

// Exposure computes per-zone exposure tallies for a team.
func (a *Analyzer) Exposure(events []model.Event, team string) map[model.ZoneID]ZoneExposure {
	out := make(map[model.ZoneID]ZoneExposure, model.GridXBins*model.GridYBins)
	for _, z := range model.AllZones() {
		out[z] = ZoneExposure{}
	}
	for _, ev := range events {
		if ev.Team != team || ev.Location == nil {
			continue
		}
		z := pitch.ZoneOf(ev.Location.X, ev.Location.Y)
		exp := out[z]
		exp.Events++
		if ev.Type == model.EventPass {
			exp.Passes++
		}
		if _, ok := onBallActions[ev.Type]; ok {
			exp.Actions++
		}
		out[z] = exp
	}
	return out
}

// Validate checks discipline features for internal consistency: the zone grid
// must sum exactly to located_fouls, and the third and lane shares must each
// sum to 1 within 10%. Returns nil when consistent.
func Validate(features map[string]float64) error {
	var gridSum float64
	for _, z := range model.AllZones() {
		gridSum += features[z.ResponseName()]
	}
	located := features["located_fouls"]
	if gridSum != located {
		return fmt.Errorf("zone grid sums to %.0f, located fouls %.0f", gridSum, located)
	}

	thirdSum := features["foul_share_def_third"] + features["foul_share_mid_third"] + features["foul_share_att_third"]
	if thirdSum < 0.9 || thirdSum > 1.1 {
		return fmt.Errorf("third shares sum to %.3f", thirdSum)
	}
	laneSum := features["foul_share_left"] + features["foul_share_center"] + features["foul_share_right"]
	if laneSum < 0.9 || laneSum > 1.1 {
		return fmt.Errorf("lane shares sum to %.3f", laneSum)
	}

	for _, f := range []string{"fouls_committed", "yellows", "reds", "second_yellows", "located_fouls", "missing_location_fouls"} {
		if features[f] < 0 {
			return fmt.Errorf("negative count for %s: %.0f", f, features[f])
		}
	}
	return nil
}
