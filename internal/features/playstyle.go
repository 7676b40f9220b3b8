// Package features extracts team playstyle metrics (pressing, possession,
// directness, channels, transitions, shot build-up) from match events.
package features

import (
	"math"

	"github.com/pitchside/refmetrics/internal/model"
	"github.com/pitchside/refmetrics/internal/pitch"
)

// Extractor computes the playstyle half of a team-match feature row.
type Extractor struct {
	// LongPassThreshold is the pass length above which a pass counts as long.
	LongPassThreshold float64
	// CounterPatterns are the play-pattern tags treated as counter attacks.
	CounterPatterns []string
}

// NewExtractor returns an extractor with the standard thresholds.
func NewExtractor() *Extractor {
	return &Extractor{
		LongPassThreshold: 30.0,
		CounterPatterns:   []string{"From Counter"},
	}
}

// Extract computes playstyle features for team against opponent from the full
// match event list. Missing data falls back to the documented neutral
// defaults; it never errors.
func (e *Extractor) Extract(events []model.Event, team, opponent string) map[string]float64 {
	features := make(map[string]float64)

	var teamEvents, oppEvents []model.Event
	for _, ev := range events {
		switch ev.Team {
		case team:
			teamEvents = append(teamEvents, ev)
		case opponent:
			oppEvents = append(oppEvents, ev)
		}
	}

	e.pressingFeatures(features, teamEvents, oppEvents)
	e.possessionFeatures(features, teamEvents, oppEvents)
	e.channelFeatures(features, teamEvents)
	e.transitionFeatures(features, teamEvents)
	e.shotFeatures(features, teamEvents)

	return features
}

// isDefensiveAction reports whether the event counts toward pressing metrics.
func isDefensiveAction(ev *model.Event) bool {
	switch ev.Type {
	case model.EventPressure, model.EventTackle, model.EventInterception, model.EventDuel:
		return true
	}
	return false
}

func (e *Extractor) pressingFeatures(features map[string]float64, teamEvents, oppEvents []model.Event) {
	var defensive []model.Event
	for _, ev := range teamEvents {
		if isDefensiveAction(&ev) {
			defensive = append(defensive, ev)
		}
	}
	oppPasses := countType(oppEvents, model.EventPass)

	// PPDA: opponent passes per team defensive action. No defensive actions
	// at all signals minimal pressing; +Inf is the documented sentinel.
	if len(defensive) > 0 {
		features["ppda"] = float64(oppPasses) / float64(len(defensive))
	} else {
		features["ppda"] = math.Inf(1)
	}

	// Block height: mean x of located defensive actions, pitch center default.
	var xSum float64
	var located int
	thirds := [3]int{}
	for _, ev := range defensive {
		if ev.Location == nil {
			continue
		}
		located++
		xSum += ev.Location.X
		thirds[pitch.ThirdOf(ev.Location.X)]++
	}
	if located > 0 {
		features["block_height_x"] = xSum / float64(located)
		features["def_share_def_third"] = float64(thirds[pitch.DefensiveThird]) / float64(located)
		features["def_share_mid_third"] = float64(thirds[pitch.MiddleThird]) / float64(located)
		features["def_share_att_third"] = float64(thirds[pitch.AttackingThird]) / float64(located)
	} else {
		features["block_height_x"] = 60.0
		features["def_share_def_third"] = 1.0 / 3
		features["def_share_mid_third"] = 1.0 / 3
		features["def_share_att_third"] = 1.0 / 3
	}
}

func (e *Extractor) possessionFeatures(features map[string]float64, teamEvents, oppEvents []model.Event) {
	teamPasses := collectType(teamEvents, model.EventPass)
	oppPassCount := countType(oppEvents, model.EventPass)
	totalPasses := len(teamPasses) + oppPassCount

	if totalPasses > 0 {
		features["possession_share"] = float64(len(teamPasses)) / float64(totalPasses)
	} else {
		features["possession_share"] = 0.5
	}

	// Mean number of team events per owned possession sequence.
	ownedCounts := make(map[int]int)
	for _, ev := range teamEvents {
		if ev.Possession != 0 && ev.PossessionTeam == ev.Team {
			ownedCounts[ev.Possession]++
		}
	}
	if len(ownedCounts) > 0 {
		total := 0
		for _, n := range ownedCounts {
			total += n
		}
		features["passes_per_possession"] = float64(total) / float64(len(ownedCounts))
	} else {
		features["passes_per_possession"] = 0.0
	}

	if len(teamPasses) == 0 {
		features["avg_pass_length"] = 15.0
		features["long_pass_share"] = 0.1
		features["forward_pass_share"] = 0.5
		features["directness"] = 0.5
		return
	}

	var lengthSum float64
	var withLength, longPasses, forwardPasses int
	for _, p := range teamPasses {
		if p.Pass == nil {
			continue
		}
		if p.Pass.Length > 0 {
			withLength++
			lengthSum += p.Pass.Length
			if p.Pass.Length >= e.LongPassThreshold {
				longPasses++
			}
		}
		if p.Location != nil && p.Pass.EndLocation != nil && p.Pass.EndLocation.X > p.Location.X {
			forwardPasses++
		}
	}
	if withLength > 0 {
		features["avg_pass_length"] = lengthSum / float64(withLength)
		features["long_pass_share"] = float64(longPasses) / float64(len(teamPasses))
	} else {
		features["avg_pass_length"] = 15.0
		features["long_pass_share"] = 0.1
	}
	features["forward_pass_share"] = float64(forwardPasses) / float64(len(teamPasses))

	features["directness"] = e.directness(teamPasses)
}

// directness averages per-possession directness: within one possession
// sequence, the forward-only x-gain of its passes divided by their full 2-D
// distance. Sequences with fewer than two located passes are excluded.
func (e *Extractor) directness(passes []model.Event) float64 {
	bySequence := make(map[int][]model.Event)
	for _, p := range passes {
		if p.Possession == 0 {
			continue
		}
		bySequence[p.Possession] = append(bySequence[p.Possession], p)
	}

	var scores []float64
	for _, seq := range bySequence {
		var located int
		var forwardGain, distance float64
		for _, p := range seq {
			if p.Location == nil || p.Pass == nil || p.Pass.EndLocation == nil {
				continue
			}
			located++
			dx := p.Pass.EndLocation.X - p.Location.X
			dy := p.Pass.EndLocation.Y - p.Location.Y
			forwardGain += math.Max(0, dx)
			distance += math.Hypot(dx, dy)
		}
		if located < 2 || distance <= 0 {
			continue
		}
		scores = append(scores, forwardGain/distance)
	}
	if len(scores) == 0 {
		return 0.5
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func (e *Extractor) channelFeatures(features map[string]float64, teamEvents []model.Event) {
	var lanes [3]int
	var crosses, throughBalls, locatedPasses int
	for _, ev := range teamEvents {
		if ev.Type != model.EventPass {
			continue
		}
		if ev.Location == nil {
			continue
		}
		locatedPasses++
		lanes[pitch.LaneOf(ev.Location.Y)]++
		if ev.Pass != nil {
			if ev.Pass.Cross {
				crosses++
			}
			if ev.Pass.ThroughBall {
				throughBalls++
			}
		}
	}

	if locatedPasses > 0 {
		features["lane_left_share"] = float64(lanes[pitch.LeftLane]) / float64(locatedPasses)
		features["lane_center_share"] = float64(lanes[pitch.CenterLane]) / float64(locatedPasses)
		features["lane_right_share"] = float64(lanes[pitch.RightLane]) / float64(locatedPasses)
		features["wing_share"] = float64(lanes[pitch.LeftLane]+lanes[pitch.RightLane]) / float64(locatedPasses)
		features["cross_share"] = float64(crosses) / float64(locatedPasses)
		features["through_ball_share"] = float64(throughBalls) / float64(locatedPasses)
	} else {
		features["lane_left_share"] = 1.0 / 3
		features["lane_center_share"] = 1.0 / 3
		features["lane_right_share"] = 1.0 / 3
		features["wing_share"] = 0.67
		features["cross_share"] = 0.05
		features["through_ball_share"] = 0.02
	}
}

func (e *Extractor) transitionFeatures(features map[string]float64, teamEvents []model.Event) {
	possessions := make(map[int]struct{})
	counterActions := 0
	for _, ev := range teamEvents {
		if ev.Possession != 0 {
			possessions[ev.Possession] = struct{}{}
		}
		for _, pattern := range e.CounterPatterns {
			if ev.PlayPattern == pattern {
				counterActions++
				break
			}
		}
	}
	if len(possessions) > 0 {
		features["counter_rate"] = float64(counterActions) / float64(len(possessions))
	} else {
		features["counter_rate"] = 0.0
	}
}

func (e *Extractor) shotFeatures(features map[string]float64, teamEvents []model.Event) {
	var shots, withXG, passes int
	var xgSum float64
	for _, ev := range teamEvents {
		switch ev.Type {
		case model.EventShot:
			shots++
			if ev.Shot != nil {
				withXG++
				xgSum += ev.Shot.XG
			}
		case model.EventPass:
			passes++
		}
	}
	if shots == 0 {
		features["xg_mean"] = 0.0
		features["passes_to_shot"] = 0.0
		return
	}
	if withXG > 0 {
		features["xg_mean"] = xgSum / float64(withXG)
	} else {
		features["xg_mean"] = 0.0
	}
	if passes > 0 {
		features["passes_to_shot"] = float64(passes) / float64(shots)
	} else {
		features["passes_to_shot"] = 10.0
	}
}

func countType(events []model.Event, typ string) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func collectType(events []model.Event, typ string) []model.Event {
	var out []model.Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Empty returns the neutral default feature set used when a team has no
// events in a match.
func (e *Extractor) Empty() map[string]float64 {
	return map[string]float64{
		"ppda":                  math.Inf(1),
		"block_height_x":        60.0,
		"def_share_def_third":   1.0 / 3,
		"def_share_mid_third":   1.0 / 3,
		"def_share_att_third":   1.0 / 3,
		"possession_share":      0.5,
		"passes_per_possession": 0.0,
		"directness":            0.5,
		"avg_pass_length":       15.0,
		"long_pass_share":       0.1,
		"forward_pass_share":    0.5,
		"lane_left_share":       1.0 / 3,
		"lane_center_share":     1.0 / 3,
		"lane_right_share":      1.0 / 3,
		"wing_share":            0.67,
		"cross_share":           0.05,
		"through_ball_share":    0.02,
		"counter_rate":          0.0,
		"xg_mean":               0.0,
		"passes_to_shot":        0.0,
	}
}

// Validate checks extracted playstyle features for the documented ranges:
// shares in [0,1], rates and counts non-negative, block height on the pitch.
// It returns the names of offending features, empty when valid.
func Validate(features map[string]float64) []string {
	var bad []string
	shareFields := []string{
		"possession_share", "def_share_def_third", "def_share_mid_third",
		"def_share_att_third", "lane_left_share", "lane_center_share",
		"lane_right_share", "directness", "forward_pass_share",
		"long_pass_share", "cross_share", "through_ball_share",
	}
	for _, f := range shareFields {
		if v, ok := features[f]; ok && (v < 0 || v > 1) {
			bad = append(bad, f)
		}
	}
	nonNegative := []string{
		"ppda", "passes_per_possession", "avg_pass_length", "counter_rate",
		"xg_mean", "passes_to_shot", "wing_share",
	}
	for _, f := range nonNegative {
		if v, ok := features[f]; ok && v < 0 {
			bad = append(bad, f)
		}
	}
	if v, ok := features["block_height_x"]; ok && (v < 0 || v > pitch.Length) {
		bad = append(bad, "block_height_x")
	}
	return bad
}
