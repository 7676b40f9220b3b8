package dataset

import (
	"math"

	"github.com/pitchside/refmetrics/internal/model"
)

// Exposure bounds. Matches run at most 120 minutes with extra time; every
// row keeps at least one minute and one opponent pass so log offsets stay
// finite.
const (
	maxMinutes  = 120.0
	minExposure = 1.0
)

// addExposure writes the exposure columns used as regression offsets:
// opponent pass count and minutes played, each floored at one, plus their
// logs.
func addExposure(feats map[string]float64, events []model.Event, team, opponent string) {
	oppPasses := 0.0
	lastMinute := 0
	for _, ev := range events {
		if ev.Team == opponent && ev.Type == model.EventPass {
			oppPasses++
		}
		if ev.Minute > lastMinute {
			lastMinute = ev.Minute
		}
	}
	if oppPasses < minExposure {
		oppPasses = minExposure
	}
	minutes := math.Min(float64(lastMinute), maxMinutes)
	if minutes < minExposure {
		minutes = minExposure
	}

	feats["opp_passes"] = oppPasses
	feats["minutes_played"] = minutes
	feats["log_opp_passes"] = math.Log(oppPasses)
	feats["log_minutes_played"] = math.Log(minutes)
}
