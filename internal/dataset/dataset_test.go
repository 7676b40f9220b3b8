package dataset

import (
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/pitchside/refmetrics/internal/model"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func loc(x, y float64) *model.Location {
	return &model.Location{X: x, Y: y}
}

func testMatch() model.Match {
	return model.Match{
		MatchID:     101,
		MatchDate:   "2024-03-09",
		HomeTeam:    "Alpha FC",
		AwayTeam:    "Beta United",
		RefereeName: "R. Vance",
		Events: []model.Event{
			{Type: model.EventPass, Team: "Alpha FC", Minute: 3, Location: loc(40, 40),
				Possession: 1, PossessionTeam: "Alpha FC",
				Pass: &model.PassDetail{Length: 10, EndLocation: loc(50, 40)}},
			{Type: model.EventPass, Team: "Beta United", Minute: 10, Location: loc(60, 40),
				Possession: 2, PossessionTeam: "Beta United",
				Pass: &model.PassDetail{Length: 12, EndLocation: loc(72, 40)}},
			{Type: model.EventPressure, Team: "Alpha FC", Minute: 15, Location: loc(70, 40)},
			{Type: model.EventFoul, Team: "Alpha FC", Minute: 30, Location: loc(55, 35)},
			{Type: model.EventFoul, Team: "Beta United", Minute: 88, Location: loc(30, 20), Card: model.CardYellow},
		},
	}
}

func TestBuild_TwoRowsPerMatch(t *testing.T) {
	rows, errs := NewBuilder(quietLogger()).Build([]model.Match{testMatch()})
	if len(errs) != 0 {
		t.Fatalf("unexpected data errors: %v", errs)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	home, away := rows[0], rows[1]
	if home.Team != "Alpha FC" || home.HomeAway != "home" {
		t.Errorf("first row = %s/%s, want Alpha FC/home", home.Team, home.HomeAway)
	}
	if away.Opponent != "Alpha FC" || away.HomeAway != "away" {
		t.Errorf("second row = %s/%s, want opponent Alpha FC, away", away.Opponent, away.HomeAway)
	}
	if home.Features["home_indicator"] != 1 || away.Features["home_indicator"] != 0 {
		t.Error("home indicator not set per side")
	}
	if home.RefereeName != "R. Vance" {
		t.Errorf("referee = %s, want R. Vance", home.RefereeName)
	}
	if home.Features["fouls_committed"] != 1 {
		t.Errorf("home fouls_committed = %.0f, want 1", home.Features["fouls_committed"])
	}
}

func TestExposure_FloorsAndLogs(t *testing.T) {
	m := testMatch()
	rows, _ := NewBuilder(quietLogger()).Build([]model.Match{m})
	home := rows[0]

	if home.Features["opp_passes"] != 1 {
		t.Errorf("opp_passes = %.0f, want 1", home.Features["opp_passes"])
	}
	if home.Features["log_opp_passes"] != 0 {
		t.Errorf("log_opp_passes = %.4f, want 0", home.Features["log_opp_passes"])
	}
	if home.Features["minutes_played"] != 88 {
		t.Errorf("minutes_played = %.0f, want 88", home.Features["minutes_played"])
	}
	if math.Abs(home.Features["log_minutes_played"]-math.Log(88)) > 1e-9 {
		t.Errorf("log_minutes_played = %.4f, want log(88)", home.Features["log_minutes_played"])
	}
}

func TestExposure_MinutesCappedAt120(t *testing.T) {
	m := testMatch()
	m.Events = append(m.Events, model.Event{Type: model.EventPass, Team: "Alpha FC", Minute: 127})
	rows, _ := NewBuilder(quietLogger()).Build([]model.Match{m})
	if rows[0].Features["minutes_played"] != 120 {
		t.Errorf("minutes_played = %.0f, want cap 120", rows[0].Features["minutes_played"])
	}
}

func makeRows(values []float64) []model.FeatureRow {
	rows := make([]model.FeatureRow, len(values))
	for i, v := range values {
		rows[i] = model.FeatureRow{Features: map[string]float64{"ppda": v}}
	}
	return rows
}

func TestStandardize_ZeroMeanUnitVariance(t *testing.T) {
	rows := makeRows([]float64{8, 12, 16})
	Standardize(rows, []string{"ppda"})

	if math.Abs(rows[1].Features["z_ppda"]) > 1e-9 {
		t.Errorf("middle z = %.4f, want 0", rows[1].Features["z_ppda"])
	}
	if rows[0].Features["z_ppda"] >= 0 || rows[2].Features["z_ppda"] <= 0 {
		t.Error("expected symmetric signs around the mean")
	}
	if math.Abs(rows[0].Features["z_ppda"]+rows[2].Features["z_ppda"]) > 1e-9 {
		t.Error("expected z-scores to sum to zero")
	}
}

func TestStandardize_InfReplacedByMaxFinite(t *testing.T) {
	rows := makeRows([]float64{8, 12, math.Inf(1)})
	Standardize(rows, []string{"ppda"})

	z2 := rows[2].Features["z_ppda"]
	if math.IsInf(z2, 0) || math.IsNaN(z2) {
		t.Fatalf("z for infinite ppda = %v, want finite", z2)
	}
	// The sentinel is treated as the column maximum, so it shares the top
	// z-score with the largest finite value.
	if z2 != rows[1].Features["z_ppda"] {
		t.Errorf("z(inf) = %.4f, z(max finite) = %.4f, want equal", z2, rows[1].Features["z_ppda"])
	}
}

func TestStandardize_ZeroVarianceIsZero(t *testing.T) {
	rows := makeRows([]float64{5, 5, 5})
	Standardize(rows, []string{"ppda"})
	for i := range rows {
		if rows[i].Features["z_ppda"] != 0 {
			t.Errorf("row %d z = %.4f, want 0 for constant column", i, rows[i].Features["z_ppda"])
		}
	}
}
