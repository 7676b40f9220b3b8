package zonemodel

import (
	"errors"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/pitchside/refmetrics/internal/model"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// ---- IRLS solver ----

func interceptOnlyDesign(y, offset []float64) *Design {
	n := len(y)
	x := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	return &Design{
		Terms:  []model.Term{{Kind: model.TermIntercept}},
		X:      x,
		Y:      y,
		Offset: offset,
	}
}

func TestFitNegBin_InterceptRecoversMeanRate(t *testing.T) {
	// Constant response 2 with zero offset: the NB mean MLE is the sample
	// mean, so the intercept must land on log(2).
	n := 40
	y := make([]float64, n)
	offset := make([]float64, n)
	for i := range y {
		y[i] = 2
	}
	f, err := fitNegBin(interceptOnlyDesign(y, offset), 1.0, 100, 1e-10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.converged {
		t.Fatal("expected convergence")
	}
	if math.Abs(f.coef[0]-math.Log(2)) > 1e-6 {
		t.Errorf("intercept = %.6f, want log(2) = %.6f", f.coef[0], math.Log(2))
	}
}

func TestFitNegBin_OffsetShiftsIntercept(t *testing.T) {
	// Doubling the exposure with the same counts halves the modeled rate:
	// y = 4 with offset log(2) gives intercept log(4) - log(2) = log(2).
	n := 40
	y := make([]float64, n)
	offset := make([]float64, n)
	for i := range y {
		y[i] = 4
		offset[i] = math.Log(2)
	}
	f, err := fitNegBin(interceptOnlyDesign(y, offset), 1.0, 100, 1e-10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(f.coef[0]-math.Log(2)) > 1e-6 {
		t.Errorf("intercept = %.6f, want log(2) = %.6f", f.coef[0], math.Log(2))
	}
}

func TestFitNegBin_SingularDesignErrors(t *testing.T) {
	// Two identical columns cannot be separated.
	n := 10
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	offset := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, 1)
		y[i] = 2
	}
	d := &Design{
		Terms:  []model.Term{{Kind: model.TermIntercept}, {Kind: model.TermHome}},
		X:      x,
		Y:      y,
		Offset: offset,
	}
	if _, err := fitNegBin(d, 1.0, 100, 1e-8); err == nil {
		t.Error("expected error for singular design")
	}
}

// ---- design matrix ----

func TestBuildTerms_Layout(t *testing.T) {
	terms := BuildTerms(
		[]string{"z_ppda", "z_directness"},
		[]string{"z_directness"},
		[]string{"A. Ref", "B. Ref", "C. Ref"},
	)
	// intercept + 2 base + home + 2 referee effects + 2 referee slopes.
	if len(terms) != 8 {
		t.Fatalf("got %d terms, want 8", len(terms))
	}
	if terms[0].Kind != model.TermIntercept {
		t.Error("first term must be the intercept")
	}
	// The reference level never gets its own dummy.
	for _, term := range terms {
		if term.Referee == "A. Ref" {
			t.Errorf("reference referee leaked into terms: %v", term)
		}
	}
	last := terms[len(terms)-1]
	if last.Kind != model.TermRefereeSlope || last.Feature != "z_directness" || last.Referee != "C. Ref" {
		t.Errorf("last term = %+v, want z_directness slope for C. Ref", last)
	}
}

func TestTermValue_RefereeSlope(t *testing.T) {
	row := &model.FeatureRow{
		RefereeName: "B. Ref",
		HomeAway:    "home",
		Features:    map[string]float64{"z_ppda": 1.5},
	}
	slope := model.Term{Kind: model.TermRefereeSlope, Feature: "z_ppda", Referee: "B. Ref"}
	v, err := TermValue(slope, row)
	if err != nil || v != 1.5 {
		t.Errorf("slope value = %v (err %v), want 1.5", v, err)
	}

	other := model.Term{Kind: model.TermRefereeSlope, Feature: "z_ppda", Referee: "C. Ref"}
	v, err = TermValue(other, row)
	if err != nil || v != 0 {
		t.Errorf("other referee slope = %v (err %v), want 0", v, err)
	}

	if v, _ := TermValue(model.Term{Kind: model.TermHome}, row); v != 1 {
		t.Errorf("home term = %v, want 1", v)
	}
}

func TestTermValue_MissingFeature(t *testing.T) {
	row := &model.FeatureRow{Features: map[string]float64{}}
	_, err := TermValue(model.Term{Kind: model.TermFeature, Feature: "z_ppda"}, row)
	if err == nil {
		t.Fatal("expected error for missing feature")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error %T, want *ConfigurationError", err)
	}
}

// ---- modeler ----

// syntheticRows builds a dataset with nref referees overseeing nMatches
// matches each. Zone 2_1 carries real foul counts; every other zone stays
// empty so it falls under the event threshold.
func syntheticRows(nref, nMatches int) []model.FeatureRow {
	var rows []model.FeatureRow
	matchID := int64(0)
	activeZone := model.ZoneID{X: 2, Y: 1}
	for r := 0; r < nref; r++ {
		ref := fmt.Sprintf("Referee %c", 'A'+r)
		for m := 0; m < nMatches; m++ {
			matchID++
			for side := 0; side < 2; side++ {
				i := int(matchID)*2 + side
				feats := map[string]float64{
					"z_ppda":             float64(i%5)*0.45 - 0.9,
					"z_directness":       float64(i%3)*0.6 - 0.6,
					"z_possession_share": float64(i%4)*0.5 - 0.75,
					"z_block_height_x":   float64(i%6)*0.35 - 0.85,
					"z_wing_share":       float64(i%7)*0.3 - 0.9,
					"log_opp_passes":     math.Log(300 + float64(i%40)*5),
				}
				for _, z := range model.AllZones() {
					feats[z.ResponseName()] = 0
				}
				feats[activeZone.ResponseName()] = float64(1 + (i % 4))

				homeAway := "home"
				if side == 1 {
					homeAway = "away"
				}
				rows = append(rows, model.FeatureRow{
					MatchID:     matchID,
					Team:        fmt.Sprintf("Team %d", i%8),
					RefereeName: ref,
					HomeAway:    homeAway,
					Features:    feats,
				})
			}
		}
	}
	return rows
}

func TestFit_SparseZonesSkipped(t *testing.T) {
	rows := syntheticRows(2, 8)
	modeler := NewModeler(quietLogger(), DefaultOptions())

	res, err := modeler.Fit(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active := model.ZoneID{X: 2, Y: 1}
	if _, ok := res.Models[active]; !ok {
		t.Fatal("expected a model for the active zone")
	}
	if len(res.Models) != 1 {
		t.Errorf("got %d models, want 1 (all other zones under threshold)", len(res.Models))
	}
	if len(res.Statuses) != 15 {
		t.Errorf("got %d statuses, want 15", len(res.Statuses))
	}
	for _, status := range res.Statuses {
		if status.Zone != active && status.Fitted {
			t.Errorf("zone %s fitted with zero events", status.Zone)
		}
	}

	zm := res.Models[active]
	if !zm.Converged {
		t.Error("active zone did not converge")
	}
	if zm.NumObs != len(rows) {
		t.Errorf("NumObs = %d, want %d", zm.NumObs, len(rows))
	}
	if math.IsNaN(zm.AIC) || math.IsInf(zm.AIC, 0) {
		t.Errorf("AIC = %v, want finite", zm.AIC)
	}
	if len(zm.RefereeLevels) != 2 || zm.RefereeLevels[0] != "Referee A" {
		t.Errorf("referee levels = %v, want [Referee A, Referee B]", zm.RefereeLevels)
	}
}

func TestFit_DropsLowMatchReferees(t *testing.T) {
	rows := syntheticRows(2, 8)
	// A third referee with two matches has four rows, under the default
	// minimum of five.
	extra := syntheticRows(1, 2)
	for i := range extra {
		extra[i].RefereeName = "Referee Z"
		extra[i].MatchID += 1000
	}
	rows = append(rows, extra...)

	modeler := NewModeler(quietLogger(), DefaultOptions())
	res, err := modeler.Fit(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.RefereesDropped) != 1 || res.RefereesDropped[0] != "Referee Z" {
		t.Errorf("dropped = %v, want [Referee Z]", res.RefereesDropped)
	}
	for _, level := range res.RefereeLevels {
		if level == "Referee Z" {
			t.Error("dropped referee still present in levels")
		}
	}
	if res.RowsUsed != 32 {
		t.Errorf("rows used = %d, want 32", res.RowsUsed)
	}
}

func TestFit_RefereeRowCountBoundary(t *testing.T) {
	rows := syntheticRows(2, 8)
	// Three matches produce six rows, clearing the default minimum of five
	// observations even though the referee has fewer than five matches.
	extra := syntheticRows(1, 3)
	for i := range extra {
		extra[i].RefereeName = "Referee Z"
		extra[i].MatchID += 1000
	}
	rows = append(rows, extra...)

	modeler := NewModeler(quietLogger(), DefaultOptions())
	res, err := modeler.Fit(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.RefereesDropped) != 0 {
		t.Errorf("dropped = %v, want none", res.RefereesDropped)
	}
	found := false
	for _, level := range res.RefereeLevels {
		if level == "Referee Z" {
			found = true
		}
	}
	if !found {
		t.Error("Referee Z missing from levels")
	}
	if res.RowsUsed != 38 {
		t.Errorf("rows used = %d, want 38", res.RowsUsed)
	}
}

func TestFit_MissingFormulaColumnFails(t *testing.T) {
	rows := syntheticRows(2, 8)
	for i := range rows {
		delete(rows[i].Features, "z_wing_share")
	}

	modeler := NewModeler(quietLogger(), DefaultOptions())
	_, err := modeler.Fit(rows)
	if err == nil {
		t.Fatal("expected error for missing formula column")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Feature != "z_wing_share" {
		t.Errorf("error = %v, want ConfigurationError for z_wing_share", err)
	}
}

func TestSlopesAndEffects_Extraction(t *testing.T) {
	zone := model.ZoneID{X: 1, Y: 1}
	zm := &model.ZoneModel{
		Zone:          zone,
		RefereeLevels: []string{"A. Ref", "B. Ref"},
		Coefficients: []model.Coefficient{
			{Term: model.Term{Kind: model.TermIntercept}, Estimate: -4},
			{Term: model.Term{Kind: model.TermRefereeEffect, Referee: "B. Ref"}, Estimate: 0.3, StdErr: 0.1, PValue: 0.003},
			{Term: model.Term{Kind: model.TermRefereeSlope, Feature: "z_ppda", Referee: "B. Ref"}, Estimate: -0.2, StdErr: 0.15, PValue: 0.18},
		},
	}
	models := map[model.ZoneID]*model.ZoneModel{zone: zm}

	slopes := Slopes(models, 0.05)
	if len(slopes) != 1 {
		t.Fatalf("got %d slopes, want 1", len(slopes))
	}
	s := slopes[0]
	// The standardized prefix is dropped for display.
	if s.RefereeName != "B. Ref" || s.Feature != "ppda" || s.Slope != -0.2 {
		t.Errorf("slope = %+v", s)
	}
	if s.Significant {
		t.Error("slope with p=0.18 flagged significant at 0.05")
	}

	effects := Effects(models, 0.05)
	if len(effects) != 1 {
		t.Fatalf("got %d effects, want 1", len(effects))
	}
	if !effects[0].Significant {
		t.Error("effect with p=0.003 not flagged significant")
	}
}

func TestPredict_PartialCoverage(t *testing.T) {
	models := make(map[model.ZoneID]*model.ZoneModel)
	for i, zone := range model.AllZones() {
		if i >= 12 {
			break // leave 3 zones without a model
		}
		models[zone] = &model.ZoneModel{
			Zone:       zone,
			OffsetName: "log_opp_passes",
			Coefficients: []model.Coefficient{
				{Term: model.Term{Kind: model.TermIntercept}, Estimate: math.Log(2)},
			},
		}
	}

	row := &model.FeatureRow{
		HomeAway: "away",
		Features: map[string]float64{"log_opp_passes": 0},
	}
	preds, err := Predict(models, row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preds) != 12 {
		t.Fatalf("got %d predictions, want exactly 12", len(preds))
	}
	for zone, v := range preds {
		if math.Abs(v-2) > 1e-9 {
			t.Errorf("prediction for %s = %.4f, want 2", zone, v)
		}
	}
}

func TestPredict_AppliesOffsetAndTerms(t *testing.T) {
	zone := model.ZoneID{X: 0, Y: 0}
	models := map[model.ZoneID]*model.ZoneModel{
		zone: {
			Zone:       zone,
			OffsetName: "log_opp_passes",
			Coefficients: []model.Coefficient{
				{Term: model.Term{Kind: model.TermIntercept}, Estimate: -1},
				{Term: model.Term{Kind: model.TermHome}, Estimate: 0.5},
				{Term: model.Term{Kind: model.TermFeature, Feature: "z_ppda"}, Estimate: 2},
			},
		},
	}
	row := &model.FeatureRow{
		HomeAway: "home",
		Features: map[string]float64{"log_opp_passes": math.Log(10), "z_ppda": 0.25},
	}
	preds, err := Predict(models, row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 10 * math.Exp(-1+0.5+2*0.25)
	if math.Abs(preds[zone]-want) > 1e-9 {
		t.Errorf("prediction = %.6f, want %.6f", preds[zone], want)
	}
}
