package model

import "testing"

func TestZoneID(t *testing.T) {
	z := ZoneID{X: 2, Y: 1}
	if z.String() != "zone_2_1" {
		t.Errorf("String = %q", z.String())
	}
	if z.ResponseName() != "foul_grid_x2_y1" {
		t.Errorf("ResponseName = %q", z.ResponseName())
	}
	if !z.Valid() {
		t.Error("zone 2,1 should be valid")
	}
	if (ZoneID{X: 5, Y: 0}).Valid() || (ZoneID{X: 0, Y: -1}).Valid() {
		t.Error("out-of-grid zones should be invalid")
	}
	if got := len(AllZones()); got != 15 {
		t.Errorf("AllZones = %d entries, want 15", got)
	}
}

func TestTermName(t *testing.T) {
	cases := []struct {
		term Term
		want string
	}{
		{Term{Kind: TermIntercept}, "intercept"},
		{Term{Kind: TermFeature, Feature: "z_ppda"}, "z_ppda"},
		{Term{Kind: TermHome}, "home_indicator"},
		{Term{Kind: TermRefereeEffect, Referee: "R. Vance"}, "referee[R. Vance]"},
		{Term{Kind: TermRefereeSlope, Feature: "z_ppda", Referee: "R. Vance"}, "z_ppda:referee[R. Vance]"},
	}
	for _, c := range cases {
		if got := c.term.Name(); got != c.want {
			t.Errorf("Name(%+v) = %q, want %q", c.term, got, c.want)
		}
	}
}

func TestZoneModelLookup(t *testing.T) {
	slope := Term{Kind: TermRefereeSlope, Feature: "z_ppda", Referee: "R. Vance"}
	zm := &ZoneModel{
		Coefficients: []Coefficient{
			{Term: Term{Kind: TermIntercept}, Estimate: -4},
			{Term: slope, Estimate: 0.2},
		},
	}
	c, ok := zm.Lookup(slope)
	if !ok || c.Estimate != 0.2 {
		t.Errorf("Lookup = %+v, %t", c, ok)
	}
	if _, ok := zm.Lookup(Term{Kind: TermRefereeSlope, Feature: "z_ppda", Referee: "Other"}); ok {
		t.Error("unexpected match for unknown referee")
	}
}
