package features

import (
	"math"
	"testing"

	"github.com/pitchside/refmetrics/internal/model"
)

const (
	teamA = "Alpha FC"
	teamB = "Beta United"
)

func loc(x, y float64) *model.Location {
	return &model.Location{X: x, Y: y}
}

// pass builds a located pass for team with the given start and end points.
func pass(team string, possession int, start, end *model.Location) model.Event {
	var detail *model.PassDetail
	if end != nil && start != nil {
		dx := end.X - start.X
		dy := end.Y - start.Y
		detail = &model.PassDetail{Length: math.Hypot(dx, dy), EndLocation: end}
	} else {
		detail = &model.PassDetail{}
	}
	return model.Event{
		Type:           model.EventPass,
		Team:           team,
		Possession:     possession,
		PossessionTeam: team,
		Location:       start,
		Pass:           detail,
	}
}

func defensive(team, typ string, at *model.Location) model.Event {
	return model.Event{Type: typ, Team: team, Location: at}
}

func TestPPDA_TwoPassesThreeActions(t *testing.T) {
	events := []model.Event{
		pass(teamB, 1, loc(50, 40), loc(60, 40)),
		pass(teamB, 1, loc(60, 40), loc(70, 40)),
		defensive(teamA, model.EventPressure, loc(70, 40)),
		defensive(teamA, model.EventTackle, loc(65, 30)),
		defensive(teamA, model.EventInterception, nil),
	}
	feats := NewExtractor().Extract(events, teamA, teamB)

	got := feats["ppda"]
	if math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("ppda = %.4f, want 0.6667", got)
	}
}

func TestPPDA_NoDefensiveActionsIsInfinite(t *testing.T) {
	events := []model.Event{
		pass(teamB, 1, loc(50, 40), loc(60, 40)),
	}
	feats := NewExtractor().Extract(events, teamA, teamB)
	if !math.IsInf(feats["ppda"], 1) {
		t.Errorf("ppda = %v, want +Inf with zero defensive actions", feats["ppda"])
	}
}

func TestBlockHeight_MeanOfLocatedActions(t *testing.T) {
	events := []model.Event{
		defensive(teamA, model.EventTackle, loc(30, 40)),
		defensive(teamA, model.EventPressure, loc(90, 40)),
		defensive(teamA, model.EventDuel, nil), // unlocated, excluded from the mean
	}
	feats := NewExtractor().Extract(events, teamA, teamB)
	if feats["block_height_x"] != 60 {
		t.Errorf("block_height_x = %.2f, want 60", feats["block_height_x"])
	}
	if feats["def_share_def_third"] != 0.5 || feats["def_share_att_third"] != 0.5 {
		t.Errorf("third shares = %.2f/%.2f/%.2f, want 0.5/0/0.5",
			feats["def_share_def_third"], feats["def_share_mid_third"], feats["def_share_att_third"])
	}
}

func TestBlockHeight_DefaultsAtPitchCenter(t *testing.T) {
	feats := NewExtractor().Extract(nil, teamA, teamB)
	if feats["block_height_x"] != 60 {
		t.Errorf("default block_height_x = %.2f, want 60", feats["block_height_x"])
	}
}

func TestPossessionShare(t *testing.T) {
	events := []model.Event{
		pass(teamA, 1, loc(20, 40), loc(30, 40)),
		pass(teamA, 1, loc(30, 40), loc(40, 40)),
		pass(teamA, 2, loc(40, 40), loc(50, 40)),
		pass(teamB, 3, loc(50, 40), loc(60, 40)),
	}
	feats := NewExtractor().Extract(events, teamA, teamB)
	if feats["possession_share"] != 0.75 {
		t.Errorf("possession_share = %.2f, want 0.75", feats["possession_share"])
	}
}

func TestPossessionShare_DefaultWithNoPasses(t *testing.T) {
	feats := NewExtractor().Extract(nil, teamA, teamB)
	if feats["possession_share"] != 0.5 {
		t.Errorf("default possession_share = %.2f, want 0.5", feats["possession_share"])
	}
}

func TestDirectness_StraightForwardSequenceIsOne(t *testing.T) {
	// Two passes straight up the pitch: forward gain equals distance.
	events := []model.Event{
		pass(teamA, 1, loc(20, 40), loc(40, 40)),
		pass(teamA, 1, loc(40, 40), loc(70, 40)),
	}
	feats := NewExtractor().Extract(events, teamA, teamB)
	if math.Abs(feats["directness"]-1.0) > 1e-9 {
		t.Errorf("directness = %.4f, want 1.0", feats["directness"])
	}
}

func TestDirectness_BackwardPassesScoreZero(t *testing.T) {
	events := []model.Event{
		pass(teamA, 1, loc(70, 40), loc(50, 40)),
		pass(teamA, 1, loc(50, 40), loc(30, 40)),
	}
	feats := NewExtractor().Extract(events, teamA, teamB)
	if feats["directness"] != 0 {
		t.Errorf("directness = %.4f, want 0 for all-backward passes", feats["directness"])
	}
}

func TestDirectness_ShortSequencesExcluded(t *testing.T) {
	// One located pass per sequence: nothing qualifies, default applies.
	events := []model.Event{
		pass(teamA, 1, loc(20, 40), loc(40, 40)),
		pass(teamA, 2, loc(40, 40), loc(60, 40)),
	}
	feats := NewExtractor().Extract(events, teamA, teamB)
	if feats["directness"] != 0.5 {
		t.Errorf("directness = %.4f, want default 0.5", feats["directness"])
	}
}

func TestChannelShares(t *testing.T) {
	events := []model.Event{
		pass(teamA, 1, loc(50, 10), loc(60, 10)), // left lane
		pass(teamA, 1, loc(50, 40), loc(60, 40)), // center
		pass(teamA, 1, loc(50, 70), loc(60, 70)), // right
		pass(teamA, 1, loc(50, 75), loc(60, 75)), // right
	}
	feats := NewExtractor().Extract(events, teamA, teamB)
	if feats["lane_left_share"] != 0.25 {
		t.Errorf("lane_left_share = %.2f, want 0.25", feats["lane_left_share"])
	}
	if feats["wing_share"] != 0.75 {
		t.Errorf("wing_share = %.2f, want 0.75", feats["wing_share"])
	}
}

func TestChannelShares_CrossesOnlyCountLocatedPasses(t *testing.T) {
	crossPass := pass(teamA, 1, loc(100, 75), loc(110, 40))
	crossPass.Pass.Cross = true
	unlocatedCross := model.Event{
		Type: model.EventPass, Team: teamA,
		Pass: &model.PassDetail{Cross: true},
	}
	events := []model.Event{
		crossPass,
		unlocatedCross,
		pass(teamA, 1, loc(50, 40), loc(60, 40)),
	}
	feats := NewExtractor().Extract(events, teamA, teamB)
	if feats["cross_share"] != 0.5 {
		t.Errorf("cross_share = %.2f, want 0.5 over 2 located passes", feats["cross_share"])
	}
}

func TestCounterRate(t *testing.T) {
	counter := pass(teamA, 1, loc(30, 40), loc(60, 40))
	counter.PlayPattern = "From Counter"
	events := []model.Event{
		counter,
		pass(teamA, 2, loc(40, 40), loc(50, 40)),
		pass(teamA, 3, loc(40, 40), loc(50, 40)),
		pass(teamA, 3, loc(50, 40), loc(60, 40)),
	}
	feats := NewExtractor().Extract(events, teamA, teamB)
	// 1 counter-pattern event over 3 distinct possessions.
	if math.Abs(feats["counter_rate"]-1.0/3.0) > 1e-9 {
		t.Errorf("counter_rate = %.4f, want 0.3333", feats["counter_rate"])
	}
}

func TestValidate_FlagsOutOfRangeShares(t *testing.T) {
	feats := NewExtractor().Empty()
	feats["possession_share"] = 1.4
	feats["ppda"] = -2

	bad := Validate(feats)
	found := map[string]bool{}
	for _, f := range bad {
		found[f] = true
	}
	if !found["possession_share"] || !found["ppda"] {
		t.Errorf("Validate flagged %v, want possession_share and ppda", bad)
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	if bad := Validate(NewExtractor().Empty()); len(bad) != 0 {
		t.Errorf("default feature set flagged: %v", bad)
	}
}
