package model

import "fmt"

// ---- Raw events supplied by the data-retrieval collaborator ----

// Location is a pitch coordinate: x in [0,120] along the length toward the
// opponent goal, y in [0,80] across the width.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PassDetail holds pass-specific attributes.
type PassDetail struct {
	Length      float64   `json:"length"`
	EndLocation *Location `json:"end_location,omitempty"`
	Cross       bool      `json:"cross,omitempty"`
	ThroughBall bool      `json:"through_ball,omitempty"`
}

// ShotDetail holds shot-specific attributes.
type ShotDetail struct {
	XG float64 `json:"xg"`
}

// Event is one match event. Location is nil when the provider did not record
// one; Possession is the possession-sequence id (0 when unknown).
type Event struct {
	Type           string      `json:"type"`
	Team           string      `json:"team"`
	Player         string      `json:"player,omitempty"`
	Minute         int         `json:"minute"`
	Location       *Location   `json:"location,omitempty"`
	Possession     int         `json:"possession,omitempty"`
	PossessionTeam string      `json:"possession_team,omitempty"`
	PlayPattern    string      `json:"play_pattern,omitempty"`
	Pass           *PassDetail `json:"pass,omitempty"`
	Shot           *ShotDetail `json:"shot,omitempty"`
	Card           string      `json:"card,omitempty"` // on Foul Committed / Bad Behaviour
}

// Event type names used by the extractors.
const (
	EventPass         = "Pass"
	EventShot         = "Shot"
	EventFoul         = "Foul Committed"
	EventBadBehaviour = "Bad Behaviour"
	EventPressure     = "Pressure"
	EventTackle       = "Tackle"
	EventInterception = "Interception"
	EventDuel         = "Duel"
)

// Card names carried on foul events.
const (
	CardYellow       = "Yellow Card"
	CardRed          = "Red Card"
	CardSecondYellow = "Second Yellow"
)

// Match is one match as delivered by the upstream loader: metadata plus the
// full event list for both teams.
type Match struct {
	MatchID       int64   `json:"match_id"`
	MatchDate     string  `json:"match_date"`
	HomeTeam      string  `json:"home_team"`
	AwayTeam      string  `json:"away_team"`
	RefereeName   string  `json:"referee_name"`
	CompetitionID int     `json:"competition_id"`
	SeasonID      int     `json:"season_id"`
	Events        []Event `json:"events"`
}

// ---- Team-match feature rows ----

// FeatureRow is one team's flattened feature vector for one match. Features
// maps feature name to value; identifying keys are explicit fields. Rows are
// immutable once built.
type FeatureRow struct {
	MatchID       int64
	MatchDate     string
	Team          string
	Opponent      string
	HomeAway      string // "home" or "away"
	RefereeName   string
	CompetitionID int
	SeasonID      int

	Features map[string]float64
}

// Feature returns the named feature and whether it is present.
func (r *FeatureRow) Feature(name string) (float64, bool) {
	v, ok := r.Features[name]
	return v, ok
}

// FeatureOr returns the named feature, or def when absent.
func (r *FeatureRow) FeatureOr(name string, def float64) float64 {
	if v, ok := r.Features[name]; ok {
		return v
	}
	return def
}

// IsHome reports whether this row is the home side of its match.
func (r *FeatureRow) IsHome() bool { return r.HomeAway == "home" }

// ---- Spatial zones ----

// Pitch grid dimensions: 5 zones along the length, 3 across the width.
const (
	GridXBins = 5
	GridYBins = 3
)

// ZoneID identifies one cell of the 5x3 pitch partition.
type ZoneID struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (z ZoneID) String() string { return fmt.Sprintf("zone_%d_%d", z.X, z.Y) }

// ResponseName is the feature-row column holding this zone's foul count.
func (z ZoneID) ResponseName() string { return fmt.Sprintf("foul_grid_x%d_y%d", z.X, z.Y) }

// Valid reports whether the indices fall inside the grid.
func (z ZoneID) Valid() bool {
	return z.X >= 0 && z.X < GridXBins && z.Y >= 0 && z.Y < GridYBins
}

// AllZones returns the 15 zone ids in x-major order.
func AllZones() []ZoneID {
	zones := make([]ZoneID, 0, GridXBins*GridYBins)
	for x := 0; x < GridXBins; x++ {
		for y := 0; y < GridYBins; y++ {
			zones = append(zones, ZoneID{X: x, Y: y})
		}
	}
	return zones
}

// ---- Fitted zone models ----

// TermKind distinguishes the columns of a zone design matrix. Referee terms
// carry the referee level symbolically so slope extraction never parses
// generated coefficient names.
type TermKind string

const (
	TermIntercept     TermKind = "intercept"
	TermFeature       TermKind = "feature"
	TermHome          TermKind = "home"
	TermRefereeEffect TermKind = "referee_effect"
	TermRefereeSlope  TermKind = "referee_slope"
)

// Term describes one linear-predictor column.
type Term struct {
	Kind    TermKind `json:"kind"`
	Feature string   `json:"feature,omitempty"` // set for feature and referee_slope terms
	Referee string   `json:"referee,omitempty"` // set for referee_effect and referee_slope terms
}

// Name renders a stable human-readable coefficient name.
func (t Term) Name() string {
	switch t.Kind {
	case TermIntercept:
		return "intercept"
	case TermFeature:
		return t.Feature
	case TermHome:
		return "home_indicator"
	case TermRefereeEffect:
		return "referee[" + t.Referee + "]"
	case TermRefereeSlope:
		return t.Feature + ":referee[" + t.Referee + "]"
	}
	return string(t.Kind)
}

// Coefficient is one fitted term with its inference statistics.
type Coefficient struct {
	Term
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	PValue   float64 `json:"p_value"`
	CILower  float64 `json:"ci_lower"`
	CIUpper  float64 `json:"ci_upper"`
}

// ZoneModel is one fitted Negative-Binomial regression for one zone.
// Immutable after fitting; absent zones simply have no entry in the model map.
type ZoneModel struct {
	Zone          ZoneID        `json:"zone"`
	Response      string        `json:"response"`
	OffsetName    string        `json:"offset_name"`
	RefereeLevels []string      `json:"referee_levels"` // [0] is the reference category
	Coefficients  []Coefficient `json:"coefficients"`
	Dispersion    float64       `json:"dispersion"`
	Converged     bool          `json:"converged"`
	LogLikelihood float64       `json:"log_likelihood"`
	AIC           float64       `json:"aic"`
	BIC           float64       `json:"bic"`
	NumObs        int           `json:"num_obs"`
}

// Lookup returns the coefficient matching the term, if present.
func (m *ZoneModel) Lookup(t Term) (Coefficient, bool) {
	for _, c := range m.Coefficients {
		if c.Kind == t.Kind && c.Feature == t.Feature && c.Referee == t.Referee {
			return c, true
		}
	}
	return Coefficient{}, false
}

// RefereeSlope is a referee x feature interaction slope extracted from a
// fitted zone model.
type RefereeSlope struct {
	Zone        ZoneID
	RefereeName string
	Feature     string
	Slope       float64
	StdErr      float64
	PValue      float64
	Significant bool
}

// RefereeEffect is a referee fixed-effect shift relative to the model's
// reference referee.
type RefereeEffect struct {
	Zone        ZoneID
	RefereeName string
	Effect      float64
	StdErr      float64
	PValue      float64
	Significant bool
}

// ---- Tactical archetypes ----

// Axis tag values produced by the style categorizer.
const (
	PressingVeryHigh = "Very High Press"
	PressingHigh     = "High Press"
	PressingMid      = "Mid Press"
	PressingLow      = "Low Press"

	BlockHigh = "High Block"
	BlockMid  = "Mid Block"
	BlockLow  = "Low Block"

	StylePossession = "Possession-Based"
	StyleBalanced   = "Balanced"
	StyleDirect     = "Direct"

	WidthWingOverload = "Wing Overload"
	WidthCentralFocus = "Central Focus"
	WidthBalanced     = "Balanced Channels"

	TransitionVeryHigh = "Very High Transition"
	TransitionHigh     = "High Transition"
	TransitionMedium   = "Medium Transition"
	TransitionLow      = "Low Transition"
)

// Overlay tag vocabulary.
const (
	OverlayCrossHeavy        = "Cross-Heavy"
	OverlaySetPieceFocus     = "Set-Piece Focus"
	OverlayTacticalStops     = "High Press Tactical Stops"
	OverlayCentralLeaning    = "Central Leaning"
	OverlaySustainedLowBlock = "Sustained Low Block"
)

// ArchetypeRow is the deterministic tactical labeling of one feature row.
type ArchetypeRow struct {
	Pressing             string
	Block                string
	PossessionDirectness string
	Width                string
	Transition           string
	Overlays             []string
	Archetype            string
}

// HasOverlay reports whether the overlay tag is present.
func (a *ArchetypeRow) HasOverlay(tag string) bool {
	for _, o := range a.Overlays {
		if o == tag {
			return true
		}
	}
	return false
}
