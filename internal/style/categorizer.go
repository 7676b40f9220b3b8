// Package style derives categorical tactical tags and a composite archetype
// label from a team-match feature row. Everything here is a pure function of
// the row and the configured thresholds.
package style

import (
	"math"

	"github.com/pitchside/refmetrics/internal/model"
)

// Thresholds is the categorization configuration. All values are compared
// against raw (unstandardized) features.
type Thresholds struct {
	// Pressing bands. PPDA bounds are upper-exclusive; lower PPDA means more
	// pressing. Attacking-third defensive shares are lower-inclusive.
	PPDAVeryHigh float64 `koanf:"ppda_very_high"`
	PPDAHigh     float64 `koanf:"ppda_high"`
	PPDAMid      float64 `koanf:"ppda_mid"`

	AttDefShareVeryHigh float64 `koanf:"att_def_share_very_high"`
	AttDefShareHigh     float64 `koanf:"att_def_share_high"`
	AttDefShareMid      float64 `koanf:"att_def_share_mid"`

	BlockHigh float64 `koanf:"block_high"`
	BlockMid  float64 `koanf:"block_mid"`

	PossessionHigh float64 `koanf:"possession_high"`
	PossessionLow  float64 `koanf:"possession_low"`
	DirectnessHigh float64 `koanf:"directness_high"`
	DirectnessLow  float64 `koanf:"directness_low"`

	WingOverload   float64 `koanf:"wing_overload"`
	WingCentralMax float64 `koanf:"wing_central_max"`
	CenterFocus    float64 `koanf:"center_focus"`

	TransitionVeryHigh float64 `koanf:"transition_very_high"`
	TransitionHigh     float64 `koanf:"transition_high"`
	TransitionMedium   float64 `koanf:"transition_medium"`

	CrossHeavy            float64 `koanf:"cross_heavy"`
	SetPieceMaxFouls      float64 `koanf:"set_piece_max_fouls"`
	TacticalStopsAttShare float64 `koanf:"tactical_stops_att_share"`
	CentralLeaning        float64 `koanf:"central_leaning"`
	SustainedLowBlockDef  float64 `koanf:"sustained_low_block_def"`
}

// DefaultThresholds returns the standard categorization bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PPDAVeryHigh: 8,
		PPDAHigh:     12,
		PPDAMid:      18,

		AttDefShareVeryHigh: 0.40,
		AttDefShareHigh:     0.25,
		AttDefShareMid:      0.15,

		BlockHigh: 70,
		BlockMid:  45,

		PossessionHigh: 0.55,
		PossessionLow:  0.45,
		DirectnessHigh: 0.60,
		DirectnessLow:  0.40,

		WingOverload:   0.75,
		WingCentralMax: 0.60,
		CenterFocus:    0.30,

		TransitionVeryHigh: 0.25,
		TransitionHigh:     0.15,
		TransitionMedium:   0.10,

		CrossHeavy:            0.05,
		SetPieceMaxFouls:      9,
		TacticalStopsAttShare: 0.10,
		CentralLeaning:        0.30,
		SustainedLowBlockDef:  0.55,
	}
}

// Categorizer assigns axis tags and overlays.
type Categorizer struct {
	T Thresholds
}

// NewCategorizer returns a categorizer with the default thresholds.
func NewCategorizer() *Categorizer {
	return &Categorizer{T: DefaultThresholds()}
}

// Categorize maps a feature row to its five axis tags, overlay set, and
// composite archetype. Missing features fall back to neutral defaults, so the
// result is always fully populated.
func (c *Categorizer) Categorize(row *model.FeatureRow) model.ArchetypeRow {
	out := model.ArchetypeRow{
		Pressing:             c.pressing(row),
		Block:                c.block(row),
		PossessionDirectness: c.possessionDirectness(row),
		Width:                c.width(row),
		Transition:           c.transition(row),
	}
	out.Overlays = c.overlays(row)
	out.Archetype = DeriveArchetype(&out)
	return out
}

// Pressing intensity ranks, higher is more aggressive.
const (
	intensityLow = iota
	intensityMid
	intensityHigh
	intensityVeryHigh
)

func (c *Categorizer) pressing(row *model.FeatureRow) string {
	ppda := row.FeatureOr("ppda", math.Inf(1))

	// Infinite PPDA means no defensive actions, which is the least pressing a
	// team can do.
	ppdaLevel := intensityLow
	if !math.IsInf(ppda, 1) {
		switch {
		case ppda < c.T.PPDAVeryHigh:
			ppdaLevel = intensityVeryHigh
		case ppda < c.T.PPDAHigh:
			ppdaLevel = intensityHigh
		case ppda < c.T.PPDAMid:
			ppdaLevel = intensityMid
		}
	}

	attShare := row.FeatureOr("def_share_att_third", 0)
	shareLevel := intensityLow
	switch {
	case attShare >= c.T.AttDefShareVeryHigh:
		shareLevel = intensityVeryHigh
	case attShare >= c.T.AttDefShareHigh:
		shareLevel = intensityHigh
	case attShare >= c.T.AttDefShareMid:
		shareLevel = intensityMid
	}

	level := ppdaLevel
	if shareLevel > level {
		level = shareLevel
	}
	switch level {
	case intensityVeryHigh:
		return model.PressingVeryHigh
	case intensityHigh:
		return model.PressingHigh
	case intensityMid:
		return model.PressingMid
	}
	return model.PressingLow
}

func (c *Categorizer) block(row *model.FeatureRow) string {
	h := row.FeatureOr("block_height_x", 60)
	switch {
	case h >= c.T.BlockHigh:
		return model.BlockHigh
	case h >= c.T.BlockMid:
		return model.BlockMid
	}
	return model.BlockLow
}

func (c *Categorizer) possessionDirectness(row *model.FeatureRow) string {
	possession := row.FeatureOr("possession_share", 0.5)
	directness := row.FeatureOr("directness", 0.5)

	var posClass string
	switch {
	case possession >= c.T.PossessionHigh:
		posClass = model.StylePossession
	case possession >= c.T.PossessionLow:
		posClass = model.StyleBalanced
	default:
		posClass = model.StyleDirect
	}

	var dirClass string
	switch {
	case directness >= c.T.DirectnessHigh:
		dirClass = model.StyleDirect
	case directness >= c.T.DirectnessLow:
		dirClass = model.StyleBalanced
	default:
		dirClass = model.StylePossession
	}

	// Opposite extremes cancel out.
	if (posClass == model.StylePossession && dirClass == model.StyleDirect) ||
		(posClass == model.StyleDirect && dirClass == model.StylePossession) {
		return model.StyleBalanced
	}
	return posClass
}

func (c *Categorizer) width(row *model.FeatureRow) string {
	wing := row.FeatureOr("wing_share", 0.67)
	center := row.FeatureOr("lane_center_share", 1.0/3)
	switch {
	case wing >= c.T.WingOverload:
		return model.WidthWingOverload
	case wing < c.T.WingCentralMax && center >= c.T.CenterFocus:
		return model.WidthCentralFocus
	}
	return model.WidthBalanced
}

func (c *Categorizer) transition(row *model.FeatureRow) string {
	rate := row.FeatureOr("counter_rate", 0)
	switch {
	case rate >= c.T.TransitionVeryHigh:
		return model.TransitionVeryHigh
	case rate >= c.T.TransitionHigh:
		return model.TransitionHigh
	case rate >= c.T.TransitionMedium:
		return model.TransitionMedium
	}
	return model.TransitionLow
}

func (c *Categorizer) overlays(row *model.FeatureRow) []string {
	var out []string
	if row.FeatureOr("cross_share", 0) >= c.T.CrossHeavy {
		out = append(out, model.OverlayCrossHeavy)
	}
	if row.FeatureOr("fouls_committed", 0) <= c.T.SetPieceMaxFouls {
		out = append(out, model.OverlaySetPieceFocus)
	}
	if row.FeatureOr("foul_share_att_third", 0) >= c.T.TacticalStopsAttShare {
		out = append(out, model.OverlayTacticalStops)
	}
	if row.FeatureOr("lane_center_share", 0) >= c.T.CentralLeaning {
		out = append(out, model.OverlayCentralLeaning)
	}
	if row.FeatureOr("foul_share_def_third", 0) >= c.T.SustainedLowBlockDef {
		out = append(out, model.OverlaySustainedLowBlock)
	}
	return out
}
