package style

import (
	"strings"

	"github.com/pitchside/refmetrics/internal/model"
)

// archetypeRule matches on the normalized axis tags. Empty fields match
// anything.
type archetypeRule struct {
	pressing   string
	block      string
	style      string
	transition string
	label      string
}

// The core label rules, checked in order, first match wins. Very High Press
// is normalized to High Press before matching, so the rules only ever see
// three pressing levels. Transition tags match literally: Very High
// Transition does not satisfy a High Transition rule.
var archetypeRules = []archetypeRule{
	{
		pressing:   model.PressingLow,
		block:      model.BlockLow,
		transition: model.TransitionHigh,
		label:      "Low-Block Counter",
	},
	{
		pressing: model.PressingLow,
		block:    model.BlockLow,
		label:    "Low-Block Contain",
	},
	{
		pressing: model.PressingHigh,
		block:    model.BlockHigh,
		style:    model.StylePossession,
		label:    "High-Press Possession",
	},
	{
		pressing: model.PressingHigh,
		block:    model.BlockHigh,
		style:    model.StyleDirect,
		label:    "High-Press Direct",
	},
	{
		pressing:   model.PressingHigh,
		block:      model.BlockHigh,
		transition: model.TransitionHigh,
		label:      "High-Press Direct",
	},
	{
		pressing: model.PressingMid,
		block:    model.BlockMid,
		style:    model.StylePossession,
		label:    "Mid-Block Possession",
	},
	{
		pressing: model.PressingMid,
		block:    model.BlockMid,
		label:    "Mid-Block Balanced",
	},
}

const defaultArchetype = "Mid-Block Balanced"

func (r *archetypeRule) matches(pressing, block, style, transition string) bool {
	if r.pressing != "" && r.pressing != pressing {
		return false
	}
	if r.block != "" && r.block != block {
		return false
	}
	if r.style != "" && r.style != style {
		return false
	}
	if r.transition != "" && r.transition != transition {
		return false
	}
	return true
}

// DeriveArchetype resolves the axis tags and overlays of a categorized row
// into the composite archetype string.
func DeriveArchetype(row *model.ArchetypeRow) string {
	pressing := row.Pressing
	if pressing == model.PressingVeryHigh {
		pressing = model.PressingHigh
	}

	core := defaultArchetype
	for i := range archetypeRules {
		if archetypeRules[i].matches(pressing, row.Block, row.PossessionDirectness, row.Transition) {
			core = archetypeRules[i].label
			break
		}
	}

	var suffixes []string
	if row.Width == model.WidthWingOverload && row.HasOverlay(model.OverlayCrossHeavy) {
		suffixes = append(suffixes, "Wing Overload Crossers")
	}
	if row.Width == model.WidthCentralFocus && row.PossessionDirectness == model.StylePossession {
		suffixes = append(suffixes, "Central Combinational")
	}
	if row.HasOverlay(model.OverlaySetPieceFocus) {
		suffixes = append(suffixes, "Set-Piece Focus")
	}

	if len(suffixes) == 0 {
		return core
	}
	return core + " + " + strings.Join(suffixes, " + ")
}
