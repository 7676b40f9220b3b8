// Package pitch provides the fixed 5x3 spatial partition of the 120x80 pitch
// used for foul binning and zone-wise modeling.
package pitch

import "github.com/pitchside/refmetrics/internal/model"

// Pitch dimensions in provider units.
const (
	Length = 120.0
	Width  = 80.0
)

// Zone cell dimensions.
const (
	ZoneLength = Length / model.GridXBins // 24
	ZoneWidth  = Width / model.GridYBins  // 26.67
)

// Third identifies a length-third of the pitch from the acting team's
// perspective.
type Third int

const (
	DefensiveThird Third = iota
	MiddleThird
	AttackingThird
)

// Lane identifies a width-lane of the pitch.
type Lane int

const (
	LeftLane Lane = iota
	CenterLane
	RightLane
)

// ZoneOf maps a coordinate to its grid cell. Coordinates on or beyond the far
// edges clamp into the last cell, so x=120 lands in column 4 and y=80 in
// row 2.
func ZoneOf(x, y float64) model.ZoneID {
	return model.ZoneID{
		X: clamp(int(x/ZoneLength), model.GridXBins-1),
		Y: clamp(int(y/ZoneWidth), model.GridYBins-1),
	}
}

// ThirdOf maps an x coordinate to its length-third: [0,40) defensive,
// [40,80) middle, [80,120] attacking.
func ThirdOf(x float64) Third {
	switch {
	case x < Length/3:
		return DefensiveThird
	case x < 2*Length/3:
		return MiddleThird
	default:
		return AttackingThird
	}
}

// LaneOf maps a y coordinate to its width-lane: [0,26.67) left,
// [26.67,53.33) center, [53.33,80] right.
func LaneOf(y float64) Lane {
	switch {
	case y < Width/3:
		return LeftLane
	case y < 2*Width/3:
		return CenterLane
	default:
		return RightLane
	}
}

// Center returns the midpoint coordinates of a zone.
func Center(z model.ZoneID) (x, y float64) {
	return (float64(z.X) + 0.5) * ZoneLength, (float64(z.Y) + 0.5) * ZoneWidth
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
