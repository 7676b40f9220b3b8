package dataset

import (
	"math"
	"strings"

	"github.com/pitchside/refmetrics/internal/model"
)

// DefaultStandardizeFeatures are the playstyle columns that get z-scored
// copies for modeling.
func DefaultStandardizeFeatures() []string {
	return []string{
		"ppda",
		"directness",
		"possession_share",
		"block_height_x",
		"wing_share",
		"avg_pass_length",
		"passes_per_possession",
		"counter_rate",
	}
}

// ZName is the standardized column name for a raw feature.
func ZName(name string) string { return "z_" + name }

// RawName strips the standardized prefix, returning the underlying feature.
func RawName(name string) string { return strings.TrimPrefix(name, "z_") }

// Standardize adds a z-scored copy of each named feature across all rows.
// Infinite values (the ppda sentinel) are first replaced by the column's
// largest finite value. A column with zero variance standardizes to zero.
func Standardize(rows []model.FeatureRow, names []string) {
	for _, name := range names {
		standardizeColumn(rows, name)
	}
}

func standardizeColumn(rows []model.FeatureRow, name string) {
	values := make([]float64, len(rows))
	maxFinite := math.Inf(-1)
	for i := range rows {
		v := rows[i].FeatureOr(name, 0)
		values[i] = v
		if !math.IsInf(v, 0) && v > maxFinite {
			maxFinite = v
		}
	}
	if math.IsInf(maxFinite, -1) {
		maxFinite = 0
	}
	for i, v := range values {
		if math.IsInf(v, 1) {
			values[i] = maxFinite
		}
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	if len(values) > 0 {
		mean /= float64(len(values))
	}

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	std := 0.0
	if len(values) > 1 {
		std = math.Sqrt(variance / float64(len(values)-1))
	}

	z := ZName(name)
	for i := range rows {
		if std > 0 {
			rows[i].Features[z] = (values[i] - mean) / std
		} else {
			rows[i].Features[z] = 0
		}
	}
}
