// Package zonemodel fits per-zone Negative-Binomial foul models with referee
// fixed effects and referee x playstyle interaction slopes.
package zonemodel

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/pitchside/refmetrics/internal/model"
)

// ConfigurationError reports a requested model term with no backing column in
// the feature rows.
type ConfigurationError struct {
	Feature string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("feature %q not present in dataset", e.Feature)
}

// RefereeLevels returns the sorted distinct referee names across rows. The
// first level is the reference category; its effect and slopes are absorbed
// into the baseline terms.
func RefereeLevels(rows []model.FeatureRow) []string {
	seen := make(map[string]struct{})
	for i := range rows {
		seen[rows[i].RefereeName] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for name := range seen {
		levels = append(levels, name)
	}
	sort.Strings(levels)
	return levels
}

// Design is one zone's assembled regression inputs.
type Design struct {
	Terms  []model.Term
	X      *mat.Dense
	Y      []float64
	Offset []float64
}

// BuildTerms lays out the linear-predictor columns: intercept, base features,
// home indicator, referee fixed effects (dummy coded against levels[0]), then
// one slope per interaction feature per non-reference referee.
func BuildTerms(baseFeatures, interactionFeatures, refLevels []string) []model.Term {
	terms := []model.Term{{Kind: model.TermIntercept}}
	for _, f := range baseFeatures {
		terms = append(terms, model.Term{Kind: model.TermFeature, Feature: f})
	}
	terms = append(terms, model.Term{Kind: model.TermHome})
	for _, ref := range refLevels[1:] {
		terms = append(terms, model.Term{Kind: model.TermRefereeEffect, Referee: ref})
	}
	for _, f := range interactionFeatures {
		for _, ref := range refLevels[1:] {
			terms = append(terms, model.Term{Kind: model.TermRefereeSlope, Feature: f, Referee: ref})
		}
	}
	return terms
}

// TermValue evaluates one design column for one row.
func TermValue(t model.Term, row *model.FeatureRow) (float64, error) {
	switch t.Kind {
	case model.TermIntercept:
		return 1, nil
	case model.TermFeature:
		v, ok := row.Feature(t.Feature)
		if !ok {
			return 0, &ConfigurationError{Feature: t.Feature}
		}
		return v, nil
	case model.TermHome:
		if row.IsHome() {
			return 1, nil
		}
		return 0, nil
	case model.TermRefereeEffect:
		if row.RefereeName == t.Referee {
			return 1, nil
		}
		return 0, nil
	case model.TermRefereeSlope:
		if row.RefereeName != t.Referee {
			return 0, nil
		}
		v, ok := row.Feature(t.Feature)
		if !ok {
			return 0, &ConfigurationError{Feature: t.Feature}
		}
		return v, nil
	}
	return 0, fmt.Errorf("unknown term kind %q", t.Kind)
}

// BuildDesign assembles the design matrix, response vector, and log-exposure
// offset for one zone over the given rows.
func BuildDesign(rows []model.FeatureRow, response, offsetName string, baseFeatures, interactionFeatures, refLevels []string) (*Design, error) {
	if len(refLevels) == 0 {
		return nil, fmt.Errorf("no referee levels")
	}
	terms := BuildTerms(baseFeatures, interactionFeatures, refLevels)

	n, k := len(rows), len(terms)
	x := mat.NewDense(n, k, nil)
	y := make([]float64, n)
	offset := make([]float64, n)

	for i := range rows {
		row := &rows[i]
		yv, ok := row.Feature(response)
		if !ok {
			return nil, &ConfigurationError{Feature: response}
		}
		y[i] = yv
		ov, ok := row.Feature(offsetName)
		if !ok {
			return nil, &ConfigurationError{Feature: offsetName}
		}
		offset[i] = ov
		for j, t := range terms {
			v, err := TermValue(t, row)
			if err != nil {
				return nil, err
			}
			x.Set(i, j, v)
		}
	}

	return &Design{Terms: terms, X: x, Y: y, Offset: offset}, nil
}
