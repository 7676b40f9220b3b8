package zonemodel

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pitchside/refmetrics/internal/dataset"
	"github.com/pitchside/refmetrics/internal/model"
)

// Options controls dataset filtering and the per-zone fits.
// MinRefereeMatches counts the team-match rows a referee appears in.
type Options struct {
	BaseFeatures        []string
	InteractionFeatures []string
	OffsetName          string
	MinRefereeMatches   int
	MinZoneEvents       int
	SignificanceAlpha   float64
	Dispersion          float64
	MaxIter             int
	Tol                 float64
}

// DefaultOptions mirrors the standard modeling configuration: standardized
// playstyle regressors, opponent-pass exposure, and NB2 dispersion fixed at 1.
func DefaultOptions() Options {
	return Options{
		BaseFeatures: []string{
			dataset.ZName("ppda"),
			dataset.ZName("directness"),
			dataset.ZName("possession_share"),
			dataset.ZName("block_height_x"),
			dataset.ZName("wing_share"),
		},
		InteractionFeatures: []string{
			dataset.ZName("directness"),
			dataset.ZName("ppda"),
		},
		OffsetName:        "log_opp_passes",
		MinRefereeMatches: 5,
		MinZoneEvents:     3,
		SignificanceAlpha: 0.05,
		Dispersion:        1.0,
		MaxIter:           100,
		Tol:               1e-8,
	}
}

// ZoneStatus records the outcome of one zone's fit attempt.
type ZoneStatus struct {
	Zone   model.ZoneID
	Fitted bool
	Reason string
	Events float64
}

// Result is the outcome of fitting all zones: the fitted models keyed by
// zone, plus per-zone statuses and the dataset bookkeeping.
type Result struct {
	Models          map[model.ZoneID]*model.ZoneModel
	Statuses        []ZoneStatus
	RefereeLevels   []string
	RowsUsed        int
	RefereesDropped []string
}

// Modeler fits the 15 zone models over a feature-row dataset.
type Modeler struct {
	opts Options
	log  *logrus.Entry
}

// NewModeler returns a modeler with the given options.
func NewModeler(log *logrus.Logger, opts Options) *Modeler {
	return &Modeler{opts: opts, log: log.WithField("component", "zonemodel")}
}

// Fit drops referees with too few matches, then fits every zone with enough
// events. Zones fit concurrently; a zone that cannot be fitted is recorded
// with its reason and simply absent from the model map.
func (m *Modeler) Fit(rows []model.FeatureRow) (*Result, error) {
	kept, dropped := m.filterReferees(rows)
	if len(kept) == 0 {
		return nil, fmt.Errorf("no rows remain after referee filtering (min %d matches)", m.opts.MinRefereeMatches)
	}
	levels := RefereeLevels(kept)
	if len(levels) < 2 {
		return nil, fmt.Errorf("need at least two referees, have %d", len(levels))
	}

	// A formula column missing from the dataset is a configuration mistake,
	// not sparse data, and fails the whole run.
	required := append([]string{m.opts.OffsetName}, m.opts.BaseFeatures...)
	required = append(required, m.opts.InteractionFeatures...)
	for _, name := range required {
		if _, ok := kept[0].Feature(name); !ok {
			return nil, &ConfigurationError{Feature: name}
		}
	}

	res := &Result{
		Models:          make(map[model.ZoneID]*model.ZoneModel),
		Statuses:        make([]ZoneStatus, 0, model.GridXBins*model.GridYBins),
		RefereeLevels:   levels,
		RowsUsed:        len(kept),
		RefereesDropped: dropped,
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, zone := range model.AllZones() {
		wg.Add(1)
		go func(zone model.ZoneID) {
			defer wg.Done()
			zm, status := m.fitZone(kept, zone, levels)
			mu.Lock()
			if zm != nil {
				res.Models[zone] = zm
			}
			res.Statuses = append(res.Statuses, status)
			mu.Unlock()
		}(zone)
	}
	wg.Wait()

	sort.Slice(res.Statuses, func(i, j int) bool {
		a, b := res.Statuses[i].Zone, res.Statuses[j].Zone
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})

	m.log.WithFields(logrus.Fields{
		"rows":             res.RowsUsed,
		"referees":         len(levels),
		"referees_dropped": len(dropped),
		"zones_fitted":     len(res.Models),
	}).Info("zone fitting complete")
	return res, nil
}

func (m *Modeler) fitZone(rows []model.FeatureRow, zone model.ZoneID, levels []string) (*model.ZoneModel, ZoneStatus) {
	response := zone.ResponseName()
	events := 0.0
	for i := range rows {
		events += rows[i].FeatureOr(response, 0)
	}
	status := ZoneStatus{Zone: zone, Events: events}
	if events < float64(m.opts.MinZoneEvents) {
		status.Reason = fmt.Sprintf("only %.0f events, need %d", events, m.opts.MinZoneEvents)
		return nil, status
	}

	design, err := BuildDesign(rows, response, m.opts.OffsetName, m.opts.BaseFeatures, m.opts.InteractionFeatures, levels)
	if err != nil {
		status.Reason = err.Error()
		return nil, status
	}
	f, err := fitNegBin(design, m.opts.Dispersion, m.opts.MaxIter, m.opts.Tol)
	if err != nil {
		status.Reason = err.Error()
		m.log.WithFields(logrus.Fields{"zone": zone.String(), "error": err}).Warn("zone fit failed")
		return nil, status
	}

	zm := buildZoneModel(zone, design, f, m.opts.Dispersion, m.opts.OffsetName, response, levels)
	if !zm.Converged {
		status.Reason = "did not converge"
		return nil, status
	}
	if math.IsNaN(zm.AIC) || math.IsInf(zm.AIC, 0) {
		status.Reason = "non-finite information criteria"
		return nil, status
	}

	status.Fitted = true
	return zm, status
}

// filterReferees keeps rows whose referee appears in at least
// MinRefereeMatches team-match rows (two per refereed match), returning the
// dropped referee names sorted.
func (m *Modeler) filterReferees(rows []model.FeatureRow) ([]model.FeatureRow, []string) {
	rowsPerRef := make(map[string]int)
	for i := range rows {
		rowsPerRef[rows[i].RefereeName]++
	}

	var dropped []string
	keep := make(map[string]bool, len(rowsPerRef))
	for ref, n := range rowsPerRef {
		if n >= m.opts.MinRefereeMatches {
			keep[ref] = true
		} else {
			dropped = append(dropped, ref)
		}
	}
	sort.Strings(dropped)

	var kept []model.FeatureRow
	for i := range rows {
		if keep[rows[i].RefereeName] {
			kept = append(kept, rows[i])
		}
	}
	return kept, dropped
}

// Slopes extracts the referee x feature interaction slopes from every fitted
// model, ordered by zone then referee then feature. Features are reported
// under their raw names, without the standardized prefix.
func Slopes(models map[model.ZoneID]*model.ZoneModel, alpha float64) []model.RefereeSlope {
	var out []model.RefereeSlope
	for _, zone := range model.AllZones() {
		zm, ok := models[zone]
		if !ok {
			continue
		}
		for _, c := range zm.Coefficients {
			if c.Kind != model.TermRefereeSlope {
				continue
			}
			out = append(out, model.RefereeSlope{
				Zone:        zone,
				RefereeName: c.Referee,
				Feature:     dataset.RawName(c.Feature),
				Slope:       c.Estimate,
				StdErr:      c.StdErr,
				PValue:      c.PValue,
				Significant: c.PValue < alpha,
			})
		}
	}
	return out
}

// Effects extracts the referee fixed-effect shifts, relative to each model's
// reference referee.
func Effects(models map[model.ZoneID]*model.ZoneModel, alpha float64) []model.RefereeEffect {
	var out []model.RefereeEffect
	for _, zone := range model.AllZones() {
		zm, ok := models[zone]
		if !ok {
			continue
		}
		for _, c := range zm.Coefficients {
			if c.Kind != model.TermRefereeEffect {
				continue
			}
			out = append(out, model.RefereeEffect{
				Zone:        zone,
				RefereeName: c.Referee,
				Effect:      c.Estimate,
				StdErr:      c.StdErr,
				PValue:      c.PValue,
				Significant: c.PValue < alpha,
			})
		}
	}
	return out
}

// Predict computes the expected foul count per zone for one feature row. Only
// zones with a fitted model appear in the result. A referee outside a model's
// levels predicts at the reference category.
func Predict(models map[model.ZoneID]*model.ZoneModel, row *model.FeatureRow) (map[model.ZoneID]float64, error) {
	out := make(map[model.ZoneID]float64, len(models))
	for zone, zm := range models {
		eta, ok := row.Feature(zm.OffsetName)
		if !ok {
			return nil, &ConfigurationError{Feature: zm.OffsetName}
		}
		for _, c := range zm.Coefficients {
			v, err := TermValue(c.Term, row)
			if err != nil {
				return nil, err
			}
			eta += c.Estimate * v
		}
		if eta > etaCap {
			eta = etaCap
		} else if eta < -etaCap {
			eta = -etaCap
		}
		out[zone] = math.Exp(eta)
	}
	return out, nil
}
