// Package config layers defaults, an optional YAML file, and REFMETRICS_
// environment variables into the runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pitchside/refmetrics/internal/discipline"
	"github.com/pitchside/refmetrics/internal/style"
	"github.com/pitchside/refmetrics/internal/zonemodel"
)

// Modeling configures the zone regression stage.
type Modeling struct {
	BaseFeatures        []string `koanf:"base_features"`
	InteractionFeatures []string `koanf:"interaction_features"`
	OffsetName          string   `koanf:"offset_name"`
	MinRefereeMatches   int      `koanf:"min_referee_matches"`
	MinZoneEvents       int      `koanf:"min_zone_events"`
	SignificanceAlpha   float64  `koanf:"significance_alpha"`
	Dispersion          float64  `koanf:"dispersion"`
	MaxIter             int      `koanf:"max_iter"`
	Tol                 float64  `koanf:"tol"`
}

// Config is the full runtime configuration.
type Config struct {
	DBPath            string           `koanf:"db_path"`
	LogLevel          string           `koanf:"log_level"`
	CardTreatment     string           `koanf:"card_treatment"`
	LongPassThreshold float64          `koanf:"long_pass_threshold"`
	CounterPatterns   []string         `koanf:"counter_patterns"`
	Modeling          Modeling         `koanf:"modeling"`
	Thresholds        style.Thresholds `koanf:"thresholds"`
}

// New returns the default configuration.
func New() *Config {
	opts := zonemodel.DefaultOptions()
	return &Config{
		DBPath:            "refmetrics.db",
		LogLevel:          "info",
		CardTreatment:     string(discipline.CardTreatmentSeparate),
		LongPassThreshold: 30.0,
		CounterPatterns:   []string{"From Counter"},
		Modeling: Modeling{
			BaseFeatures:        opts.BaseFeatures,
			InteractionFeatures: opts.InteractionFeatures,
			OffsetName:          opts.OffsetName,
			MinRefereeMatches:   opts.MinRefereeMatches,
			MinZoneEvents:       opts.MinZoneEvents,
			SignificanceAlpha:   opts.SignificanceAlpha,
			Dispersion:          opts.Dispersion,
			MaxIter:             opts.MaxIter,
			Tol:                 opts.Tol,
		},
		Thresholds: style.DefaultThresholds(),
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and env
// vars. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if path or REFMETRICS_CONFIG is set
//  3. env (prefix REFMETRICS_)
func Load(path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("REFMETRICS_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Environment variables: REFMETRICS_DB_PATH, REFMETRICS_LOG_LEVEL, ...
	// Keys stay flat and lowercased to match the koanf tags; a double
	// underscore descends into nested sections, e.g.
	// REFMETRICS_MODELING__MIN_ZONE_EVENTS -> modeling.min_zone_events.
	envProvider := env.Provider("REFMETRICS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "refmetrics_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	switch discipline.CardTreatment(c.CardTreatment) {
	case discipline.CardTreatmentSeparate, discipline.CardTreatmentRedOnly:
	default:
		return fmt.Errorf("unknown card_treatment %q", c.CardTreatment)
	}
	if c.Modeling.MinRefereeMatches < 1 {
		return errors.New("modeling.min_referee_matches must be at least 1")
	}
	if c.Modeling.MinZoneEvents < 0 {
		return errors.New("modeling.min_zone_events must not be negative")
	}
	if c.Modeling.SignificanceAlpha <= 0 || c.Modeling.SignificanceAlpha >= 1 {
		return errors.New("modeling.significance_alpha must be in (0,1)")
	}
	if c.Modeling.Dispersion <= 0 {
		return errors.New("modeling.dispersion must be positive")
	}
	return nil
}

// ModelerOptions converts the modeling section into zonemodel options.
func (c *Config) ModelerOptions() zonemodel.Options {
	return zonemodel.Options{
		BaseFeatures:        c.Modeling.BaseFeatures,
		InteractionFeatures: c.Modeling.InteractionFeatures,
		OffsetName:          c.Modeling.OffsetName,
		MinRefereeMatches:   c.Modeling.MinRefereeMatches,
		MinZoneEvents:       c.Modeling.MinZoneEvents,
		SignificanceAlpha:   c.Modeling.SignificanceAlpha,
		Dispersion:          c.Modeling.Dispersion,
		MaxIter:             c.Modeling.MaxIter,
		Tol:                 c.Modeling.Tol,
	}
}
