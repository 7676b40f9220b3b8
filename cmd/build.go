package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/refmetrics/internal/config"
	"github.com/pitchside/refmetrics/internal/dataset"
	"github.com/pitchside/refmetrics/internal/discipline"
	"github.com/pitchside/refmetrics/internal/loader"
)

var buildKeepInvalid bool

var buildCmd = &cobra.Command{
	Use:   "build <matches.json | match-dir>",
	Short: "Extract feature rows from match event files and store them",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildKeepInvalid, "keep-invalid", false,
		"store rows that fail feature validation instead of dropping them")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := loader.New(log).Load(args[0])
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no matches found in %s", args[0])
	}

	builder := newBuilder(cfg)
	rows, dataErrs := builder.Build(matches)
	for i := range dataErrs {
		log.Warn(dataErrs[i].Error())
	}
	if !buildKeepInvalid && len(dataErrs) > 0 {
		invalid := make(map[string]bool, len(dataErrs))
		for i := range dataErrs {
			invalid[fmt.Sprintf("%d/%s", dataErrs[i].MatchID, dataErrs[i].Team)] = true
		}
		kept := rows[:0]
		for i := range rows {
			if !invalid[fmt.Sprintf("%d/%s", rows[i].MatchID, rows[i].Team)] {
				kept = append(kept, rows[i])
			}
		}
		rows = kept
	}

	if err := db.InsertMatches(matches); err != nil {
		return fmt.Errorf("store matches: %w", err)
	}
	if err := db.InsertFeatureRows(rows); err != nil {
		return fmt.Errorf("store feature rows: %w", err)
	}

	// Standardized columns are recomputed over the full stored dataset so
	// z-scores stay consistent across incremental builds.
	all, err := db.GetFeatureRows()
	if err != nil {
		return fmt.Errorf("reload feature rows: %w", err)
	}
	dataset.Standardize(all, dataset.DefaultStandardizeFeatures())
	if err := db.InsertFeatureRows(all); err != nil {
		return fmt.Errorf("store standardized rows: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Stored %d matches, %d feature rows (%d invalid, kept=%t). Dataset now holds %d rows.\n",
		len(matches), len(rows), len(dataErrs), buildKeepInvalid, len(all))
	return nil
}

func newBuilder(cfg *config.Config) *dataset.Builder {
	builder := dataset.NewBuilder(log)
	builder.Extractor.LongPassThreshold = cfg.LongPassThreshold
	builder.Extractor.CounterPatterns = cfg.CounterPatterns
	builder.Analyzer.CardTreatment = discipline.CardTreatment(cfg.CardTreatment)
	return builder
}
