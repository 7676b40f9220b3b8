package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/refmetrics/internal/model"
	"github.com/pitchside/refmetrics/internal/report"
	"github.com/pitchside/refmetrics/internal/storage"
	"github.com/pitchside/refmetrics/internal/zonemodel"
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit the 15 zone foul models over the stored dataset",
	Args:  cobra.NoArgs,
	RunE:  runFit,
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.GetFeatureRows()
	if err != nil {
		return fmt.Errorf("load feature rows: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no feature rows stored; run build first")
	}

	modeler := zonemodel.NewModeler(log, cfg.ModelerOptions())
	res, err := modeler.Fit(rows)
	if err != nil {
		return fmt.Errorf("fit zone models: %w", err)
	}

	if err := db.SaveZoneModels(res.Models); err != nil {
		return fmt.Errorf("store zone models: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Fitted %d/%d zones over %d rows (%d referees, %d dropped for low match counts).\n\n",
		len(res.Models), len(res.Statuses), res.RowsUsed, len(res.RefereeLevels), len(res.RefereesDropped))
	for _, status := range res.Statuses {
		if !status.Fitted {
			fmt.Fprintf(os.Stdout, "  %s skipped: %s\n", status.Zone, status.Reason)
		}
	}
	report.PrintDiagnostics(os.Stdout, res.Models, cfg.Modeling.SignificanceAlpha)
	return nil
}

// loadStoredModels fetches the persisted zone models, failing when no fit has
// been run yet.
func loadStoredModels(db *storage.DB) (map[model.ZoneID]*model.ZoneModel, error) {
	models, err := db.LoadZoneModels()
	if err != nil {
		return nil, fmt.Errorf("load zone models: %w", err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no zone models stored; run fit first")
	}
	return models, nil
}
