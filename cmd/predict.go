package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pitchside/refmetrics/internal/report"
	"github.com/pitchside/refmetrics/internal/zonemodel"
)

var predictCmd = &cobra.Command{
	Use:   "predict <match-id> <team>",
	Short: "Predict expected zone foul counts for a stored feature row",
	Args:  cobra.ExactArgs(2),
	RunE:  runPredict,
}

func runPredict(cmd *cobra.Command, args []string) error {
	matchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid match id %q", args[0])
	}
	team := args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	row, err := db.GetFeatureRow(matchID, team)
	if err != nil {
		return fmt.Errorf("load feature row: %w", err)
	}
	if row == nil {
		return fmt.Errorf("no feature row for match %d team %s", matchID, team)
	}

	models, err := loadStoredModels(db)
	if err != nil {
		return err
	}

	preds, err := zonemodel.Predict(models, row)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\nExpected fouls for %s in match %d (referee %s):\n\n",
		row.Team, row.MatchID, row.RefereeName)
	report.PrintPredictions(os.Stdout, preds)
	return nil
}
