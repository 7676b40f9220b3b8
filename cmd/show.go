package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pitchside/refmetrics/internal/report"
	"github.com/pitchside/refmetrics/internal/style"
)

var showCmd = &cobra.Command{
	Use:   "show <match-id> <team>",
	Short: "Show one team's features, foul grid, and archetype for a match",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
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

	report.PrintFeatureRow(os.Stdout, row)
	fmt.Fprintln(os.Stdout, "\nFoul locations (team attacking left to right):")
	report.PrintFoulGrid(os.Stdout, row)

	categorizer := &style.Categorizer{T: cfg.Thresholds}
	tags := categorizer.Categorize(row)
	fmt.Fprintf(os.Stdout, "\nArchetype: %s\n", tags.Archetype)
	fmt.Fprintf(os.Stdout, "Axes: %s | %s | %s | %s | %s\n",
		tags.Pressing, tags.Block, tags.PossessionDirectness, tags.Width, tags.Transition)
	if len(tags.Overlays) > 0 {
		fmt.Fprintf(os.Stdout, "Overlays: %s\n", strings.Join(tags.Overlays, ", "))
	}
	return nil
}
