package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/refmetrics/internal/config"
	"github.com/pitchside/refmetrics/internal/loader"
	"github.com/pitchside/refmetrics/internal/report"
	"github.com/pitchside/refmetrics/internal/style"
)

var categorizeTeam string

var categorizeCmd = &cobra.Command{
	Use:   "categorize [match.json | match-dir]",
	Short: "Derive tactical archetypes for stored feature rows, or label a match file directly",
	Long: "With no argument, categorizes every stored feature row and persists the\n" +
		"archetype columns. With a match file or directory, labels both teams of each\n" +
		"match without touching the store.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCategorize,
}

func init() {
	categorizeCmd.Flags().StringVar(&categorizeTeam, "team", "", "limit to one team")
}

func runCategorize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		listings, err := categorizeFile(cfg, args[0])
		if err != nil {
			return err
		}
		if len(listings) == 0 {
			return fmt.Errorf("no team-match rows to categorize in %s", args[0])
		}
		report.PrintArchetypes(os.Stdout, listings)
		return nil
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

	categorizer := &style.Categorizer{T: cfg.Thresholds}
	var listings []report.ArchetypeListing
	for i := range rows {
		row := &rows[i]
		if categorizeTeam != "" && row.Team != categorizeTeam {
			continue
		}
		tags := categorizer.Categorize(row)
		if err := db.SetArchetype(row.MatchID, row.Team, &tags); err != nil {
			return fmt.Errorf("store archetype: %w", err)
		}
		listings = append(listings, report.ArchetypeListing{
			MatchID:   row.MatchID,
			MatchDate: row.MatchDate,
			Team:      row.Team,
			Opponent:  row.Opponent,
			Tags:      tags,
		})
	}
	if len(listings) == 0 {
		return fmt.Errorf("no feature rows to categorize")
	}

	report.PrintArchetypes(os.Stdout, listings)
	return nil
}

// categorizeFile extracts and labels the teams of a match file or directory
// without opening the database.
func categorizeFile(cfg *config.Config, path string) ([]report.ArchetypeListing, error) {
	matches, err := loader.New(log).Load(path)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}

	rows, dataErrs := newBuilder(cfg).Build(matches)
	for i := range dataErrs {
		log.Warn(dataErrs[i].Error())
	}

	categorizer := &style.Categorizer{T: cfg.Thresholds}
	var listings []report.ArchetypeListing
	for i := range rows {
		row := &rows[i]
		if categorizeTeam != "" && row.Team != categorizeTeam {
			continue
		}
		listings = append(listings, report.ArchetypeListing{
			MatchID:   row.MatchID,
			MatchDate: row.MatchDate,
			Team:      row.Team,
			Opponent:  row.Opponent,
			Tags:      categorizer.Categorize(row),
		})
	}
	return listings, nil
}
