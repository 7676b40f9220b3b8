package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/refmetrics/internal/report"
)

var listArchetypes bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored matches (or archetypes with --archetypes)",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listArchetypes, "archetypes", false, "list stored archetype labels instead of matches")
	listCmd.Flags().StringVar(&categorizeTeam, "team", "", "limit archetype listing to one team")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if listArchetypes {
		stored, err := db.GetArchetypes(categorizeTeam)
		if err != nil {
			return fmt.Errorf("load archetypes: %w", err)
		}
		if len(stored) == 0 {
			fmt.Fprintln(os.Stdout, "no archetypes stored; run categorize first")
			return nil
		}
		listings := make([]report.ArchetypeListing, 0, len(stored))
		for _, s := range stored {
			listings = append(listings, report.ArchetypeListing{
				MatchID:   s.MatchID,
				MatchDate: s.MatchDate,
				Team:      s.Team,
				Opponent:  s.Opponent,
				Tags:      s.Tags,
			})
		}
		report.PrintArchetypes(os.Stdout, listings)
		return nil
	}

	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "no matches stored; run build first")
		return nil
	}
	report.PrintMatchList(os.Stdout, matches)
	return nil
}
