package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/refmetrics/internal/dataset"
	"github.com/pitchside/refmetrics/internal/model"
	"github.com/pitchside/refmetrics/internal/report"
	"github.com/pitchside/refmetrics/internal/zonemodel"
)

var (
	reportFeature     string
	reportReferee     string
	reportSignificant bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report on fitted zone models",
}

var slopesCmd = &cobra.Command{
	Use:   "slopes",
	Short: "Referee x feature interaction slopes across zones",
	Args:  cobra.NoArgs,
	RunE:  runSlopes,
}

var effectsCmd = &cobra.Command{
	Use:   "effects",
	Short: "Referee fixed effects across zones",
	Args:  cobra.NoArgs,
	RunE:  runEffects,
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Fit quality summary across zones",
	Args:  cobra.NoArgs,
	RunE:  runDiagnostics,
}

func init() {
	for _, c := range []*cobra.Command{slopesCmd, effectsCmd} {
		c.Flags().StringVar(&reportReferee, "referee", "", "filter to one referee")
		c.Flags().BoolVar(&reportSignificant, "significant", false, "show significant terms only")
	}
	slopesCmd.Flags().StringVar(&reportFeature, "feature", "", "filter to one interaction feature")

	reportCmd.AddCommand(slopesCmd)
	reportCmd.AddCommand(effectsCmd)
	reportCmd.AddCommand(diagnosticsCmd)
}

func runSlopes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	models, err := loadStoredModels(db)
	if err != nil {
		return err
	}

	slopes := zonemodel.Slopes(models, cfg.Modeling.SignificanceAlpha)
	var filtered []model.RefereeSlope
	for _, s := range slopes {
		// Slopes carry raw feature names; accept the z_ form too.
		if reportFeature != "" && s.Feature != dataset.RawName(reportFeature) {
			continue
		}
		if reportReferee != "" && s.RefereeName != reportReferee {
			continue
		}
		if reportSignificant && !s.Significant {
			continue
		}
		filtered = append(filtered, s)
	}
	if len(filtered) == 0 {
		fmt.Fprintln(os.Stdout, "no matching slopes")
		return nil
	}
	report.PrintSlopes(os.Stdout, filtered)
	return nil
}

func runEffects(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	models, err := loadStoredModels(db)
	if err != nil {
		return err
	}

	effects := zonemodel.Effects(models, cfg.Modeling.SignificanceAlpha)
	var filtered []model.RefereeEffect
	for _, e := range effects {
		if reportReferee != "" && e.RefereeName != reportReferee {
			continue
		}
		if reportSignificant && !e.Significant {
			continue
		}
		filtered = append(filtered, e)
	}
	if len(filtered) == 0 {
		fmt.Fprintln(os.Stdout, "no matching effects")
		return nil
	}
	report.PrintEffects(os.Stdout, filtered)
	return nil
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	models, err := loadStoredModels(db)
	if err != nil {
		return err
	}
	report.PrintDiagnostics(os.Stdout, models, cfg.Modeling.SignificanceAlpha)
	return nil
}
