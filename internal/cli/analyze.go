package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/ipeds-prospector/internal/config"
	"github.com/vijay-prabhu/ipeds-prospector/internal/database"
	"github.com/vijay-prabhu/ipeds-prospector/internal/output"
	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

var needCmd = &cobra.Command{
	Use:   "need",
	Short: "Rank non-customers by need score",
	Long: `Rank non-customer institutions by a composite need score: the sum of
z-scored features (diversity indices, Pell share, distance education,
enrollment), with diversity sign-flipped so that less diverse campuses
score higher.

Scores are relative to the eligible non-customer pool.

Examples:
  prospector need
  prospector need --top 25 -o json`,
	RunE: runNeed,
}

var penetrationCmd = &cobra.Command{
	Use:   "penetration",
	Short: "Rank regions by market penetration",
	Long: `Count customers and non-customers per region (state by default) and
rank regions by ascending penetration: regions with the smallest share of
customers come first.

Examples:
  prospector penetration
  prospector penetration --top 10`,
	RunE: runPenetration,
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find each non-customer's most similar customer",
	Long: `Normalize the similarity features by the customer column norms, compute
the squared distance between every customer and non-customer, and list
non-customers closest to an existing customer first.

Examples:
  prospector match
  prospector match --top 50 -o json`,
	RunE: runMatch,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all three approaches",
	Long: `Run the need, penetration and matching approaches and print a combined
report. With --save the report is stored in the SQLite catalog.

Examples:
  prospector run
  prospector run --top 100 --save --label "fall 2026"`,
	RunE: runAll,
}

var (
	topN     int
	runSave  bool
	runLabel string
)

func init() {
	for _, cmd := range []*cobra.Command{needCmd, penetrationCmd, matchCmd, runCmd} {
		rootCmd.AddCommand(cmd)
		cmd.Flags().IntVarP(&topN, "top", "n", -1, "number of rows to keep (0 = all; default analysis.top_n)")
	}
	runCmd.Flags().BoolVar(&runSave, "save", false, "Save the report to the SQLite catalog")
	runCmd.Flags().StringVar(&runLabel, "label", "", "Label stored with a saved report")
}

// analysis loads the config and inputs and builds the pipeline
func analysis() (*pipeline.Pipeline, *config.Config, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	logger.Debug("loading inputs",
		slog.String("institutions", cfg.Data.InstitutionsPath),
		slog.String("roster", cfg.Data.RosterPath),
	)
	in, err := pipeline.LoadInputs(cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.New(in, opts, logger)
}

func rowLimit(cfg *config.Config) int {
	if topN >= 0 {
		return topN
	}
	return cfg.Analysis.TopN
}

func runNeed(cmd *cobra.Command, args []string) error {
	p, cfg, err := analysis()
	if err != nil {
		return err
	}

	res, err := p.Need(rowLimit(cfg))
	if err != nil {
		return err
	}
	res.Warnings = append(p.Warnings(), res.Warnings...)
	return output.Output(cfg.Output.Format, res)
}

func runPenetration(cmd *cobra.Command, args []string) error {
	p, cfg, err := analysis()
	if err != nil {
		return err
	}

	res, err := p.Penetration(rowLimit(cfg))
	if err != nil {
		return err
	}
	NewTerminal().Warnings(p.Warnings())
	return output.Output(cfg.Output.Format, res)
}

func runMatch(cmd *cobra.Command, args []string) error {
	p, cfg, err := analysis()
	if err != nil {
		return err
	}

	res, err := p.Match(rowLimit(cfg))
	if err != nil {
		return err
	}
	res.Warnings = append(p.Warnings(), res.Warnings...)
	return output.Output(cfg.Output.Format, res)
}

func runAll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, cfg, err := analysis()
	if err != nil {
		return err
	}

	report, err := p.Run(rowLimit(cfg))
	if err != nil {
		return err
	}

	if err := output.Output(cfg.Output.Format, report); err != nil {
		return err
	}

	if !runSave {
		return nil
	}

	run, err := saveReport(ctx, cfg, report, runLabel)
	if err != nil {
		return err
	}
	NewTerminal().Success("Saved run %s to %s", run.ID, cfg.Database.Path)
	return nil
}

// saveReport stores the report in the SQLite catalog
func saveReport(ctx context.Context, cfg *config.Config, report *pipeline.Report, label string) (*database.Run, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var l *string
	if label != "" {
		l = &label
	}
	run, err := db.SaveReport(ctx, report, l)
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	return run, nil
}
