package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/ipeds-prospector/internal/database"
	"github.com/vijay-prabhu/ipeds-prospector/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved runs",
	Long: `List runs saved with 'prospector run --save' or 'prospector export --format=sqlite'.

Examples:
  prospector history
  prospector history --limit 5
  prospector history show 3f2a9c1e
  prospector history delete 3f2a9c1e`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved report",
	Long: `Show a saved report. The identifier can be the full run ID or a unique
prefix of it.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of runs to show (0 = all)")
}

func openCatalog() (*database.DB, string, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return db, cfg.Output.Format, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, format, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, database.ListOptions{Limit: historyLimit})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 && format != "json" {
		fmt.Println("No saved runs. Use 'prospector run --save' to store one.")
		return nil
	}
	return output.Output(format, runs)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, format, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := resolveRunID(ctx, db, args[0])
	if err != nil {
		return err
	}

	report, err := db.LoadReport(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if report == nil {
		return fmt.Errorf("run not found: %s", args[0])
	}
	return output.Output(format, report)
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, _, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := resolveRunID(ctx, db, args[0])
	if err != nil {
		return err
	}
	if err := db.DeleteRun(ctx, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	NewTerminal().Success("Deleted run %s", id)
	return nil
}

// resolveRunID accepts a full run ID or a unique prefix
func resolveRunID(ctx context.Context, db *database.DB, identifier string) (string, error) {
	run, err := db.GetRun(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}
	if run != nil {
		return run.ID, nil
	}

	runs, err := db.ListRuns(ctx, database.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}

	var matches []string
	for _, r := range runs {
		if strings.HasPrefix(r.ID, identifier) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run not found: %s", identifier)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run prefix %q is ambiguous (%d runs)", identifier, len(matches))
	}
}
