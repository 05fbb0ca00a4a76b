package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/ipeds-prospector/internal/config"
	"github.com/vijay-prabhu/ipeds-prospector/internal/database"
	"github.com/vijay-prabhu/ipeds-prospector/internal/export"
	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
	"github.com/vijay-prabhu/ipeds-prospector/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a report to CSV, Excel, SQLite or Google Sheets",
	Long: `Run all three approaches and export the report, or export a run saved
with 'prospector run --save'.

Supported formats:
  - csv:    one file per table in the export directory
  - xlsx:   a single workbook with one sheet per table
  - sqlite: store the report in the run catalog
  - sheets: publish to a Google Sheets spreadsheet (one tab per table)

Examples:
  prospector export --format=csv --dir out/
  prospector export --format=xlsx --top 250
  prospector export --format=sheets --run 3f2a9c1e-...`,
	RunE: runExport,
}

var (
	exportFormat string
	exportDir    string
	exportRunID  string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Export format (csv, xlsx, sqlite, sheets); default export.format")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory for csv and xlsx; default export.dir")
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "Export a saved run instead of running the analysis")
	exportCmd.Flags().IntVarP(&topN, "top", "n", -1, "number of rows to keep (0 = all; default analysis.top_n)")
	exportCmd.Flags().StringVar(&runLabel, "label", "", "Label stored with a sqlite export")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if exportFormat != "" {
		cfg.Export.Format = exportFormat
	}
	if exportDir != "" {
		cfg.Export.Dir = exportDir
	}

	report, err := exportReport(ctx, cfg, logger)
	if err != nil {
		return err
	}

	term := NewTerminal()
	term.Warnings(report.Warnings)

	switch cfg.Export.Format {
	case "csv":
		paths, err := export.WriteCSV(cfg.Export.Dir, report)
		if err != nil {
			return fmt.Errorf("failed to export csv: %w", err)
		}
		for _, p := range paths {
			term.Note("wrote %s", p)
		}
		term.Success("Exported %d files to %s", len(paths), cfg.Export.Dir)
	case "xlsx":
		path, err := export.WriteXLSX(cfg.Export.Dir, report)
		if err != nil {
			return fmt.Errorf("failed to export workbook: %w", err)
		}
		term.Success("Exported workbook to %s", path)
	case "sqlite":
		if exportRunID != "" {
			return fmt.Errorf("run %s is already in the catalog", exportRunID)
		}
		run, err := saveReport(ctx, cfg, report, runLabel)
		if err != nil {
			return err
		}
		term.Success("Saved run %s to %s", run.ID, cfg.Database.Path)
	case "sheets":
		res, err := publishSheets(ctx, cfg, report, logger)
		if err != nil {
			return err
		}
		term.Success("Published %d rows to %s", res.Rows, res.URL)
		if cfg.Sheets.SpreadsheetID == "" {
			term.Note("set sheets.spreadsheet_id = %q to update this spreadsheet next time", res.SpreadsheetID)
		}
	default:
		return fmt.Errorf("unknown format: %s (use csv, xlsx, sqlite or sheets)", cfg.Export.Format)
	}
	return nil
}

// exportReport loads the saved run named by --run, or runs the analysis
func exportReport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Report, error) {
	if exportRunID == "" {
		p, err := buildPipeline(cfg, logger)
		if err != nil {
			return nil, err
		}
		return p.Run(rowLimit(cfg))
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	report, err := db.LoadReport(ctx, exportRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if report == nil {
		return nil, fmt.Errorf("run not found: %s", exportRunID)
	}
	return report, nil
}

func publishSheets(ctx context.Context, cfg *config.Config, report *pipeline.Report, logger *slog.Logger) (*sheets.Result, error) {
	client, err := sheets.Client(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.TokenPath, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize Google Sheets: %w", err)
	}

	pub, err := sheets.NewPublisher(ctx, client, sheets.Config{
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		Title:         cfg.Sheets.Title,
	}, logger)
	if err != nil {
		return nil, err
	}

	res, err := pub.Publish(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("failed to publish report: %w", err)
	}
	return res, nil
}
