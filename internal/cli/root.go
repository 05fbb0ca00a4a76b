package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/ipeds-prospector/internal/config"
	"github.com/vijay-prabhu/ipeds-prospector/internal/logging"
)

var (
	// Version info set from main
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global flags
	configPath string
	outputFmt  string
	logLevel   string
	logFormat  string
	envFile    string
)

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c, b string) {
	version = v
	commit = c
	buildTime = b
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "prospector",
	Short: "Prioritize universities for sales outreach from IPEDS data",
	Long: `prospector ranks non-customer universities for outreach using an IPEDS
statistics extract and your customer roster.

It provides three independent rankings:
  - need:        standardized need score (diversity, aid, distance ed, size)
  - penetration: states with the lowest share of customers
  - match:       each non-customer's most similar current customer

Results can be exported to CSV, Excel, a SQLite catalog or Google Sheets.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: ~/.config/prospector/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "",
		"output format (table, json); overrides output.format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error); overrides logging.level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format (console, json); overrides logging.format")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"file of PROSPECTOR_* overrides loaded before the config")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		configPath = filepath.Join(home, ".config", "prospector", "config.toml")
	}
}

// loadConfig loads the config file, applies flag overrides and installs
// the logger
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if outputFmt != "" {
		cfg.Output.Format = outputFmt
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid logging flags: %w", err)
	}
	return cfg, logger, nil
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("prospector %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", buildTime)
	},
}
