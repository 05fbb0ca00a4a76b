package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Print the config file. With --effective, print the configuration after
defaults, PROSPECTOR_* environment overrides and path expansion.`,
	RunE: runConfigShow,
}

var configShowEffective bool

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().BoolVar(&configShowEffective, "effective", false, "Show the resolved configuration")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Dir(configPath)
	dataDir := filepath.Join(home, ".local", "share", "prospector")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file already exists at %s\n", configPath)
		fmt.Println("Use 'prospector config show' to view current configuration")
		return nil
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Download an IPEDS Data Center extract as CSV and set data.institutions_path")
	fmt.Println("  2. Export your customer roster (tab separated, with an IPEDS_UnitID column)")
	fmt.Println("     and set data.roster_path")
	fmt.Println("  3. Run 'prospector run' to rank prospects")
	fmt.Println()
	fmt.Println("To publish to Google Sheets, save OAuth client credentials to")
	fmt.Printf("  %s/credentials.json\n", configDir)

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if configShowEffective {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Printf("# Effective config (from %s)\n\n", configPath)
		fmt.Println(string(data))
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No config file found. Run 'prospector config init' to create one.")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	fmt.Printf("# Config file: %s\n\n", configPath)
	fmt.Println(string(data))
	return nil
}

// Feature, diversity and need column lists default to the IPEDS 2020
// extract labels. Run 'prospector config show --effective' to see them.
const defaultConfig = `# prospector configuration

[data]
institutions_path = "data/ipeds_2020.csv"
roster_path = "data/customers.tsv"
roster_id_column = "IPEDS_UnitID"
roster_delimiter = "\t"
# drop roster IDs outside the eligible set instead of failing
allow_ineligible = false

[columns]
id = "UnitID"
name = "Institution Name"
city = "City location of institution (HD2020)"
state = "State abbreviation (HD2020)"
zip = "ZIP code (HD2020)"

[eligibility]
control_column = "Institutional control or affiliation (IC2020)"
control_codes = [1, 3, 4]  # public, private nonprofit (religious and not)
undergraduate_column = "Undergraduate offering (HD2020)"
active_column = "Institution is active in current year (HD2020)"

[diversity]
zero_total = "error"  # or "exclude"

[penetration]
region_column = "State abbreviation (HD2020)"

[matching]
features = ["enrollment", "pct_pell", "pct_aid", "tuition", "grad_rate"]
max_matrix_cells = 50000000

[analysis]
top_n = 100

[output]
format = "table"  # table, json

[export]
dir = "prospector-out"
format = "csv"  # csv, xlsx, sqlite, sheets

[database]
path = "~/.local/share/prospector/prospector.db"

[sheets]
credentials_path = "~/.config/prospector/credentials.json"
token_path = "~/.config/prospector/token.json"
spreadsheet_id = ""  # empty creates a new spreadsheet
title = "IPEDS outreach priorities"

[logging]
level = "info"      # debug, info, warn, error
format = "console"  # console, json
`
