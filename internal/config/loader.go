package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PROSPECTOR_"

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand path
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	// Read file
	data, err := os.ReadFile(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'prospector config init' to create)", expandedPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes TOML on top of the defaults, applies environment
// overrides and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	// Expand paths in config
	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides paths and a few scalars from PROSPECTOR_* variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"INSTITUTIONS":       &c.Data.InstitutionsPath,
		"ROSTER":             &c.Data.RosterPath,
		"DB":                 &c.Database.Path,
		"EXPORT_DIR":         &c.Export.Dir,
		"SHEETS_CREDENTIALS": &c.Sheets.CredentialsPath,
		"SHEETS_TOKEN":       &c.Sheets.TokenPath,
		"SPREADSHEET_ID":     &c.Sheets.SpreadsheetID,
		"LOG_LEVEL":          &c.Logging.Level,
		"LOG_FORMAT":         &c.Logging.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "TOP_N"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sTOP_N: %w", EnvPrefix, err)
		}
		c.Analysis.TopN = n
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.Data.InstitutionsPath,
		&c.Data.RosterPath,
		&c.Export.Dir,
		&c.Database.Path,
		&c.Sheets.CredentialsPath,
		&c.Sheets.TokenPath,
	} {
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// RosterDelimiter returns the roster field separator as a rune
func (c *Config) RosterDelimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Data.RosterDelimiter)
	if r == utf8.RuneError {
		return '\t'
	}
	return r
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Data validation
	if c.Data.InstitutionsPath == "" {
		errs = append(errs, errors.New("data.institutions_path is required"))
	}
	if c.Data.RosterPath == "" {
		errs = append(errs, errors.New("data.roster_path is required"))
	}
	if c.Data.RosterIDColumn == "" {
		errs = append(errs, errors.New("data.roster_id_column is required"))
	}
	if utf8.RuneCountInString(c.Data.RosterDelimiter) > 1 {
		errs = append(errs, fmt.Errorf("data.roster_delimiter must be a single character, got %q", c.Data.RosterDelimiter))
	}
	if c.Columns.ID == "" {
		errs = append(errs, errors.New("columns.id is required"))
	}

	// Feature mappings
	short := make(map[string]bool)
	raw := make(map[string]bool)
	for i, m := range c.Features.Columns {
		if m.From == "" || m.To == "" {
			errs = append(errs, fmt.Errorf("features.columns[%d] needs both from and to", i))
			continue
		}
		if raw[m.From] {
			errs = append(errs, fmt.Errorf("features.columns: duplicate source column %q", m.From))
		}
		if short[m.To] {
			errs = append(errs, fmt.Errorf("features.columns: duplicate feature name %q", m.To))
		}
		raw[m.From] = true
		short[m.To] = true
	}

	// Diversity validation
	if c.Diversity.ZeroTotal != ZeroTotalError && c.Diversity.ZeroTotal != ZeroTotalExclude {
		errs = append(errs, fmt.Errorf("diversity.zero_total must be 'error' or 'exclude', got '%s'", c.Diversity.ZeroTotal))
	}
	derived := make(map[string]bool)
	for _, g := range c.Diversity.Groups {
		if g.Name == "" {
			errs = append(errs, errors.New("diversity.groups: name is required"))
			continue
		}
		if len(g.Columns) < 2 {
			errs = append(errs, fmt.Errorf("diversity group %q needs at least two count columns", g.Name))
		}
		for _, col := range g.Columns {
			if !short[col.From] {
				errs = append(errs, fmt.Errorf("diversity group %q: %q is not a feature name", g.Name, col.From))
			}
		}
		derived[g.Name] = true
	}

	// Need validation
	if len(c.Need.Features) == 0 {
		errs = append(errs, errors.New("need.features must list at least one feature"))
	}
	for _, f := range c.Need.Features {
		if !short[f.Column] && !derived[f.Column] {
			errs = append(errs, fmt.Errorf("need feature %q is neither a feature name nor a diversity group", f.Column))
		}
		if f.Standardized == "" {
			errs = append(errs, fmt.Errorf("need feature %q needs a standardized name", f.Column))
		}
	}

	// Penetration validation
	if c.Penetration.RegionColumn == "" {
		errs = append(errs, errors.New("penetration.region_column is required"))
	}

	// Matching validation
	if len(c.Matching.Features) == 0 {
		errs = append(errs, errors.New("matching.features must list at least one feature"))
	}
	for _, f := range c.Matching.Features {
		if !short[f] {
			errs = append(errs, fmt.Errorf("matching feature %q is not a feature name", f))
		}
	}
	if c.Matching.MaxMatrixCells < 0 {
		errs = append(errs, errors.New("matching.max_matrix_cells must not be negative"))
	}

	if c.Analysis.TopN < 0 {
		errs = append(errs, errors.New("analysis.top_n must not be negative"))
	}

	validOutput := map[string]bool{"table": true, "json": true}
	if !validOutput[c.Output.Format] {
		errs = append(errs, fmt.Errorf("output.format must be 'table' or 'json', got '%s'", c.Output.Format))
	}
	validExport := map[string]bool{"csv": true, "xlsx": true, "sqlite": true, "sheets": true}
	if !validExport[c.Export.Format] {
		errs = append(errs, fmt.Errorf("export.format must be one of csv, xlsx, sqlite, sheets, got '%s'", c.Export.Format))
	}

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got '%s'", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be 'console' or 'json', got '%s'", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EnsureDirectories creates necessary directories for the database and token
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.Path),
		filepath.Dir(c.Sheets.TokenPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
