package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Analysis.TopN != 100 {
		t.Errorf("expected TopN=100, got %d", cfg.Analysis.TopN)
	}

	if cfg.Data.RosterIDColumn != "IPEDS_UnitID" {
		t.Errorf("expected RosterIDColumn=IPEDS_UnitID, got %s", cfg.Data.RosterIDColumn)
	}

	if cfg.Diversity.ZeroTotal != ZeroTotalError {
		t.Errorf("expected ZeroTotal=error, got %s", cfg.Diversity.ZeroTotal)
	}

	if cfg.Penetration.RegionColumn != cfg.Columns.State {
		t.Errorf("expected region column to default to the state column, got %s", cfg.Penetration.RegionColumn)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid zero_total policy",
			modify: func(c *Config) {
				c.Diversity.ZeroTotal = "zero"
			},
			wantErr: true,
		},
		{
			name: "duplicate feature name",
			modify: func(c *Config) {
				c.Features.Columns = append(c.Features.Columns, ColumnMapping{From: "Other", To: "enrollment"})
			},
			wantErr: true,
		},
		{
			name: "need feature unknown",
			modify: func(c *Config) {
				c.Need.Features[0].Column = "missing"
			},
			wantErr: true,
		},
		{
			name: "matching feature unknown",
			modify: func(c *Config) {
				c.Matching.Features = []string{"gender_diversity"}
			},
			wantErr: true,
		},
		{
			name: "diversity group with one column",
			modify: func(c *Config) {
				c.Diversity.Groups[0].Columns = c.Diversity.Groups[0].Columns[:1]
			},
			wantErr: true,
		},
		{
			name: "negative top_n",
			modify: func(c *Config) {
				c.Analysis.TopN = -1
			},
			wantErr: true,
		},
		{
			name: "invalid output format",
			modify: func(c *Config) {
				c.Output.Format = "yaml"
			},
			wantErr: true,
		},
		{
			name: "invalid export format",
			modify: func(c *Config) {
				c.Export.Format = "parquet"
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			wantErr: true,
		},
		{
			name: "multi-character delimiter",
			modify: func(c *Config) {
				c.Data.RosterDelimiter = "||"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
[data]
institutions_path = "stats.csv"
roster_delimiter = ","

[penetration]
region_column = "County name (HD2020)"

[matching]
features = ["enrollment", "tuition"]
max_matrix_cells = 1000
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Data.InstitutionsPath != "stats.csv" {
		t.Errorf("InstitutionsPath = %q, want stats.csv", cfg.Data.InstitutionsPath)
	}
	if cfg.RosterDelimiter() != ',' {
		t.Errorf("RosterDelimiter() = %q, want ','", cfg.RosterDelimiter())
	}
	if cfg.Penetration.RegionColumn != "County name (HD2020)" {
		t.Errorf("RegionColumn = %q", cfg.Penetration.RegionColumn)
	}
	if len(cfg.Matching.Features) != 2 || cfg.Matching.MaxMatrixCells != 1000 {
		t.Errorf("matching = %+v", cfg.Matching)
	}
	// untouched sections keep their defaults
	if cfg.Data.RosterPath != Default().Data.RosterPath {
		t.Errorf("RosterPath = %q, want default", cfg.Data.RosterPath)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("[diversity]\nzero_total = \"coerce\"\n")); err == nil {
		t.Error("expected validation error")
	}
	if _, err := Parse([]byte("not toml = = =")); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PROSPECTOR_ROSTER":    "/tmp/roster.tsv",
		"PROSPECTOR_TOP_N":     "25",
		"PROSPECTOR_LOG_LEVEL": "debug",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv() error: %v", err)
	}

	if cfg.Data.RosterPath != "/tmp/roster.tsv" {
		t.Errorf("RosterPath = %q", cfg.Data.RosterPath)
	}
	if cfg.Analysis.TopN != 25 {
		t.Errorf("TopN = %d, want 25", cfg.Analysis.TopN)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}

	env["PROSPECTOR_TOP_N"] = "many"
	if err := Default().applyEnv(lookup); err == nil {
		t.Error("expected error for non-numeric TOP_N")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PROSPECTOR_TEST_DOTENV=loaded\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROSPECTOR_TEST_DOTENV", "")
	os.Unsetenv("PROSPECTOR_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	if got := os.Getenv("PROSPECTOR_TEST_DOTENV"); got != "loaded" {
		t.Errorf("PROSPECTOR_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		result, err := expandPath(tt.input)
		if err != nil {
			t.Errorf("expandPath(%q) error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestTextColumns(t *testing.T) {
	c := ColumnsConfig{Name: "Institution Name", State: "State", Text: []string{"County name"}}
	got := c.TextColumns()
	want := []string{"Institution Name", "State", "County name"}
	if len(got) != len(want) {
		t.Fatalf("TextColumns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TextColumns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
