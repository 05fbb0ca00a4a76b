package config

// Config represents the application configuration
type Config struct {
	Data        DataConfig        `toml:"data"`
	Columns     ColumnsConfig     `toml:"columns"`
	Eligibility EligibilityConfig `toml:"eligibility"`
	Features    FeaturesConfig    `toml:"features"`
	Diversity   DiversityConfig   `toml:"diversity"`
	Need        NeedConfig        `toml:"need"`
	Penetration PenetrationConfig `toml:"penetration"`
	Matching    MatchingConfig    `toml:"matching"`
	Analysis    AnalysisConfig    `toml:"analysis"`
	Output      OutputConfig      `toml:"output"`
	Export      ExportConfig      `toml:"export"`
	Database    DatabaseConfig    `toml:"database"`
	Sheets      SheetsConfig      `toml:"sheets"`
	Logging     LoggingConfig     `toml:"logging"`
}

// DataConfig locates the input files
type DataConfig struct {
	InstitutionsPath string `toml:"institutions_path"`
	RosterPath       string `toml:"roster_path"`
	RosterIDColumn   string `toml:"roster_id_column"`
	RosterDelimiter  string `toml:"roster_delimiter"`
	// AllowIneligible drops roster IDs that are not eligible institutions
	// instead of failing
	AllowIneligible bool `toml:"allow_ineligible"`
}

// ColumnsConfig names the identifier and descriptive columns of the
// statistics file
type ColumnsConfig struct {
	ID    string   `toml:"id"`
	Name  string   `toml:"name"`
	City  string   `toml:"city"`
	State string   `toml:"state"`
	ZIP   string   `toml:"zip"`
	Text  []string `toml:"text"`
}

// TextColumns returns every column loaded as text
func (c ColumnsConfig) TextColumns() []string {
	out := make([]string, 0, 4+len(c.Text))
	for _, col := range append([]string{c.Name, c.City, c.State, c.ZIP}, c.Text...) {
		if col != "" {
			out = append(out, col)
		}
	}
	return out
}

// EligibilityConfig selects the institutions considered at all.
// An empty column disables that criterion.
type EligibilityConfig struct {
	ControlColumn       string    `toml:"control_column"`
	ControlCodes        []float64 `toml:"control_codes"`
	UndergraduateColumn string    `toml:"undergraduate_column"`
	ActiveColumn        string    `toml:"active_column"`
}

// ColumnMapping renames one column
type ColumnMapping struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// FeaturesConfig maps raw statistics labels to short feature names
type FeaturesConfig struct {
	Columns []ColumnMapping `toml:"columns"`
}

// DiversityGroup is one set of mutually exclusive count columns.
// Columns map short count names to proportion names.
type DiversityGroup struct {
	Name    string          `toml:"name"`
	Columns []ColumnMapping `toml:"columns"`
}

// Zero-total policies
const (
	ZeroTotalError   = "error"
	ZeroTotalExclude = "exclude"
)

// DiversityConfig contains the diversity index groups
type DiversityConfig struct {
	ZeroTotal string           `toml:"zero_total"`
	Groups    []DiversityGroup `toml:"groups"`
}

// NeedFeature is one input of the need score
type NeedFeature struct {
	Column       string   `toml:"column"`
	Standardized string   `toml:"standardized"`
	Weight       *float64 `toml:"weight,omitempty"`
	Flip         bool     `toml:"flip"`
}

// NeedConfig contains need score settings
type NeedConfig struct {
	Features []NeedFeature `toml:"features"`
}

// PenetrationConfig contains market penetration settings
type PenetrationConfig struct {
	RegionColumn string `toml:"region_column"`
}

// MatchingConfig contains nearest-customer matching settings
type MatchingConfig struct {
	Features       []string `toml:"features"`
	MaxMatrixCells int      `toml:"max_matrix_cells"`
}

// AnalysisConfig contains settings shared by every approach
type AnalysisConfig struct {
	TopN int `toml:"top_n"`
}

// OutputConfig contains terminal output settings
type OutputConfig struct {
	Format string `toml:"format"`
}

// ExportConfig contains file export settings
type ExportConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// SheetsConfig contains Google Sheets publishing settings
type SheetsConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	TokenPath       string `toml:"token_path"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	Title           string `toml:"title"`
}

// LoggingConfig contains log settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

const enrollmentSuffix = " (EF2020A  All students total)"

// Default returns a Config with sensible defaults for the 2020 IPEDS extract
func Default() *Config {
	return &Config{
		Data: DataConfig{
			InstitutionsPath: "data/ipeds_2020.csv",
			RosterPath:       "data/customers.tsv",
			RosterIDColumn:   "IPEDS_UnitID",
			RosterDelimiter:  "\t",
		},
		Columns: ColumnsConfig{
			ID:    "UnitID",
			Name:  "Institution Name",
			City:  "City location of institution (HD2020)",
			State: "State abbreviation (HD2020)",
			ZIP:   "ZIP code (HD2020)",
		},
		Eligibility: EligibilityConfig{
			ControlColumn:       "Institutional control or affiliation (IC2020)",
			ControlCodes:        []float64{1, 3, 4},
			UndergraduateColumn: "Undergraduate offering (HD2020)",
			ActiveColumn:        "Institution is active in current year (HD2020)",
		},
		Features: FeaturesConfig{
			Columns: []ColumnMapping{
				{From: "Grand total" + enrollmentSuffix, To: "enrollment"},
				{From: "Total men" + enrollmentSuffix, To: "men"},
				{From: "Total women" + enrollmentSuffix, To: "women"},
				{From: "American Indian or Alaska Native total" + enrollmentSuffix, To: "native"},
				{From: "Asian total" + enrollmentSuffix, To: "asian"},
				{From: "Black or African American total" + enrollmentSuffix, To: "black"},
				{From: "Hispanic total" + enrollmentSuffix, To: "hispanic"},
				{From: "Native Hawaiian or Other Pacific Islander total" + enrollmentSuffix, To: "pacific"},
				{From: "White total" + enrollmentSuffix, To: "white"},
				{From: "Percent of full-time first-time undergraduates awarded Pell grants (SFA1920)", To: "pct_pell"},
				{From: "Percent of full-time first-time undergraduates awarded any financial aid (SFA1920)", To: "pct_aid"},
				{From: "Distance education courses offered (IC2020)", To: "distance_ed"},
				{From: "Tuition and fees, 2020-21 (DRVIC2020)", To: "tuition"},
				{From: "Graduation rate, total cohort (DRVGR2020)", To: "grad_rate"},
			},
		},
		Diversity: DiversityConfig{
			ZeroTotal: ZeroTotalError,
			Groups: []DiversityGroup{
				{
					Name: "gender_diversity",
					Columns: []ColumnMapping{
						{From: "men", To: "p_men"},
						{From: "women", To: "p_women"},
					},
				},
				{
					Name: "race_diversity",
					Columns: []ColumnMapping{
						{From: "native", To: "p_native"},
						{From: "asian", To: "p_asian"},
						{From: "black", To: "p_black"},
						{From: "hispanic", To: "p_hispanic"},
						{From: "pacific", To: "p_pacific"},
						{From: "white", To: "p_white"},
					},
				},
			},
		},
		Need: NeedConfig{
			Features: []NeedFeature{
				{Column: "gender_diversity", Standardized: "z_gender_diversity", Flip: true},
				{Column: "race_diversity", Standardized: "z_race_diversity", Flip: true},
				{Column: "pct_pell", Standardized: "z_pct_pell"},
				{Column: "distance_ed", Standardized: "z_distance_ed"},
				{Column: "enrollment", Standardized: "z_enrollment"},
			},
		},
		Penetration: PenetrationConfig{
			RegionColumn: "State abbreviation (HD2020)",
		},
		Matching: MatchingConfig{
			Features:       []string{"enrollment", "pct_pell", "pct_aid", "tuition", "grad_rate"},
			MaxMatrixCells: 50_000_000,
		},
		Analysis: AnalysisConfig{
			TopN: 100,
		},
		Output: OutputConfig{
			Format: "table",
		},
		Export: ExportConfig{
			Dir:    "prospector-out",
			Format: "csv",
		},
		Database: DatabaseConfig{
			Path: "~/.local/share/prospector/prospector.db",
		},
		Sheets: SheetsConfig{
			CredentialsPath: "~/.config/prospector/credentials.json",
			TokenPath:       "~/.config/prospector/token.json",
			Title:           "IPEDS outreach priorities",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
