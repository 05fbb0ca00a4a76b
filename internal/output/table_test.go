package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vijay-prabhu/ipeds-prospector/internal/database"
	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/ipeds"
	"github.com/vijay-prabhu/ipeds-prospector/internal/penetration"
	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

func sampleReport() *pipeline.Report {
	return &pipeline.Report{
		TopN:    5,
		Summary: pipeline.Summary{Eligible: 10, Customers: 3, NonCustomers: 7, MarketShare: 30},
		Need: []pipeline.NeedRow{
			{Institution: ipeds.Institution{ID: 100654, Name: "Alabama A & M University", City: "Normal", State: "AL"}, Score: 2.5},
		},
		Penetration: []penetration.Region{
			{Name: "WY", Customers: 0, NonCustomers: 5, Total: 5, Penetration: 0},
			{Name: "AL", Customers: 3, NonCustomers: 7, Total: 10, Penetration: 0.3},
		},
		Matches: []pipeline.MatchRow{
			{Institution: ipeds.Institution{ID: 3}, NearestCustomerID: 1, Distance: 0.02},
		},
		Warnings: []dataset.DataQualityWarning{
			{Stage: "need", Reason: "missing feature values", Dropped: []dataset.UnitID{9}, Pool: 8},
		},
	}
}

func TestTableTo_Report(t *testing.T) {
	var buf bytes.Buffer
	if err := TableTo(&buf, sampleReport()); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Market share:      30.00%",
		"Alabama A & M University",
		"Normal, AL",
		"30.0%",
		"0.02000",
		"Warning: need: dropped 1 of 8 rows (missing feature values)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// WY (0%) ranks before AL (30%)
	if strings.Index(out, "WY") > strings.Index(out, "30.0%") {
		t.Errorf("expected regions in input order:\n%s", out)
	}
}

func TestTableTo_Empty(t *testing.T) {
	tests := []struct {
		data any
		want string
	}{
		{&pipeline.NeedResult{}, "No institutions scored."},
		{&pipeline.PenetrationResult{}, "No regions found."},
		{&pipeline.MatchResult{}, "No matches found."},
		{[]database.Run{}, "No saved runs."},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := TableTo(&buf, tt.data); err != nil {
			t.Errorf("TableTo(%T) error: %v", tt.data, err)
		}
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("TableTo(%T) = %q, want %q", tt.data, buf.String(), tt.want)
		}
	}
}

func TestTableTo_Runs(t *testing.T) {
	label := "spring"
	runs := []database.Run{{
		ID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
		Label:     &label,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TopN:      100,
		NeedRows:  100, RegionRows: 51, MatchRows: 100,
	}}

	var buf bytes.Buffer
	if err := TableTo(&buf, runs); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}
	if !strings.Contains(buf.String(), "0f8fad5b") || !strings.Contains(buf.String(), "100/51/100") {
		t.Errorf("unexpected runs table:\n%s", buf.String())
	}
}

func TestTableTo_Unsupported(t *testing.T) {
	if err := TableTo(&bytes.Buffer{}, 42); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestOutputTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := OutputTo(&buf, "json", sampleReport()); err != nil {
		t.Fatalf("OutputTo() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	matches := decoded["matches"].([]any)
	first := matches[0].(map[string]any)
	if first["unitid_of_most_similar_member"].(float64) != 1 {
		t.Errorf("unexpected match JSON: %v", first)
	}
	if first["unitid"].(float64) != 3 {
		t.Errorf("embedded institution fields should be flattened: %v", first)
	}

	if err := OutputTo(&buf, "yaml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer institution name", 10, "a longe..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
