package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/ipeds"
	"github.com/vijay-prabhu/ipeds-prospector/internal/penetration"
	"github.com/vijay-prabhu/ipeds-prospector/internal/pipeline"
)

func report() *pipeline.Report {
	return &pipeline.Report{
		TopN:    100,
		Summary: pipeline.Summary{Eligible: 4, Customers: 2, NonCustomers: 2, MarketShare: 50},
		Need: []pipeline.NeedRow{
			{Institution: ipeds.Institution{ID: 4, Name: "Delta State", State: "GA"}, Score: 1.5,
				Components: map[string]float64{"z_b": 0.5, "z_a": 1}},
		},
		Penetration: []penetration.Region{
			{Name: "GA", NonCustomers: 7, Customers: 3, Total: 10, Penetration: 0.3},
		},
		Matches: []pipeline.MatchRow{
			{Institution: ipeds.Institution{ID: 3, Name: "Gamma, College"}, NearestCustomerID: 1, NearestCustomerName: "Alpha", Distance: 0.02},
			{Institution: ipeds.Institution{ID: 5}, NearestCustomerID: 2, Distance: 0.02},
		},
	}
}

func TestGrids(t *testing.T) {
	grids := Grids(report())
	require.Len(t, grids, 4, "no warnings grid without warnings")

	names := make([]string, len(grids))
	for i, g := range grids {
		names[i] = g.Name
		for _, row := range g.Rows {
			assert.Len(t, row, len(g.Header), g.Name)
		}
	}
	assert.Equal(t, []string{SheetSummary, SheetNeed, SheetPenetration, SheetMatches}, names)
	assert.Equal(t, `{"z_a":1,"z_b":0.5}`, grids[1].Rows[0][7])

	r := report()
	r.Warnings = []dataset.DataQualityWarning{{Stage: "need", Reason: "missing", Dropped: []dataset.UnitID{9, 11}, Pool: 5}}
	grids = Grids(r)
	require.Len(t, grids, 5)
	assert.Equal(t, []any{"need", "missing", 2, 5, `["9","11"]`}, grids[4].Rows[0])
}

func TestWriteGridCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGridCSV(&buf, Grids(report())[3]))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "distance_with_closest_members", records[0][8])
	assert.Equal(t, []string{"1", "3", "Gamma, College", "", "", "", "1", "Alpha", "0.02"}, records[1])
}

func TestWriteCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteCSV(dir, report())
	require.NoError(t, err)
	require.Len(t, paths, 4)

	data, err := os.ReadFile(filepath.Join(dir, "market_penetration.csv"))
	require.NoError(t, err)
	assert.Equal(t, "rank,region,customer_count,non_customer_count,total,penetration\n1,GA,3,7,10,0.3\n", string(data))
}

func TestWriteXLSX(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteXLSX(dir, report())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, WorkbookName), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetNeed, SheetPenetration, SheetMatches}, f.GetSheetList())

	rows, err := f.GetRows(SheetMatches)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "unitid", rows[0][1])
	assert.Equal(t, "Gamma, College", rows[1][2])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "2"}, summary[2])
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "7", FormatCell(7))
	assert.Equal(t, "100654", FormatCell(int64(100654)))
	assert.Equal(t, "0.25", FormatCell(0.25))
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "true", FormatCell(true))
}
