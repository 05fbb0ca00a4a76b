package ipeds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
)

const statsCSV = "\ufeffUnitID,Institution Name,State abbreviation (HD2020),ZIP code (HD2020),Grand total (EF2020A  All students total)\n" +
	"100654,Alabama A & M University,AL,35762,6106\n" +
	"100663,University of Alabama at Birmingham,AL,35294-0110,22563\n" +
	"100690,Amridge University,AL,36117-3553,\n"

var statsLayout = Layout{
	IDColumn:    "UnitID",
	TextColumns: []string{"Institution Name", "State abbreviation (HD2020)", "ZIP code (HD2020)"},
}

func TestReadInstitutions(t *testing.T) {
	tbl, err := ReadInstitutions(strings.NewReader(statsCSV), "ipeds", statsLayout)
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []dataset.UnitID{100654, 100663, 100690}, tbl.IDs())

	_, f, ok := tbl.Schema().Lookup("Grand total (EF2020A  All students total)")
	require.True(t, ok)
	assert.Equal(t, dataset.Number, f.Kind)

	v, ok, err := tbl.Float(100663, "Grand total (EF2020A  All students total)")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 22563.0, v)

	_, ok, err = tbl.Float(100690, "Grand total (EF2020A  All students total)")
	require.NoError(t, err)
	assert.False(t, ok, "blank numeric cells load as null")
}

func TestReadInstitutions_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing id column", "Institution Name\nAlpha\n"},
		{"duplicate id", "UnitID,x\n1,2\n1,3\n"},
		{"bad id", "UnitID,x\nabc,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadInstitutions(strings.NewReader(tt.data), "ipeds", statsLayout)
			assert.Error(t, err)
		})
	}
}

func TestReadRoster(t *testing.T) {
	data := "IPEDS_UnitID\tInstitution\n" +
		"100654\tAlabama A & M University\n" +
		"100663\tUniversity of Alabama at Birmingham\n" +
		"100654\tAlabama A & M University\n" +
		"\t(no id)\n"

	ids, err := ReadRoster(strings.NewReader(data), RosterOptions{IDColumn: "IPEDS_UnitID"})
	require.NoError(t, err)
	assert.Equal(t, []dataset.UnitID{100654, 100663}, ids.IDs())
}

func TestReadRoster_MissingColumn(t *testing.T) {
	_, err := ReadRoster(strings.NewReader("UnitID\n1\n"), RosterOptions{IDColumn: "IPEDS_UnitID"})
	assert.ErrorIs(t, err, dataset.ErrSchema)
}

func TestDescriber(t *testing.T) {
	tbl, err := ReadInstitutions(strings.NewReader(statsCSV), "ipeds", statsLayout)
	require.NoError(t, err)

	d, err := NewDescriber(tbl, DescriptiveColumns{
		Name:  "Institution Name",
		State: "State abbreviation (HD2020)",
		ZIP:   "ZIP code (HD2020)",
	})
	require.NoError(t, err)

	got := d.Describe(100654)
	assert.Equal(t, Institution{ID: 100654, Name: "Alabama A & M University", State: "AL", ZIP: "35762"}, got)
	assert.Equal(t, Institution{ID: 1}, d.Describe(1))

	_, err = NewDescriber(tbl, DescriptiveColumns{City: "City location of institution (HD2020)"})
	assert.ErrorIs(t, err, dataset.ErrSchema)
}
