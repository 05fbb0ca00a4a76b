package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/membership"
)

const (
	rawMen   = "Grand total men (EF2020A  All students total)"
	rawWomen = "Grand total women (EF2020A  All students total)"
)

func rawTable(t *testing.T) *dataset.Table {
	t.Helper()

	schema, err := dataset.NewSchema(
		dataset.Field{Name: "Institution Name", Kind: dataset.Text},
		dataset.Field{Name: rawMen, Kind: dataset.Number},
		dataset.Field{Name: rawWomen, Kind: dataset.Number},
	)
	require.NoError(t, err)

	tbl := dataset.NewTable("ipeds", schema)
	require.NoError(t, tbl.Append(10, dataset.Str("A"), dataset.Num(100), dataset.Num(120)))
	require.NoError(t, tbl.Append(20, dataset.Str("B"), dataset.Null(), dataset.Num(80)))
	require.NoError(t, tbl.Append(30, dataset.Str("C"), dataset.Num(40), dataset.Num(60)))
	return tbl
}

func TestNewMapping(t *testing.T) {
	m, err := NewMapping(Pair{From: rawMen, To: "men"}, Pair{From: rawWomen, To: "women"})
	require.NoError(t, err)
	assert.Equal(t, []string{rawMen, rawWomen}, m.Sources())
	assert.Equal(t, []string{"men", "women"}, m.Targets())

	to, ok := m.Target(rawWomen)
	assert.True(t, ok)
	assert.Equal(t, "women", to)
	assert.True(t, m.HasTarget("men"))

	tests := []struct {
		name  string
		pairs []Pair
	}{
		{"duplicate source", []Pair{{From: "a", To: "x"}, {From: "a", To: "y"}}},
		{"duplicate target", []Pair{{From: "a", To: "x"}, {From: "b", To: "x"}}},
		{"empty name", []Pair{{From: "", To: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapping(tt.pairs...)
			assert.Error(t, err)
		})
	}
}

func TestSubset(t *testing.T) {
	sub, err := Subset(rawTable(t), membership.NewIDSet(30, 10), []string{rawWomen})
	require.NoError(t, err)

	assert.Equal(t, []dataset.UnitID{10, 30}, sub.IDs(), "table order is kept, not id-set order")
	assert.Equal(t, []string{rawWomen}, sub.Schema().Names())

	_, err = Subset(rawTable(t), membership.NewIDSet(10), []string{"Percent admitted - total"})
	assert.ErrorIs(t, err, dataset.ErrSchema)
}

func TestProject(t *testing.T) {
	m := MustMapping(Pair{From: rawMen, To: "men"}, Pair{From: rawWomen, To: "women"})

	out, err := Project(rawTable(t), membership.NewIDSet(10, 20, 30), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"men", "women"}, out.Schema().Names())

	v, ok, err := out.Float(30, "men")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 40.0, v)
}

func TestRename_MissingSource(t *testing.T) {
	m := MustMapping(Pair{From: "Tribal college (HD2020)", To: "tribal"})
	_, err := Rename(rawTable(t), m)
	assert.ErrorIs(t, err, dataset.ErrSchema)
}

func TestDropIncomplete(t *testing.T) {
	out, warning, err := DropIncomplete(rawTable(t), "match", []string{rawMen, rawWomen})
	require.NoError(t, err)

	assert.Equal(t, []dataset.UnitID{10, 30}, out.IDs())
	assert.Equal(t, []dataset.UnitID{20}, warning.Dropped)
	assert.Equal(t, 3, warning.Pool)
	assert.Equal(t, "match", warning.Stage)
}

func TestMatrix(t *testing.T) {
	clean, _, err := DropIncomplete(rawTable(t), "test", []string{rawMen, rawWomen})
	require.NoError(t, err)

	m, err := Matrix(clean, []string{rawMen, rawWomen})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 60.0, m.At(1, 1))

	_, err = Matrix(rawTable(t), []string{rawMen})
	assert.ErrorIs(t, err, dataset.ErrSchema, "a null cell cannot enter a matrix")
}
