package pipeline

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/ipeds-prospector/internal/config"
	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/diversity"
	"github.com/vijay-prabhu/ipeds-prospector/internal/features"
	"github.com/vijay-prabhu/ipeds-prospector/internal/ipeds"
	"github.com/vijay-prabhu/ipeds-prospector/internal/membership"
	"github.com/vijay-prabhu/ipeds-prospector/internal/need"
)

func institutions(t *testing.T) *dataset.Table {
	t.Helper()

	schema, err := dataset.NewSchema(
		dataset.Field{Name: "name", Kind: dataset.Text},
		dataset.Field{Name: "state", Kind: dataset.Text},
		dataset.Field{Name: "control", Kind: dataset.Number},
		dataset.Field{Name: "Total men", Kind: dataset.Number},
		dataset.Field{Name: "Total women", Kind: dataset.Number},
		dataset.Field{Name: "Pell pct", Kind: dataset.Number},
		dataset.Field{Name: "Enrollment", Kind: dataset.Number},
		dataset.Field{Name: "Tuition", Kind: dataset.Number},
	)
	require.NoError(t, err)

	n := dataset.Num
	rows := []struct {
		id     dataset.UnitID
		values []dataset.Value
	}{
		{1, []dataset.Value{dataset.Str("Alpha College"), dataset.Str("AL"), n(1), n(50), n(50), n(30), n(1000), n(9000)}},
		{2, []dataset.Value{dataset.Str("Beta University"), dataset.Str("AL"), n(1), n(80), n(20), n(60), n(500), n(8000)}},
		{3, []dataset.Value{dataset.Str("Gamma College"), dataset.Str("GA"), n(3), n(45), n(55), n(40), n(900), n(9100)}},
		{4, []dataset.Value{dataset.Str("Delta State"), dataset.Str("GA"), n(4), n(10), n(90), n(70), n(400), n(7000)}},
		{5, []dataset.Value{dataset.Str("Epsilon Seminary"), dataset.Str("GA"), n(1), n(0), n(0), n(50), n(300), n(6000)}},
		{6, []dataset.Value{dataset.Str("Zeta Institute"), dataset.Str("TX"), n(2), n(40), n(60), n(20), n(800), n(20000)}},
		{7, []dataset.Value{dataset.Str("Eta University"), dataset.Str("TX"), n(1), n(30), n(70), dataset.Null(), n(700), n(8500)}},
	}

	tbl := dataset.NewTable("ipeds", schema)
	for _, r := range rows {
		require.NoError(t, tbl.Append(r.id, r.values...))
	}
	return tbl
}

func options() Options {
	return Options{
		Criteria: membership.Criteria{ControlColumn: "control", ControlCodes: []float64{1, 3, 4}},
		Describe: ipeds.DescriptiveColumns{Name: "name", State: "state"},
		Features: features.MustMapping(
			features.Pair{From: "Total men", To: "men"},
			features.Pair{From: "Total women", To: "women"},
			features.Pair{From: "Pell pct", To: "pct_pell"},
			features.Pair{From: "Enrollment", To: "enrollment"},
			features.Pair{From: "Tuition", To: "tuition"},
		),
		Diversity: []diversity.Group{{
			Name: "gender_diversity",
			Columns: features.MustMapping(
				features.Pair{From: "men", To: "p_men"},
				features.Pair{From: "women", To: "p_women"},
			),
		}},
		Need: need.Config{
			Features: features.MustMapping(
				features.Pair{From: "gender_diversity", To: "z_gender_diversity"},
				features.Pair{From: "pct_pell", To: "z_pct_pell"},
			),
			Flip: []string{"z_gender_diversity"},
		},
		RegionColumn:  "state",
		MatchFeatures: []string{"enrollment", "tuition"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newPipeline(t *testing.T, opts Options, customers ...dataset.UnitID) *Pipeline {
	t.Helper()
	p, err := New(Inputs{Institutions: institutions(t), Customers: membership.NewIDSet(customers...)}, opts, quietLogger())
	require.NoError(t, err)
	return p
}

func TestNew_Partition(t *testing.T) {
	p := newPipeline(t, options(), 1, 2)

	s := p.Summary()
	assert.Equal(t, 6, s.Eligible, "control code 2 is not eligible")
	assert.Equal(t, 2, s.Customers)
	assert.Equal(t, 4, s.NonCustomers)
	assert.InDelta(t, 100.0*2/6, s.MarketShare, 1e-9)
	assert.Equal(t, []dataset.UnitID{3, 4, 5, 7}, p.Partition().NonCustomers.IDs())
}

func TestNew_IneligibleCustomer(t *testing.T) {
	in := Inputs{Institutions: institutions(t), Customers: membership.NewIDSet(1, 6)}

	_, err := New(in, options(), quietLogger())
	assert.ErrorIs(t, err, dataset.ErrSchema)

	opts := options()
	opts.AllowIneligible = true
	p, err := New(in, opts, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, p.Summary().Customers)
	require.Len(t, p.Warnings(), 1)
	assert.Equal(t, []dataset.UnitID{6}, p.Warnings()[0].Dropped)
}

func TestNeed_ZeroTotalFailsByDefault(t *testing.T) {
	p := newPipeline(t, options(), 1, 2)

	_, err := p.Need(10)
	assert.ErrorIs(t, err, dataset.ErrDegenerateInput)
}

func TestNeed_ExcludeZeroTotal(t *testing.T) {
	opts := options()
	opts.ExcludeZeroTotal = true
	p := newPipeline(t, opts, 1, 2)

	res, err := p.Need(10)
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, dataset.UnitID(4), res.Rows[0].ID)
	assert.Equal(t, "Delta State", res.Rows[0].Name)
	assert.InDelta(t, 2.0, res.Rows[0].Score, 1e-9)
	assert.Equal(t, dataset.UnitID(3), res.Rows[1].ID)
	assert.InDelta(t, -2.0, res.Rows[1].Score, 1e-9)

	require.Len(t, res.Warnings, 2)
	assert.Equal(t, []dataset.UnitID{5}, res.Warnings[0].Dropped, "zero gender total")
	assert.Equal(t, []dataset.UnitID{7}, res.Warnings[1].Dropped, "missing pell percentage")
}

func TestPenetration(t *testing.T) {
	p := newPipeline(t, options(), 1, 2)

	res, err := p.Penetration(0)
	require.NoError(t, err)

	require.Len(t, res.Regions, 3)
	assert.Equal(t, "GA", res.Regions[0].Name)
	assert.Equal(t, "TX", res.Regions[1].Name)
	assert.Equal(t, "AL", res.Regions[2].Name)
	assert.Equal(t, 1.0, res.Regions[2].Penetration)

	var customers int
	for _, r := range res.Regions {
		customers += r.Customers
		assert.GreaterOrEqual(t, r.Penetration, 0.0)
		assert.LessOrEqual(t, r.Penetration, 1.0)
	}
	assert.Equal(t, 2, customers)
}

func TestMatch(t *testing.T) {
	p := newPipeline(t, options(), 1, 2)

	res, err := p.Match(0)
	require.NoError(t, err)
	require.Len(t, res.Rows, 4, "one match per non-customer")
	assert.Empty(t, res.Warnings)

	byID := map[dataset.UnitID]MatchRow{}
	for i, row := range res.Rows {
		byID[row.ID] = row
		if i > 0 {
			assert.LessOrEqual(t, res.Rows[i-1].Distance, row.Distance)
		}
	}
	assert.Equal(t, dataset.UnitID(1), byID[3].NearestCustomerID)
	assert.Equal(t, "Alpha College", byID[3].NearestCustomerName)
	assert.Equal(t, dataset.UnitID(2), byID[4].NearestCustomerID)
}

func TestRun_Idempotent(t *testing.T) {
	opts := options()
	opts.ExcludeZeroTotal = true
	p := newPipeline(t, opts, 1, 2)

	a, err := p.Run(3)
	require.NoError(t, err)
	b, err := p.Run(3)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a.Matches, 3)
	assert.Len(t, a.Penetration, 3)
	assert.Len(t, a.Warnings, 2)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	w := 2.5
	cfg.Need.Features[2].Weight = &w
	cfg.Diversity.ZeroTotal = config.ZeroTotalExclude

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)

	assert.True(t, opts.ExcludeZeroTotal)
	assert.Len(t, opts.Diversity, 2)
	assert.Equal(t, []string{"z_gender_diversity", "z_race_diversity"}, opts.Need.Flip)
	assert.Equal(t, map[string]float64{"z_pct_pell": 2.5}, opts.Need.Weights)
	assert.Equal(t, cfg.Matching.Features, opts.MatchFeatures)

	target, ok := opts.Features.Target(cfg.Features.Columns[0].From)
	assert.True(t, ok)
	assert.Equal(t, "enrollment", target)
}
