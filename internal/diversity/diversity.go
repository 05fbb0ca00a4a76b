// Package diversity turns groups of mutually exclusive counts into
// proportions and a Blau (Gini-Simpson) diversity index.
package diversity

import (
	"math"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/features"
)

// Group is one set of mutually exclusive count columns. Columns maps each
// count column to the name of its proportion column; Name is the name of
// the index column.
type Group struct {
	Name    string
	Columns features.Mapping
}

// BlauIndex returns 1 - Σ p². It is 0 for a single category and
// approaches 1 - 1/k as k categories become uniform.
func BlauIndex(proportions []float64) float64 {
	var sum float64
	for _, p := range proportions {
		sum += p * p
	}
	return 1 - sum
}

// Proportions appends the group's proportion columns. Rows whose group total
// is zero get Null proportions and are reported in a DegenerateInputError,
// which is returned alongside the (still usable) table.
func Proportions(t *dataset.Table, g Group) (*dataset.Table, error) {
	props, zero, err := proportions(t, g)
	if err != nil {
		return nil, err
	}
	out, err := t.WithNumberColumns(g.Columns.Targets(), props)
	if err != nil {
		return nil, err
	}
	return out, zeroTotalError(g, zero)
}

// Index appends the group's proportion columns and its diversity index.
// The degenerate-input contract is the same as Proportions.
func Index(t *dataset.Table, g Group) (*dataset.Table, error) {
	props, zero, err := proportions(t, g)
	if err != nil {
		return nil, err
	}

	index := make([]float64, t.Len())
	row := make([]float64, len(props))
	for i := range index {
		for k := range props {
			row[k] = props[k][i]
		}
		index[i] = BlauIndex(row)
	}

	names := append(g.Columns.Targets(), g.Name)
	out, err := t.WithNumberColumns(names, append(props, index))
	if err != nil {
		return nil, err
	}
	return out, zeroTotalError(g, zero)
}

// proportions returns one slice per count column aligned with table rows.
// NaN marks rows where the total is zero or a count is missing.
func proportions(t *dataset.Table, g Group) ([][]float64, []dataset.UnitID, error) {
	counts := make([][]float64, g.Columns.Len())
	for k, col := range g.Columns.Sources() {
		vals, err := t.Numbers(col)
		if err != nil {
			return nil, nil, err
		}
		counts[k] = vals
	}

	ids := t.IDs()
	props := make([][]float64, len(counts))
	for k := range props {
		props[k] = make([]float64, t.Len())
	}

	var zero []dataset.UnitID
	for i := range ids {
		var total float64
		for k := range counts {
			total += counts[k][i]
		}
		if total == 0 {
			zero = append(zero, ids[i])
		}
		for k := range counts {
			if total == 0 || math.IsNaN(total) {
				props[k][i] = math.NaN()
				continue
			}
			props[k][i] = counts[k][i] / total
		}
	}
	return props, zero, nil
}

func zeroTotalError(g Group, zero []dataset.UnitID) error {
	if len(zero) == 0 {
		return nil
	}
	return &dataset.DegenerateInputError{
		Stage:  "diversity",
		Column: g.Name,
		Reason: "group total is zero",
		IDs:    zero,
	}
}
