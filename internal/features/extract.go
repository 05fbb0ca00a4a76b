// Package features projects the statistics table into named feature tables.
package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/membership"
)

// Subset returns the rows of t whose IDs are in ids (table order kept),
// restricted to columns. A missing column is a SchemaError.
func Subset(t *dataset.Table, ids membership.IDSet, columns []string) (*dataset.Table, error) {
	positions := make([]int, len(columns))
	fields := make([]dataset.Field, len(columns))
	schema := t.Schema()
	for i, c := range columns {
		pos, f, ok := schema.Lookup(c)
		if !ok {
			return nil, &dataset.SchemaError{Table: t.Name(), Column: c, Reason: "requested column not found"}
		}
		positions[i] = pos
		fields[i] = f
	}

	out, err := newTable(t.Name(), fields)
	if err != nil {
		return nil, err
	}
	for _, id := range t.IDs() {
		if !ids.Contains(id) {
			continue
		}
		row, _ := t.Row(id)
		projected := make([]dataset.Value, len(positions))
		for i, pos := range positions {
			projected[i] = row[pos]
		}
		if err := out.Append(id, projected...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Rename renames the mapping's source columns to their targets. Columns not
// named in the mapping keep their names. A missing source is a SchemaError.
func Rename(t *dataset.Table, m Mapping) (*dataset.Table, error) {
	if err := t.RequireColumns(m.Sources()...); err != nil {
		return nil, err
	}

	fields := t.Schema().Fields()
	for i, f := range fields {
		if to, ok := m.Target(f.Name); ok {
			fields[i].Name = to
		}
	}
	out, err := newTable(t.Name(), fields)
	if err != nil {
		return nil, err
	}
	for _, id := range t.IDs() {
		row, _ := t.Row(id)
		if err := out.Append(id, row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Project selects the mapping's source columns for ids and renames them
func Project(t *dataset.Table, ids membership.IDSet, m Mapping) (*dataset.Table, error) {
	sub, err := Subset(t, ids, m.Sources())
	if err != nil {
		return nil, err
	}
	return Rename(sub, m)
}

// DropIncomplete removes rows with a Null in any of columns and reports
// which IDs were removed.
func DropIncomplete(t *dataset.Table, stage string, columns []string) (*dataset.Table, dataset.DataQualityWarning, error) {
	warning := dataset.DataQualityWarning{
		Stage:  stage,
		Reason: "missing feature values",
		Pool:   t.Len(),
	}
	positions := make([]int, len(columns))
	for i, c := range columns {
		pos, _, ok := t.Schema().Lookup(c)
		if !ok {
			return nil, warning, &dataset.SchemaError{Table: t.Name(), Column: c, Reason: "column not found"}
		}
		positions[i] = pos
	}

	out := t.Filter(func(id dataset.UnitID, row []dataset.Value) bool {
		for _, pos := range positions {
			if row[pos].Null {
				warning.Dropped = append(warning.Dropped, id)
				return false
			}
		}
		return true
	})
	return out, warning, nil
}

// Matrix returns the numeric columns of t as a dense rows×columns matrix.
// Every cell must be present.
func Matrix(t *dataset.Table, columns []string) (*mat.Dense, error) {
	if t.Len() == 0 || len(columns) == 0 {
		return nil, fmt.Errorf("%s: empty feature matrix (%d rows, %d columns)", t.Name(), t.Len(), len(columns))
	}
	data := make([]float64, t.Len()*len(columns))
	for j, c := range columns {
		vals, err := t.Numbers(c)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				return nil, &dataset.SchemaError{
					Table:  t.Name(),
					Column: c,
					Reason: "missing value in feature matrix",
					IDs:    []dataset.UnitID{t.IDs()[i]},
				}
			}
			data[i*len(columns)+j] = v
		}
	}
	return mat.NewDense(t.Len(), len(columns), data), nil
}

func newTable(name string, fields []dataset.Field) (*dataset.Table, error) {
	schema, err := dataset.NewSchema(fields...)
	if err != nil {
		return nil, &dataset.SchemaError{Table: name, Reason: err.Error()}
	}
	return dataset.NewTable(name, schema), nil
}
