// Package dataset holds the typed tables every analysis stage passes around.
//
// A Table is never modified after it has been built; transformations in other
// packages return new tables. Missing numeric data is represented as a Null
// value rather than zero so that downstream stages can drop or reject it.
package dataset

import (
	"fmt"
	"math"
)

// UnitID identifies an institution (the IPEDS unit identifier)
type UnitID int64

// Kind is the type of a column
type Kind int

const (
	Number Kind = iota
	Text
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field describes one named, typed column
type Field struct {
	Name string
	Kind Kind
}

// Schema is an ordered list of uniquely named fields
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema, rejecting empty or duplicate names
func NewSchema(fields ...Field) (Schema, error) {
	s := Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return Schema{}, fmt.Errorf("schema: empty column name")
		}
		if _, dup := s.index[f.Name]; dup {
			return Schema{}, fmt.Errorf("schema: duplicate column %q", f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// Fields returns a copy of the schema's fields
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the column names in order
func (s Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of columns
func (s Schema) Len() int {
	return len(s.fields)
}

// Lookup returns the position and field for a column name
func (s Schema) Lookup(name string) (int, Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return -1, Field{}, false
	}
	return i, s.fields[i], true
}

// Value is a single table cell
type Value struct {
	Number float64
	Text   string
	Null   bool
}

// Num returns a numeric value; NaN is stored as Null
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Value{Null: true}
	}
	return Value{Number: f}
}

// Str returns a text value
func Str(s string) Value {
	return Value{Text: s}
}

// Null returns a missing value
func Null() Value {
	return Value{Null: true}
}

// Table is a row-ordered collection of records keyed by UnitID
type Table struct {
	name   string
	schema Schema
	ids    []UnitID
	rows   [][]Value
	pos    map[UnitID]int
}

// NewTable creates an empty table with the given schema
func NewTable(name string, schema Schema) *Table {
	return &Table{
		name:   name,
		schema: schema,
		pos:    make(map[UnitID]int),
	}
}

// Name returns the table's label, used in error messages
func (t *Table) Name() string {
	return t.name
}

// Schema returns the table's schema
func (t *Table) Schema() Schema {
	return t.schema
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.ids)
}

// IDs returns the row identifiers in table order
func (t *Table) IDs() []UnitID {
	out := make([]UnitID, len(t.ids))
	copy(out, t.ids)
	return out
}

// Append adds a row. Values must match the schema positionally.
func (t *Table) Append(id UnitID, values ...Value) error {
	if len(values) != t.schema.Len() {
		return fmt.Errorf("%s: row %d has %d values, schema has %d columns", t.name, id, len(values), t.schema.Len())
	}
	if _, dup := t.pos[id]; dup {
		return &SchemaError{Table: t.name, Reason: fmt.Sprintf("duplicate id %d", id)}
	}
	for i, v := range values {
		if v.Null {
			continue
		}
		if t.schema.fields[i].Kind == Number && math.IsNaN(v.Number) {
			values[i] = Null()
		}
	}

	row := make([]Value, len(values))
	copy(row, values)
	t.pos[id] = len(t.ids)
	t.ids = append(t.ids, id)
	t.rows = append(t.rows, row)
	return nil
}

// Has reports whether a row with the given ID exists
func (t *Table) Has(id UnitID) bool {
	_, ok := t.pos[id]
	return ok
}

// Row returns a copy of the row for id
func (t *Table) Row(id UnitID) ([]Value, bool) {
	i, ok := t.pos[id]
	if !ok {
		return nil, false
	}
	row := make([]Value, len(t.rows[i]))
	copy(row, t.rows[i])
	return row, true
}

// Value returns one cell by ID and column name
func (t *Table) Value(id UnitID, column string) (Value, error) {
	col, _, ok := t.schema.Lookup(column)
	if !ok {
		return Value{}, t.missingColumn(column)
	}
	i, ok := t.pos[id]
	if !ok {
		return Value{}, &SchemaError{Table: t.name, Reason: fmt.Sprintf("unknown id %d", id)}
	}
	return t.rows[i][col], nil
}

// Float returns the numeric cell for id and column; ok is false when the cell is Null
func (t *Table) Float(id UnitID, column string) (float64, bool, error) {
	v, err := t.Value(id, column)
	if err != nil {
		return 0, false, err
	}
	if v.Null {
		return math.NaN(), false, nil
	}
	return v.Number, true, nil
}

// Numbers returns a numeric column with NaN in place of Null cells
func (t *Table) Numbers(column string) ([]float64, error) {
	col, f, ok := t.schema.Lookup(column)
	if !ok {
		return nil, t.missingColumn(column)
	}
	if f.Kind != Number {
		return nil, &SchemaError{Table: t.name, Column: column, Reason: "not a numeric column"}
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		if row[col].Null {
			out[i] = math.NaN()
			continue
		}
		out[i] = row[col].Number
	}
	return out, nil
}

// Texts returns a column rendered as text; Null cells become ""
func (t *Table) Texts(column string) ([]string, error) {
	col, f, ok := t.schema.Lookup(column)
	if !ok {
		return nil, t.missingColumn(column)
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		switch {
		case row[col].Null:
		case f.Kind == Text:
			out[i] = row[col].Text
		default:
			out[i] = fmt.Sprintf("%g", row[col].Number)
		}
	}
	return out, nil
}

// RequireColumns returns a SchemaError naming the first absent column
func (t *Table) RequireColumns(columns ...string) error {
	for _, c := range columns {
		if _, _, ok := t.schema.Lookup(c); !ok {
			return t.missingColumn(c)
		}
	}
	return nil
}

// WithNumberColumns returns a new table with extra numeric columns appended.
// Each values slice must be aligned with the table's row order.
func (t *Table) WithNumberColumns(names []string, values [][]float64) (*Table, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%s: %d column names for %d value slices", t.name, len(names), len(values))
	}
	fields := t.schema.Fields()
	for i, n := range names {
		if len(values[i]) != t.Len() {
			return nil, fmt.Errorf("%s: column %q has %d values for %d rows", t.name, n, len(values[i]), t.Len())
		}
		fields = append(fields, Field{Name: n, Kind: Number})
	}
	schema, err := NewSchema(fields...)
	if err != nil {
		return nil, &SchemaError{Table: t.name, Reason: err.Error()}
	}

	out := NewTable(t.name, schema)
	for r, id := range t.ids {
		row := make([]Value, 0, schema.Len())
		row = append(row, t.rows[r]...)
		for c := range names {
			row = append(row, Num(values[c][r]))
		}
		if err := out.Append(id, row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Filter returns a new table keeping the rows for which keep returns true
func (t *Table) Filter(keep func(id UnitID, row []Value) bool) *Table {
	out := NewTable(t.name, t.schema)
	for i, id := range t.ids {
		if !keep(id, t.rows[i]) {
			continue
		}
		row := make([]Value, len(t.rows[i]))
		copy(row, t.rows[i])
		out.pos[id] = len(out.ids)
		out.ids = append(out.ids, id)
		out.rows = append(out.rows, row)
	}
	return out
}

func (t *Table) missingColumn(column string) error {
	return &SchemaError{Table: t.name, Column: column, Reason: "column not found"}
}
