package ipeds

import (
	"strconv"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
)

// Institution holds the descriptive columns printed next to every result
type Institution struct {
	ID    dataset.UnitID `json:"unitid"`
	Name  string         `json:"name"`
	City  string         `json:"city"`
	State string         `json:"state"`
	ZIP   string         `json:"zip"`
}

// DescriptiveColumns names the statistics columns used by Describe.
// An empty name leaves that attribute blank.
type DescriptiveColumns struct {
	Name  string
	City  string
	State string
	ZIP   string
}

// Describer looks up descriptive attributes by unit ID
type Describer struct {
	table   *dataset.Table
	columns DescriptiveColumns
}

// NewDescriber validates that the configured columns exist
func NewDescriber(t *dataset.Table, c DescriptiveColumns) (*Describer, error) {
	for _, col := range []string{c.Name, c.City, c.State, c.ZIP} {
		if col == "" {
			continue
		}
		if err := t.RequireColumns(col); err != nil {
			return nil, err
		}
	}
	return &Describer{table: t, columns: c}, nil
}

// Describe returns the descriptive attributes of id. Unknown IDs return
// an Institution carrying only the ID.
func (d *Describer) Describe(id dataset.UnitID) Institution {
	inst := Institution{ID: id}
	if d == nil || !d.table.Has(id) {
		return inst
	}
	inst.Name = d.text(id, d.columns.Name)
	inst.City = d.text(id, d.columns.City)
	inst.State = d.text(id, d.columns.State)
	inst.ZIP = d.text(id, d.columns.ZIP)
	return inst
}

func (d *Describer) text(id dataset.UnitID, column string) string {
	if column == "" {
		return ""
	}
	v, err := d.table.Value(id, column)
	if err != nil || v.Null {
		return ""
	}
	if v.Text != "" {
		return v.Text
	}
	return trimFloat(v.Number)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
