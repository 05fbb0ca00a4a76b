// Package membership derives the eligible, customer and non-customer
// institution sets and labels each eligible institution with its status.
package membership

import (
	"fmt"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
)

// Status is the membership label of an eligible institution
type Status string

const (
	StatusCustomer    Status = "customer"
	StatusNonCustomer Status = "non_customer"
)

// Tag attaches a status to an institution
type Tag struct {
	ID     dataset.UnitID `json:"unitid"`
	Status Status         `json:"membership_status"`
}

// Criteria selects eligible institutions from the statistics table.
// An empty column name disables that criterion.
type Criteria struct {
	ControlColumn       string
	ControlCodes        []float64
	UndergraduateColumn string
	ActiveColumn        string
}

// AllIDs returns every institution in the table that meets the criteria,
// in table order.
func AllIDs(t *dataset.Table, c Criteria) (IDSet, error) {
	var required []string
	for _, col := range []string{c.ControlColumn, c.UndergraduateColumn, c.ActiveColumn} {
		if col != "" {
			required = append(required, col)
		}
	}
	if err := t.RequireColumns(required...); err != nil {
		return IDSet{}, err
	}

	codes := make(map[float64]bool, len(c.ControlCodes))
	for _, code := range c.ControlCodes {
		codes[code] = true
	}

	out := NewIDSet()
	for _, id := range t.IDs() {
		ok, err := c.eligible(t, id, codes)
		if err != nil {
			return IDSet{}, err
		}
		if ok {
			out.add(id)
		}
	}
	return out, nil
}

func (c Criteria) eligible(t *dataset.Table, id dataset.UnitID, codes map[float64]bool) (bool, error) {
	if c.ControlColumn != "" {
		v, ok, err := t.Float(id, c.ControlColumn)
		if err != nil {
			return false, err
		}
		if !ok || !codes[v] {
			return false, nil
		}
	}
	for _, col := range []string{c.UndergraduateColumn, c.ActiveColumn} {
		if col == "" {
			continue
		}
		v, ok, err := t.Float(id, col)
		if err != nil {
			return false, err
		}
		if !ok || v != 1 {
			return false, nil
		}
	}
	return true, nil
}

// NonCustomerIDs returns the eligible IDs that are not customers. Every
// customer must be eligible; strays are reported as a SchemaError rather
// than silently dropped.
func NonCustomerIDs(all, customers IDSet) (IDSet, error) {
	if stray := customers.Difference(all); stray.Len() > 0 {
		return IDSet{}, &dataset.SchemaError{
			Table:  "customer roster",
			Reason: "customer ids not found among eligible institutions",
			IDs:    stray.IDs(),
		}
	}
	return all.Difference(customers), nil
}

// TagMembership labels every eligible ID, in all order
func TagMembership(all, customers IDSet) []Tag {
	tags := make([]Tag, 0, all.Len())
	for _, id := range all.ids {
		status := StatusNonCustomer
		if customers.Contains(id) {
			status = StatusCustomer
		}
		tags = append(tags, Tag{ID: id, Status: status})
	}
	return tags
}

// MarketShare returns the percentage of eligible institutions that are customers
func MarketShare(all, customers IDSet) float64 {
	if all.Len() == 0 {
		return 0
	}
	return float64(all.Intersect(customers).Len()) / float64(all.Len()) * 100
}

// Partition bundles the three ID sets of one analysis run
type Partition struct {
	All          IDSet
	Customers    IDSet
	NonCustomers IDSet
}

// NewPartition validates the roster against the eligible set and splits it
func NewPartition(all, customers IDSet) (Partition, error) {
	non, err := NonCustomerIDs(all, customers)
	if err != nil {
		return Partition{}, err
	}
	return Partition{
		All:          all,
		Customers:    all.Intersect(customers),
		NonCustomers: non,
	}, nil
}

// Tags returns the membership label of every eligible institution
func (p Partition) Tags() []Tag {
	return TagMembership(p.All, p.Customers)
}

// MarketShare returns the customer percentage of the eligible pool
func (p Partition) MarketShare() float64 {
	return MarketShare(p.All, p.Customers)
}

func (p Partition) String() string {
	return fmt.Sprintf("%d eligible, %d customers, %d non-customers",
		p.All.Len(), p.Customers.Len(), p.NonCustomers.Len())
}
