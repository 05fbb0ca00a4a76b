// Package penetration ranks regions by the share of their eligible
// institutions that are already customers.
package penetration

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/membership"
)

// UnknownRegion groups institutions with an empty region value
const UnknownRegion = "unknown"

// Region is the customer/non-customer breakdown of one region
type Region struct {
	Name         string  `json:"region"`
	Customers    int     `json:"customer_count"`
	NonCustomers int     `json:"non_customer_count"`
	Total        int     `json:"total"`
	Penetration  float64 `json:"penetration"`
}

// Aggregate groups tagged institutions by the value of regionColumn and
// computes each region's penetration. Regions are returned in order of
// first appearance.
func Aggregate(t *dataset.Table, tags []membership.Tag, regionColumn string) ([]Region, error) {
	_, field, ok := t.Schema().Lookup(regionColumn)
	if !ok {
		return nil, &dataset.SchemaError{Table: t.Name(), Column: regionColumn, Reason: "region column not found"}
	}

	byName := make(map[string]*Region)
	var order []string
	var unknown []dataset.UnitID
	for _, tag := range tags {
		if !t.Has(tag.ID) {
			unknown = append(unknown, tag.ID)
			continue
		}
		v, err := t.Value(tag.ID, regionColumn)
		if err != nil {
			return nil, err
		}
		name := regionName(v, field.Kind)

		r, ok := byName[name]
		if !ok {
			r = &Region{Name: name}
			byName[name] = r
			order = append(order, name)
		}
		switch tag.Status {
		case membership.StatusCustomer:
			r.Customers++
		default:
			r.NonCustomers++
		}
	}
	if len(unknown) > 0 {
		return nil, &dataset.SchemaError{
			Table:  t.Name(),
			Reason: "tagged institutions missing from statistics table",
			IDs:    unknown,
		}
	}

	regions := make([]Region, 0, len(order))
	for _, name := range order {
		r := byName[name]
		r.Total = r.Customers + r.NonCustomers
		r.Penetration = float64(r.Customers) / float64(r.Total)
		regions = append(regions, *r)
	}
	return regions, nil
}

// Rank orders regions by ascending penetration (lowest first, the best
// opportunities), breaking ties by name, and keeps the first n. n <= 0
// keeps every region. The input slice is not modified.
func Rank(regions []Region, n int) []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Penetration != out[j].Penetration {
			return out[i].Penetration < out[j].Penetration
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Totals sums the customer and non-customer counts over all regions
func Totals(regions []Region) (customers, nonCustomers int) {
	for _, r := range regions {
		customers += r.Customers
		nonCustomers += r.NonCustomers
	}
	return customers, nonCustomers
}

func regionName(v dataset.Value, kind dataset.Kind) string {
	if v.Null {
		return UnknownRegion
	}
	if kind == dataset.Number {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	if name := strings.TrimSpace(v.Text); name != "" {
		return name
	}
	return UnknownRegion
}
