// Package match pairs each non-customer institution with its most similar
// customer in a normalized feature space.
//
// The distance matrix is dense: customers × non-customers float64 cells.
// A few thousand institutions on each side is 10⁶–10⁷ cells (8–80 MB),
// which is fine in memory. Matcher refuses anything above MaxCells; larger
// cohorts need a chunked or approximate nearest-neighbor search instead.
package match

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/features"
)

// DefaultMaxCells caps the distance matrix at roughly 400 MB
const DefaultMaxCells = 50_000_000

// ErrMatrixTooLarge is returned when customers × non-customers exceeds MaxCells
var ErrMatrixTooLarge = errors.New("distance matrix too large")

// Match is the nearest customer of one non-customer institution
type Match struct {
	ID              dataset.UnitID `json:"unitid"`
	NearestCustomer dataset.UnitID `json:"unitid_of_most_similar_member"`
	Distance        float64        `json:"distance_with_closest_members"`
}

// Matcher finds nearest customers
type Matcher struct {
	// MaxCells bounds the distance matrix; 0 means DefaultMaxCells
	MaxCells int
}

// New returns a Matcher with the given cell limit
func New(maxCells int) *Matcher {
	return &Matcher{MaxCells: maxCells}
}

func (m *Matcher) maxCells() int {
	if m == nil || m.MaxCells <= 0 {
		return DefaultMaxCells
	}
	return m.MaxCells
}

// Match computes the nearest customer for every non-customer over the given
// feature columns and returns the n closest pairs, closest first. Ties keep
// the non-customer table order. n <= 0 returns every match.
//
// Both tables must be complete in columns; drop incomplete rows first.
func (m *Matcher) Match(customers, nonCustomers *dataset.Table, columns []string, n int) ([]Match, error) {
	if customers.Len() == 0 {
		return nil, fmt.Errorf("match: no customer institutions to match against")
	}
	if nonCustomers.Len() == 0 {
		return nil, nil
	}
	if cells := customers.Len() * nonCustomers.Len(); cells > m.maxCells() {
		return nil, fmt.Errorf("%w: %d customers × %d non-customers = %d cells (limit %d)",
			ErrMatrixTooLarge, customers.Len(), nonCustomers.Len(), cells, m.maxCells())
	}

	x, err := features.Matrix(customers, columns)
	if err != nil {
		return nil, fmt.Errorf("customer features: %w", err)
	}
	y, err := features.Matrix(nonCustomers, columns)
	if err != nil {
		return nil, fmt.Errorf("non-customer features: %w", err)
	}

	xn, yn, _, err := Normalize(x, y)
	if err != nil {
		return nil, err
	}
	d, err := SquaredDistances(xn, yn)
	if err != nil {
		return nil, err
	}

	customerIDs := customers.IDs()
	neighbors := Nearest(d)
	matches := make([]Match, len(neighbors))
	for j, id := range nonCustomers.IDs() {
		matches[j] = Match{
			ID:              id,
			NearestCustomer: customerIDs[neighbors[j].Row],
			Distance:        neighbors[j].Distance,
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if n > 0 && len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}
