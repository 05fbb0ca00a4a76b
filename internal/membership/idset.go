package membership

import (
	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
)

// IDSet is an ordered set of institution IDs. Insertion order is kept so
// that every derived ordering (and tie-break) is deterministic.
type IDSet struct {
	ids  []dataset.UnitID
	seen map[dataset.UnitID]struct{}
}

// NewIDSet builds a set, dropping duplicates after their first occurrence
func NewIDSet(ids ...dataset.UnitID) IDSet {
	s := IDSet{
		ids:  make([]dataset.UnitID, 0, len(ids)),
		seen: make(map[dataset.UnitID]struct{}, len(ids)),
	}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *IDSet) add(id dataset.UnitID) {
	if s.seen == nil {
		s.seen = make(map[dataset.UnitID]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

// Len returns the number of IDs
func (s IDSet) Len() int {
	return len(s.ids)
}

// Contains reports membership
func (s IDSet) Contains(id dataset.UnitID) bool {
	_, ok := s.seen[id]
	return ok
}

// IDs returns the IDs in insertion order
func (s IDSet) IDs() []dataset.UnitID {
	out := make([]dataset.UnitID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Difference returns the IDs of s that are not in other, in s order
func (s IDSet) Difference(other IDSet) IDSet {
	out := NewIDSet()
	for _, id := range s.ids {
		if !other.Contains(id) {
			out.add(id)
		}
	}
	return out
}

// Intersect returns the IDs of s that are also in other, in s order
func (s IDSet) Intersect(other IDSet) IDSet {
	out := NewIDSet()
	for _, id := range s.ids {
		if other.Contains(id) {
			out.add(id)
		}
	}
	return out
}

// Union returns s followed by the IDs of other not already present
func (s IDSet) Union(other IDSet) IDSet {
	out := NewIDSet(s.ids...)
	for _, id := range other.ids {
		out.add(id)
	}
	return out
}
