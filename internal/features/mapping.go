package features

import "fmt"

// Pair maps one source column to its new name
type Pair struct {
	From string
	To   string
}

// Mapping is an ordered column rename table. Source and target names are
// each unique.
type Mapping struct {
	pairs []Pair
	from  map[string]int
	to    map[string]int
}

// NewMapping builds a mapping, rejecting empty or repeated names
func NewMapping(pairs ...Pair) (Mapping, error) {
	m := Mapping{
		pairs: make([]Pair, 0, len(pairs)),
		from:  make(map[string]int, len(pairs)),
		to:    make(map[string]int, len(pairs)),
	}
	for _, p := range pairs {
		if p.From == "" || p.To == "" {
			return Mapping{}, fmt.Errorf("mapping: empty column name in %q -> %q", p.From, p.To)
		}
		if _, dup := m.from[p.From]; dup {
			return Mapping{}, fmt.Errorf("mapping: duplicate source column %q", p.From)
		}
		if _, dup := m.to[p.To]; dup {
			return Mapping{}, fmt.Errorf("mapping: duplicate target column %q", p.To)
		}
		m.from[p.From] = len(m.pairs)
		m.to[p.To] = len(m.pairs)
		m.pairs = append(m.pairs, p)
	}
	return m, nil
}

// MustMapping is NewMapping for static tables; it panics on error
func MustMapping(pairs ...Pair) Mapping {
	m, err := NewMapping(pairs...)
	if err != nil {
		panic(err)
	}
	return m
}

// Identity maps each column to itself
func Identity(columns ...string) (Mapping, error) {
	pairs := make([]Pair, len(columns))
	for i, c := range columns {
		pairs[i] = Pair{From: c, To: c}
	}
	return NewMapping(pairs...)
}

// Len returns the number of pairs
func (m Mapping) Len() int {
	return len(m.pairs)
}

// Pairs returns the pairs in order
func (m Mapping) Pairs() []Pair {
	out := make([]Pair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Sources returns the source column names in order
func (m Mapping) Sources() []string {
	out := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		out[i] = p.From
	}
	return out
}

// Targets returns the target column names in order
func (m Mapping) Targets() []string {
	out := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		out[i] = p.To
	}
	return out
}

// Target returns the new name for a source column
func (m Mapping) Target(from string) (string, bool) {
	i, ok := m.from[from]
	if !ok {
		return "", false
	}
	return m.pairs[i].To, true
}

// HasTarget reports whether name is one of the mapping's targets
func (m Mapping) HasTarget(name string) bool {
	_, ok := m.to[name]
	return ok
}
