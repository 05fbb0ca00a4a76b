package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by every analysis stage
var (
	ErrSchema          = errors.New("schema error")
	ErrDegenerateInput = errors.New("degenerate input")
)

// SchemaError reports a missing column, an unknown identifier, or a
// structurally invalid table. It is always fatal.
type SchemaError struct {
	Table  string
	Column string
	IDs    []UnitID
	Reason string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error")
	if e.Table != "" {
		fmt.Fprintf(&b, " in %s", e.Table)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " (%d ids: %s)", len(e.IDs), formatIDs(e.IDs, 10))
	}
	return b.String()
}

// Is makes errors.Is(err, ErrSchema) work
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// DegenerateInputError reports input that makes a computation undefined:
// a feature without variance or a proportion group whose total is zero.
type DegenerateInputError struct {
	Stage  string
	Column string
	IDs    []UnitID
	Reason string
}

func (e *DegenerateInputError) Error() string {
	var b strings.Builder
	b.WriteString("degenerate input")
	if e.Stage != "" {
		fmt.Fprintf(&b, " in %s", e.Stage)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": %q", e.Column)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " (%d ids: %s)", len(e.IDs), formatIDs(e.IDs, 10))
	}
	return b.String()
}

// Is makes errors.Is(err, ErrDegenerateInput) work
func (e *DegenerateInputError) Is(target error) bool {
	return target == ErrDegenerateInput
}

// DataQualityWarning records rows excluded before an analysis step.
// It is not an error; callers log it and carry it in their results.
type DataQualityWarning struct {
	Stage   string   `json:"stage"`
	Reason  string   `json:"reason"`
	Dropped []UnitID `json:"dropped_ids"`
	Pool    int      `json:"pool_size"`
}

// Empty reports whether nothing was dropped
func (w DataQualityWarning) Empty() bool {
	return len(w.Dropped) == 0
}

func (w DataQualityWarning) String() string {
	return fmt.Sprintf("%s: dropped %d of %d rows (%s)", w.Stage, len(w.Dropped), w.Pool, w.Reason)
}

func formatIDs(ids []UnitID, max int) string {
	parts := make([]string, 0, max+1)
	for i, id := range ids {
		if i == max {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ", ")
}
