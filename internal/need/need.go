// Package need ranks non-customer institutions by a composite need score:
// the weighted sum of z-scored features, with selected features sign-flipped.
package need

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
	"github.com/vijay-prabhu/ipeds-prospector/internal/features"
)

// varianceTolerance treats a standard deviation this small (relative to the
// column mean) as no variance at all.
const varianceTolerance = 1e-12

// Config describes how raw features combine into a need score
type Config struct {
	// Features maps raw feature columns to standardized column names
	Features features.Mapping
	// Flip lists standardized names whose sign is inverted before summing
	// (features where a higher raw value means lower need)
	Flip []string
	// Weights by standardized name; absent names weigh 1.0
	Weights map[string]float64
}

// Validate checks that flip and weight keys name standardized features
func (c Config) Validate() error {
	var errs []error
	if c.Features.Len() == 0 {
		errs = append(errs, errors.New("need: at least one feature is required"))
	}
	for _, name := range c.Flip {
		if !c.Features.HasTarget(name) {
			errs = append(errs, fmt.Errorf("need: flip entry %q is not a standardized feature", name))
		}
	}
	for name, w := range c.Weights {
		if !c.Features.HasTarget(name) {
			errs = append(errs, fmt.Errorf("need: weight for %q is not a standardized feature", name))
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			errs = append(errs, fmt.Errorf("need: weight for %q must be finite", name))
		}
	}
	return errors.Join(errs...)
}

func (c Config) weight(name string) float64 {
	if w, ok := c.Weights[name]; ok {
		return w
	}
	return 1.0
}

func (c Config) flipped(name string) bool {
	for _, f := range c.Flip {
		if f == name {
			return true
		}
	}
	return false
}

// Score is one institution's need score with its post-flip standardized parts
type Score struct {
	ID         dataset.UnitID     `json:"unitid"`
	Value      float64            `json:"need_score"`
	Components map[string]float64 `json:"components,omitempty"`
}

// Standardize returns (x - mean) / σ using the population standard
// deviation. A feature without variance is a DegenerateInputError.
func Standardize(values []float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, &dataset.DegenerateInputError{Stage: "standardize", Reason: "no values"}
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	sd := math.Sqrt(variance)
	if sd <= varianceTolerance*math.Max(1, math.Abs(mean)) {
		return nil, &dataset.DegenerateInputError{Stage: "standardize", Reason: "zero variance"}
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - mean) / sd
	}
	return out, nil
}

// Compute scores every row of t. Standardization is relative
// to the rows of t, so t should hold exactly the pool being ranked.
func Compute(t *dataset.Table, cfg Config) ([]Score, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ids := t.IDs()
	scores := make([]Score, len(ids))
	for i, id := range ids {
		scores[i] = Score{ID: id, Components: make(map[string]float64, cfg.Features.Len())}
	}

	for _, p := range cfg.Features.Pairs() {
		raw, err := t.Numbers(p.From)
		if err != nil {
			return nil, err
		}
		for i, v := range raw {
			if math.IsNaN(v) {
				return nil, &dataset.SchemaError{
					Table:  t.Name(),
					Column: p.From,
					Reason: "missing value in need feature",
					IDs:    []dataset.UnitID{ids[i]},
				}
			}
		}

		z, err := Standardize(raw)
		if err != nil {
			var de *dataset.DegenerateInputError
			if errors.As(err, &de) {
				de.Column = p.From
			}
			return nil, err
		}

		sign := 1.0
		if cfg.flipped(p.To) {
			sign = -1.0
		}
		w := cfg.weight(p.To)
		for i := range scores {
			part := sign * z[i]
			scores[i].Components[p.To] = part
			scores[i].Value += w * part
		}
	}
	return scores, nil
}

// Rank scores t and returns the n highest scores, highest first. Ties keep
// table order. n <= 0 returns every score.
func Rank(t *dataset.Table, cfg Config, n int) ([]Score, error) {
	scores, err := Compute(t, cfg)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Value > scores[j].Value
	})
	if n > 0 && len(scores) > n {
		scores = scores[:n]
	}
	return scores, nil
}
