package match

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
)

// ColumnNorms returns the L2 norm of every column of x. A zero norm would
// make normalization divide by zero, so it is a DegenerateInputError.
func ColumnNorms(x *mat.Dense) ([]float64, error) {
	_, p := x.Dims()
	norms := make([]float64, p)
	for j := 0; j < p; j++ {
		norms[j] = floats.Norm(mat.Col(nil, j, x), 2)
		if norms[j] == 0 {
			return nil, &dataset.DegenerateInputError{
				Stage:  "normalize",
				Reason: fmt.Sprintf("feature column %d is zero for every customer", j),
			}
		}
	}
	return norms, nil
}

// Normalize divides both matrices column-wise by the customer column norms.
// Non-customers are scaled by the customer norms, not their own, which
// places them in the geometry defined by the customer population.
func Normalize(customers, nonCustomers *mat.Dense) (*mat.Dense, *mat.Dense, []float64, error) {
	_, p := customers.Dims()
	if _, q := nonCustomers.Dims(); p != q {
		return nil, nil, nil, fmt.Errorf("normalize: customers have %d features, non-customers %d", p, q)
	}
	norms, err := ColumnNorms(customers)
	if err != nil {
		return nil, nil, nil, err
	}

	scale := func(_, j int, v float64) float64 { return v / norms[j] }
	var c, nc mat.Dense
	c.Apply(scale, customers)
	nc.Apply(scale, nonCustomers)
	return &c, &nc, norms, nil
}

// SquaredDistances returns the n×m matrix of squared Euclidean distances
// between the rows of x (n×p) and the rows of y (m×p), using
// |x-y|² = |x|² - 2·x·y + |y|² so the work is one n×p×m matrix product.
// Round-off below zero is clamped to zero.
func SquaredDistances(x, y *mat.Dense) (*mat.Dense, error) {
	n, p := x.Dims()
	m, q := y.Dims()
	if p != q {
		return nil, fmt.Errorf("distances: %d features vs %d", p, q)
	}

	xs := rowSquaredNorms(x)
	ys := rowSquaredNorms(y)

	var xy mat.Dense
	xy.Mul(x, y.T())

	d := mat.NewDense(n, m, nil)
	d.Apply(func(i, j int, v float64) float64 {
		s := xs[i] - 2*v + ys[j]
		if s < 0 {
			return 0
		}
		return s
	}, &xy)
	return d, nil
}

func rowSquaredNorms(x *mat.Dense) []float64 {
	r, _ := x.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		row := x.RawRowView(i)
		out[i] = floats.Dot(row, row)
	}
	return out
}

// Neighbor is the closest row for one column of a distance matrix
type Neighbor struct {
	Row      int
	Distance float64
}

// Nearest returns, for every column j of d, the row with the smallest
// value. Ties go to the lowest row index.
func Nearest(d *mat.Dense) []Neighbor {
	n, m := d.Dims()
	out := make([]Neighbor, m)
	for j := 0; j < m; j++ {
		best := Neighbor{Row: 0, Distance: d.At(0, j)}
		for i := 1; i < n; i++ {
			if v := d.At(i, j); v < best.Distance {
				best = Neighbor{Row: i, Distance: v}
			}
		}
		out[j] = best
	}
	return out
}
