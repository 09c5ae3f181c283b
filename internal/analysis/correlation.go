package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds pairwise Pearson coefficients between named
// columns. Rows and columns of a constant input column are NaN.
type CorrelationMatrix struct {
	Names  []string
	Values *mat.SymDense
}

func (c *CorrelationMatrix) At(i, j int) float64 { return c.Values.At(i, j) }

// Get looks up a coefficient by column names.
func (c *CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := c.index(a), c.index(b)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return c.Values.At(i, j), true
}

func (c *CorrelationMatrix) index(name string) int {
	for i, n := range c.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Correlation computes the correlation matrix of the named columns in order.
// Every column must have the same length of at least two.
func Correlation(columns map[string][]float64, order []string) (*CorrelationMatrix, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInsufficientData)
	}
	n := len(columns[order[0]])
	if n < 2 {
		return nil, fmt.Errorf("%w: %d rows", ErrInsufficientData, n)
	}

	data := mat.NewDense(n, len(order), nil)
	constant := make([]bool, len(order))
	for j, name := range order {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: column %q", ErrInsufficientData, name)
		}
		if len(col) != n {
			return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(col), n)
		}
		data.SetCol(j, col)
		constant[j] = isConstant(col)
	}

	corr := mat.NewSymDense(len(order), nil)
	stat.CorrelationMatrix(corr, data, nil)

	nan := math.NaN()
	for i := range order {
		if !constant[i] {
			continue
		}
		for j := range order {
			corr.SetSym(i, j, nan)
		}
	}

	return &CorrelationMatrix{Names: append([]string(nil), order...), Values: corr}, nil
}

func isConstant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
