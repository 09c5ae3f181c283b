package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/finsim/internal/solver"
)

// Poly2 is y = A + B·x + C·x².
type Poly2 struct {
	A, B, C float64
}

func (p Poly2) Eval(x float64) float64 {
	return p.A + x*(p.B+x*p.C)
}

func (p Poly2) String() string {
	return fmt.Sprintf("%.3g %+.3g·x %+.3g·x²", p.A, p.B, p.C)
}

// QuadraticFit returns the least-squares quadratic through (xs, ys). It needs
// at least three distinct x values.
func QuadraticFit(xs, ys []float64) (Poly2, error) {
	if len(xs) != len(ys) {
		return Poly2{}, fmt.Errorf("length mismatch: %d xs, %d ys", len(xs), len(ys))
	}
	if distinct(xs) < 3 {
		return Poly2{}, fmt.Errorf("%w: quadratic fit needs 3 distinct x values", ErrInsufficientData)
	}

	a := mat.NewDense(len(xs), 3, nil)
	for i, x := range xs {
		a.Set(i, 0, 1)
		a.Set(i, 1, x)
		a.Set(i, 2, x*x)
	}
	b := mat.NewVecDense(len(ys), append([]float64(nil), ys...))

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return Poly2{}, fmt.Errorf("quadratic fit: %w", err)
	}
	return Poly2{A: coef.AtVec(0), B: coef.AtVec(1), C: coef.AtVec(2)}, nil
}

func distinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}

// Trend is the power-versus-speed fit for one rider mass.
type Trend struct {
	Mass   float64
	Points int
	Fit    Poly2
}

// TrendByMass fits power against speed for every mass with enough distinct
// speeds. Trends are ordered by mass.
func TrendByMass(records []solver.Record) []Trend {
	groups := make(map[float64][]solver.Record)
	for _, r := range records {
		groups[r.Mass] = append(groups[r.Mass], r)
	}
	masses := make([]float64, 0, len(groups))
	for m := range groups {
		masses = append(masses, m)
	}
	sort.Float64s(masses)

	var trends []Trend
	for _, m := range masses {
		group := groups[m]
		xs := make([]float64, len(group))
		ys := make([]float64, len(group))
		for i, r := range group {
			xs[i] = r.Speed
			ys[i] = r.PowerW
		}
		fit, err := QuadraticFit(xs, ys)
		if err != nil {
			continue
		}
		trends = append(trends, Trend{Mass: m, Points: len(group), Fit: fit})
	}
	return trends
}
