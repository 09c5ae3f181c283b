package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const machEps = 2.220446049250313e-16

// Problem is a nonlinear system of M residuals in N unknowns. Func writes the
// residual at x into dst.
type Problem struct {
	M, N int
	Func func(dst, x []float64)
}

// Settings control termination of [LevenbergMarquardt]. Zero values select
// MINPACK's defaults.
type Settings struct {
	FTol     float64 // relative reduction of the sum of squares
	XTol     float64 // relative change of the scaled solution
	GTol     float64 // orthogonality of residual and Jacobian columns
	MaxEvals int     // residual evaluations, Jacobian columns included
	// Factor scales the initial damping relative to the largest diagonal
	// entry of JᵀJ.
	Factor float64
}

func DefaultSettings() Settings {
	return Settings{
		FTol:     1.49012e-8,
		XTol:     1.49012e-8,
		GTol:     0,
		MaxEvals: 0,
		Factor:   1e-3,
	}
}

// evalBudget is MaxEvals, or 200·(n+1) when unset, the budget MINPACK's
// lmdif gets without an analytic Jacobian.
func (s Settings) evalBudget(n int) int {
	if s.MaxEvals > 0 {
		return s.MaxEvals
	}
	return 200 * (n + 1)
}

// Status tells which criterion ended the iteration.
type Status int

const (
	NotTerminated Status = iota
	FunctionConvergence
	StepConvergence
	FunctionAndStepConvergence
	GradientConvergence
	EvaluationLimit
	Stalled
)

func (s Status) String() string {
	switch s {
	case FunctionConvergence:
		return "ftol"
	case StepConvergence:
		return "xtol"
	case FunctionAndStepConvergence:
		return "ftol+xtol"
	case GradientConvergence:
		return "gtol"
	case EvaluationLimit:
		return "max evaluations"
	case Stalled:
		return "stalled"
	default:
		return "not terminated"
	}
}

// Converged reports whether the status is one of the success criteria.
func (s Status) Converged() bool {
	return s >= FunctionConvergence && s <= GradientConvergence
}

type LMResult struct {
	X          []float64
	Residual   []float64
	Status     Status
	Evals      int
	Iterations int
}

// Cost returns ½‖r‖².
func (r *LMResult) Cost() float64 {
	n := floats.Norm(r.Residual, 2)
	return 0.5 * n * n
}

// LevenbergMarquardt minimizes ‖f(x)‖² starting at x0. The damping is
// adapted with Nielsen's rule and the step is scaled by the running maximum of
// the Jacobian column norms. A converged result returns a nil error; an
// exhausted budget or a stall returns the last iterate together with
// ErrMaxEvaluations or ErrStalled.
func LevenbergMarquardt(p Problem, x0 []float64, settings *Settings) (*LMResult, error) {
	if p.N != len(x0) || p.N == 0 || p.M < p.N || p.Func == nil {
		return nil, fmt.Errorf("%w: m=%d n=%d len(x0)=%d", ErrDimension, p.M, p.N, len(x0))
	}
	s := DefaultSettings()
	if settings != nil {
		s = *settings
	}
	s.MaxEvals = s.evalBudget(p.N)
	if s.Factor <= 0 {
		s.Factor = 1e-3
	}

	m, n := p.M, p.N
	x := make([]float64, n)
	copy(x, x0)
	r := make([]float64, m)
	p.Func(r, x)
	res := &LMResult{X: x, Residual: r, Evals: 1}
	if !allFinite(r) {
		return res, fmt.Errorf("%w at x=%v", ErrNonFinite, x)
	}

	jac := mat.NewDense(m, n, nil)
	diag := make([]float64, n)
	colNorm := make([]float64, n)
	xTrial := make([]float64, n)
	rTrial := make([]float64, m)
	step := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(n, nil)
	jStep := mat.NewVecDense(m, nil)
	var jtj mat.SymDense
	var chol mat.Cholesky

	fnorm := floats.Norm(r, 2)
	mu := -1.0
	nu := 2.0

	for {
		if fnorm == 0 {
			res.Status = FunctionAndStepConvergence
			return res, nil
		}

		fd.Jacobian(jac, p.Func, x, &fd.JacobianSettings{
			Formula:     fd.Forward,
			OriginValue: r,
			Step:        jacobianStep(x),
		})
		res.Evals += n
		res.Iterations++

		rv := mat.NewVecDense(m, r)
		grad.MulVec(jac.T(), rv)
		jtj.SymOuterK(1, jac.T())

		for j := 0; j < n; j++ {
			colNorm[j] = math.Sqrt(jtj.At(j, j))
		}
		if !allFinite(colNorm) {
			return res, fmt.Errorf("%w: jacobian at x=%v", ErrNonFinite, x)
		}

		gnorm := 0.0
		for j := 0; j < n; j++ {
			if colNorm[j] == 0 {
				continue
			}
			gnorm = math.Max(gnorm, math.Abs(grad.AtVec(j))/(colNorm[j]*fnorm))
		}
		if gnorm <= s.GTol {
			res.Status = GradientConvergence
			return res, nil
		}

		for j := 0; j < n; j++ {
			d := colNorm[j]
			if d == 0 {
				d = 1
			}
			diag[j] = math.Max(diag[j], d)
		}
		if mu < 0 {
			peak := 0.0
			for j := 0; j < n; j++ {
				peak = math.Max(peak, jtj.At(j, j))
			}
			if peak == 0 {
				peak = 1
			}
			mu = s.Factor * peak
		}

		for {
			damped := mat.NewSymDense(n, nil)
			damped.CopySym(&jtj)
			for j := 0; j < n; j++ {
				damped.SetSym(j, j, jtj.At(j, j)+mu*diag[j]*diag[j])
			}
			if !chol.Factorize(damped) {
				mu *= nu
				nu *= 2
				if math.IsInf(mu, 0) {
					res.Status = Stalled
					return res, ErrStalled
				}
				continue
			}
			negGrad := mat.NewVecDense(n, nil)
			negGrad.ScaleVec(-1, grad)
			if err := chol.SolveVecTo(step, negGrad); err != nil {
				mu *= nu
				nu *= 2
				continue
			}

			pnorm, xnorm := 0.0, 0.0
			for j := 0; j < n; j++ {
				xTrial[j] = x[j] + step.AtVec(j)
				pnorm += math.Pow(diag[j]*step.AtVec(j), 2)
				xnorm += math.Pow(diag[j]*x[j], 2)
			}
			pnorm, xnorm = math.Sqrt(pnorm), math.Sqrt(xnorm)

			p.Func(rTrial, xTrial)
			res.Evals++
			if !allFinite(rTrial) {
				return res, fmt.Errorf("%w at x=%v", ErrNonFinite, xTrial)
			}
			fnormTrial := floats.Norm(rTrial, 2)

			actred := -1.0
			if 0.1*fnormTrial < fnorm {
				actred = 1 - math.Pow(fnormTrial/fnorm, 2)
			}
			jStep.MulVec(jac, step)
			t1 := jStep.Norm(2) / fnorm
			t2 := math.Sqrt(mu) * pnorm / fnorm
			prered := t1*t1 + 2*t2*t2
			ratio := 0.0
			if prered != 0 {
				ratio = actred / prered
			}

			accepted := ratio > 1e-4
			if accepted {
				copy(x, xTrial)
				copy(r, rTrial)
				fnorm = fnormTrial
				mu *= math.Max(1.0/3, 1-math.Pow(2*ratio-1, 3))
				nu = 2
			} else {
				mu *= nu
				nu *= 2
			}

			ftolMet := math.Abs(actred) <= s.FTol && prered <= s.FTol && 0.5*ratio <= 1
			xtolMet := pnorm <= s.XTol*xnorm
			switch {
			case ftolMet && xtolMet:
				res.Status = FunctionAndStepConvergence
				return res, nil
			case ftolMet:
				res.Status = FunctionConvergence
				return res, nil
			case xtolMet:
				res.Status = StepConvergence
				return res, nil
			}

			if res.Evals >= s.MaxEvals {
				res.Status = EvaluationLimit
				return res, ErrMaxEvaluations
			}
			if math.Abs(actred) <= machEps && prered <= machEps && 0.5*ratio <= 1 {
				res.Status = Stalled
				return res, ErrStalled
			}
			if pnorm <= machEps*xnorm || math.IsInf(mu, 0) {
				res.Status = Stalled
				return res, ErrStalled
			}

			if accepted {
				break
			}
		}
	}
}

// jacobianStep is one forward-difference step shared by every Jacobian
// column: √ε scaled by the largest component of the iterate.
func jacobianStep(x []float64) float64 {
	h := math.Sqrt(machEps) * floats.Norm(x, math.Inf(1))
	if h == 0 {
		h = math.Sqrt(machEps)
	}
	return h
}

func allFinite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
