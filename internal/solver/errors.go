package solver

import "errors"

var (
	// ErrNonFinite indicates the residual produced NaN or Inf values.
	ErrNonFinite = errors.New("solver: non-finite residual")

	// ErrMaxEvaluations indicates the evaluation budget ran out before any
	// convergence criterion was met.
	ErrMaxEvaluations = errors.New("solver: maximum function evaluations reached")

	// ErrStalled indicates no further reduction is possible at the requested
	// tolerances.
	ErrStalled = errors.New("solver: tolerances too small, no further improvement possible")

	// ErrDimension indicates mismatched problem dimensions.
	ErrDimension = errors.New("solver: dimension mismatch")
)
