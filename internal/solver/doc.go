// Package solver finds the kinematic operating point of the foil: the pitch
// trim and heave amplitude at which the cycle-averaged vertical force carries
// the rider's weight and the net horizontal force vanishes.
//
// The residual (lift - weight, thrust) is evaluated with [hydro.Simulate] and
// driven to zero by [LevenbergMarquardt], a damped least-squares solver with a
// forward-difference Jacobian. Amplitudes outside the search window return a
// large constant residual instead of being integrated, which fences the search
// without raising an error.
//
// A solve either yields a [Record] or nothing. Non-convergence and solutions
// outside the admissible window are not errors; only non-finite residuals are
// reported, wrapping [ErrNonFinite].
//
// # Thread Safety
//
// [Solver] holds only immutable configuration. Every call to [Solver.Solve]
// owns its own working parameter set, so one Solver may be shared by
// concurrent sweeps.
package solver
