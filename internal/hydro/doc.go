// Package hydro integrates one oscillation cycle of a heaving and pitching
// lifting surface moving through water at constant forward speed.
//
// A cycle is discretized into evenly spaced samples over exactly one period,
// endpoints included. For each sample the package derives the time-warped
// stroke kinematics, the quasi-steady thin-airfoil forces, the force left over
// for the rider after the moving mass has been accelerated, and the power
// extracted on the downstroke:
//
//   - [Params]: immutable parameter set for one evaluation
//   - [Samples]: lazy ordered sequence of [Sample] values over one period
//   - [Simulate]: cycle-averaged lift, thrust and power ([Result])
//   - [Integrator]: [Simulate] with attached [Metric] observers
//
// # Example
//
//	p := hydro.DefaultParams(70, 16, 1500, 1.4)
//	res := hydro.Simulate(p, hydro.DefaultSteps)
//	fmt.Println(res.Lift, res.Thrust, res.Power)
//
// The integrator performs no validation. Callers supply amplitudes and trims
// in numerically safe ranges; non-finite values propagate into the result.
// Use [Params.Validate] at the edges of the program.
package hydro
