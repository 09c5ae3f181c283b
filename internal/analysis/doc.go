// Package analysis summarizes equilibrium datasets and single cycles.
//
// Dataset tools operate on solved records:
//
//   - [Correlation]: Pearson correlation matrix of the dataset columns
//   - [QuadraticFit] and [TrendByMass]: power-versus-speed trend lines
//   - [Summarize]: mean, spread and range of the solved quantities
//
// Cycle tools operate on the integrator directly:
//
//   - [Scan]: one cycle parameter swept with the others held fixed
//   - [Harmonics]: Fourier amplitudes of a per-sample quantity over one period
//
// # Trends
//
// Power grows roughly quadratically with speed for a fixed rider:
//
//	for _, tr := range analysis.TrendByMass(records) {
//	    fmt.Println(tr.Mass, tr.Fit)
//	}
package analysis
