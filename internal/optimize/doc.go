// Package optimize searches the stroke settings (frequency, heave amplitude,
// pitch trim, asymmetry and phase shift) that minimise the pumping power of a
// rider at a given mass, wing area and speed.
//
// The search is differential evolution (DE/rand/1/bin) followed by a
// shrinking random polish around the best candidate. Equilibrium is a soft
// constraint: lift and thrust errors beyond their tolerances are added to the
// power objective with a large weight, and a candidate is valid only when
// every penalty vanishes.
//
// Runs are reproducible: the random source of a cell is derived from
// [Settings.Seed] and the cell itself, so batches give the same result at any
// worker count.
package optimize
