package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/san-kum/finsim/internal/hydro"
)

// Harmonics returns the amplitude of the k-th harmonic of value over one
// cycle, k = 0 being the mean. The closing sample of an endpoint-inclusive
// cycle repeats the first and is left out.
func Harmonics(samples []hydro.Sample, value func(hydro.Sample) float64) []float64 {
	if len(samples) > 1 {
		samples = samples[:len(samples)-1]
	}
	n := len(samples)
	if n == 0 {
		return nil
	}

	seq := make([]float64, n)
	for i, s := range samples {
		seq[i] = value(s)
	}

	coeff := fourier.NewFFT(n).Coefficients(nil, seq)
	amps := make([]float64, len(coeff))
	for k, c := range coeff {
		a := cmplx.Abs(c) / float64(n)
		if k > 0 && !(n%2 == 0 && k == n/2) {
			a *= 2
		}
		amps[k] = a
	}
	return amps
}
