package viz

import (
	"math"

	"github.com/san-kum/finsim/internal/hydro"
)

const (
	// chordFraction is the drawn chord length relative to the cycle width.
	chordFraction = 0.12
	headroom      = 1.3
)

// FoilView draws the heave path over one cycle, flow from left to right, and
// the wing chord at sample current tilted by its pitch angle. The path is
// normalized to the stroke amplitude.
func FoilView(samples []hydro.Sample, current, width, height int) string {
	c := NewCanvas(width, height)
	if len(samples) < 2 {
		return c.String()
	}

	amp := 0.0
	for _, s := range samples {
		amp = math.Max(amp, math.Abs(s.Z))
	}
	if amp == 0 {
		amp = 1
	}

	span := float64(len(samples) - 1)
	chord := chordFraction * span
	vp := c.Viewport(-chord/2, span+chord/2, -headroom, headroom)

	for i := 1; i < len(samples); i++ {
		vp.Line(float64(i-1), samples[i-1].Z/amp, float64(i), samples[i].Z/amp)
	}

	// World units differ per axis; aspect converts an x length to y units so
	// the chord keeps its angle on screen.
	aspect := (2 * headroom / float64(height*4)) / ((span + chord) / float64(width*2))

	current = max(0, min(current, len(samples)-1))
	s := samples[current]
	x, z := float64(current), s.Z/amp
	dx := math.Cos(s.Pitch) * chord / 2
	dz := math.Sin(s.Pitch) * chord / 2 * aspect
	vp.Line(x-dx, z-dz, x+dx, z+dz)

	return c.String()
}
