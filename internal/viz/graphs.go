package viz

import (
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/finsim/internal/analysis"
	"github.com/san-kum/finsim/internal/hydro"
)

type trace struct {
	caption string
	value   func(hydro.Sample) float64
}

var cycleTraces = []trace{
	{"heave z (m)", func(s hydro.Sample) float64 { return s.Z }},
	{"angle of attack (°)", func(s hydro.Sample) float64 { return s.Alpha * 180 / math.Pi }},
	{"rider force (N)", func(s hydro.Sample) float64 { return s.RiderForce }},
	{"power (W)", func(s hydro.Sample) float64 { return s.Power }},
}

// CycleGraphs plots heave, angle of attack, rider force and power over one
// cycle, one chart per quantity.
func CycleGraphs(samples []hydro.Sample, width, height int) string {
	if len(samples) < 2 {
		return Subtle.Render("(not enough samples)")
	}
	charts := make([]string, 0, len(cycleTraces))
	for _, tr := range cycleTraces {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = tr.value(s)
		}
		charts = append(charts, asciigraph.Plot(data,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(tr.caption)))
	}
	return strings.Join(charts, "\n\n")
}

// ScanGraph plots lift, thrust and power against the scanned parameter.
func ScanGraph(points []analysis.ScanPoint, param string, width, height int) string {
	if len(points) < 2 {
		return Subtle.Render("(not enough points)")
	}
	lift := make([]float64, len(points))
	thrust := make([]float64, len(points))
	power := make([]float64, len(points))
	for i, p := range points {
		lift[i] = p.Result.Lift
		thrust[i] = p.Result.Thrust
		power[i] = p.Result.Power
	}
	opts := func(caption string) []asciigraph.Option {
		return []asciigraph.Option{
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(caption + " vs " + param),
		}
	}
	return strings.Join([]string{
		asciigraph.Plot(lift, opts("lift (N)")...),
		asciigraph.Plot(thrust, opts("thrust (N)")...),
		asciigraph.Plot(power, opts("power (W)")...),
	}, "\n\n")
}
