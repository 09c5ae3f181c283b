package analysis

import (
	"fmt"
	"sort"

	"github.com/san-kum/finsim/internal/hydro"
)

// ScanPoint is the cycle result for one value of the scanned parameter.
type ScanPoint struct {
	Param  float64
	Result hydro.Result
}

var scanSetters = map[string]func(*hydro.Params, float64){
	"trim":  func(p *hydro.Params, v float64) { p.PitchTrimDeg = v },
	"amp":   func(p *hydro.Params, v float64) { p.HeaveAmp = v },
	"freq":  func(p *hydro.Params, v float64) { p.Freq = v },
	"speed": func(p *hydro.Params, v float64) { p.SpeedKmh = v },
	"mass":  func(p *hydro.Params, v float64) { p.Mass = v },
	"asym":  func(p *hydro.Params, v float64) { p.Asymmetry = v },
	"phase": func(p *hydro.Params, v float64) { p.PhaseShiftDeg = v },
	"cd0":   func(p *hydro.Params, v float64) { p.Cd0 = v },
	"ar":    func(p *hydro.Params, v float64) { p.AspectRatio = v },
	"swing": func(p *hydro.Params, v float64) { p.SwingRatio = v },
}

// ScanParams lists the parameter names accepted by Scan.
func ScanParams() []string {
	names := make([]string, 0, len(scanSetters))
	for name := range scanSetters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scan integrates one cycle for each of n values of param evenly spaced over
// [min, max], holding the rest of base fixed.
func Scan(base hydro.Params, param string, min, max float64, n, steps int) ([]ScanPoint, error) {
	set, ok := scanSetters[param]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, param)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: %d scan points", ErrInsufficientData, n)
	}

	step := 0.0
	if n > 1 {
		step = (max - min) / float64(n-1)
	}

	points := make([]ScanPoint, n)
	for i := range points {
		v := min + float64(i)*step
		if i == n-1 && n > 1 {
			v = max
		}
		p := base
		set(&p, v)
		points[i] = ScanPoint{Param: v, Result: hydro.Simulate(p, steps)}
	}
	return points, nil
}
