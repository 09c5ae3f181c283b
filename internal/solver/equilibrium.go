package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/finsim/internal/hydro"
)

const (
	// WingAreaCm2 is the planform area every equilibrium is solved for.
	WingAreaCm2 = 1500.0

	SeedTrimDeg = 2.0
	SeedAmp     = 0.15

	// Search window for the heave amplitude: (SearchAmpMin, SearchAmpMax].
	SearchAmpMin = 0.01
	SearchAmpMax = 0.45
	// PenaltyResidual is returned for both components outside the window.
	PenaltyResidual = 1e3

	// Admissible solutions: AdmitAmpMin < amp < AdmitAmpMax, |trim| < AdmitTrimMax.
	AdmitAmpMin  = 0.05
	AdmitAmpMax  = 0.4
	AdmitTrimMax = 15.0
)

// Record is one equilibrium operating point.
type Record struct {
	Mass             float64 `json:"mass_kg" yaml:"mass_kg"`
	Speed            float64 `json:"speed_kmh" yaml:"speed_kmh"`
	Freq             float64 `json:"freq_hz" yaml:"freq_hz"`
	TrimDeg          float64 `json:"trim_deg" yaml:"trim_deg"`
	AmpM             float64 `json:"amp_m" yaml:"amp_m"`
	PowerW           float64 `json:"power_w" yaml:"power_w"`
	EfficiencyWPerKg float64 `json:"efficiency_w_per_kg" yaml:"efficiency_w_per_kg"`
}

// Outcome describes a finished solve, whether or not it produced a record.
type Outcome struct {
	Record Record
	OK     bool
	Status Status
	Evals  int
	// Reason is empty when OK, otherwise it says why the cell was dropped.
	Reason string
}

type Solver struct {
	base     hydro.Params
	steps    int
	settings Settings
}

type Option func(*Solver)

// WithBase sets the wing and stroke coefficients. Mass, speed, frequency,
// trim and amplitude of p are ignored; each solve sets them.
func WithBase(p hydro.Params) Option {
	return func(s *Solver) { s.base = p }
}

// WithSteps sets the number of samples per cycle evaluation.
func WithSteps(n int) Option {
	return func(s *Solver) { s.steps = n }
}

func WithSettings(settings Settings) Option {
	return func(s *Solver) { s.settings = settings }
}

func New(opts ...Option) *Solver {
	s := &Solver{
		base:     hydro.DefaultParams(0, 0, WingAreaCm2, 0),
		steps:    hydro.DefaultSteps,
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Base returns the parameter template used by the solver.
func (s *Solver) Base() hydro.Params { return s.base }

var defaultSolver = New()

// Solve finds the equilibrium for the given speed (km/h), rider mass (kg) and
// stroke frequency (Hz) with the default solver.
func Solve(speedKmh, massKg, freqHz float64) (Record, bool, error) {
	return defaultSolver.Solve(speedKmh, massKg, freqHz)
}

// Solve returns the equilibrium record and true, or false when the solver did
// not converge or converged outside the admissible window. The error is
// non-nil only for numeric faults.
func (s *Solver) Solve(speedKmh, massKg, freqHz float64) (Record, bool, error) {
	out, err := s.SolveDetailed(speedKmh, massKg, freqHz)
	if err != nil {
		return Record{}, false, err
	}
	return out.Record, out.OK, nil
}

// workingState is the parameter set a single solve mutates between residual
// evaluations. It is never shared between solves.
type workingState struct {
	params hydro.Params
	target float64
	steps  int
}

func (w *workingState) residual(dst, x []float64) {
	trim, amp := x[0], x[1]
	if amp <= SearchAmpMin || amp > SearchAmpMax {
		dst[0], dst[1] = PenaltyResidual, PenaltyResidual
		return
	}
	w.params.PitchTrimDeg = trim
	w.params.HeaveAmp = amp
	res := hydro.Simulate(w.params, w.steps)
	dst[0] = res.Lift - w.target
	dst[1] = res.Thrust
}

// SolveDetailed is Solve with the solver status and the reason a cell was
// dropped.
func (s *Solver) SolveDetailed(speedKmh, massKg, freqHz float64) (Outcome, error) {
	w := &workingState{
		params: s.base,
		target: massKg * hydro.Gravity,
		steps:  s.steps,
	}
	w.params.Mass = massKg
	w.params.SpeedKmh = speedKmh
	w.params.Freq = freqHz

	settings := s.settings
	lm, err := LevenbergMarquardt(Problem{M: 2, N: 2, Func: w.residual}, []float64{SeedTrimDeg, SeedAmp}, &settings)
	if err != nil && (errors.Is(err, ErrNonFinite) || errors.Is(err, ErrDimension)) {
		return Outcome{}, fmt.Errorf("solve %.2f km/h %.1f kg %.2f Hz: %w", speedKmh, massKg, freqHz, err)
	}

	out := Outcome{Status: lm.Status, Evals: lm.Evals}
	if err != nil {
		out.Reason = "not converged: " + lm.Status.String()
		return out, nil
	}

	trim, amp := lm.X[0], lm.X[1]
	switch {
	case !(amp > AdmitAmpMin && amp < AdmitAmpMax):
		out.Reason = fmt.Sprintf("amplitude %.3f m outside (%.2f, %.2f)", amp, AdmitAmpMin, AdmitAmpMax)
		return out, nil
	case !(math.Abs(trim) < AdmitTrimMax):
		out.Reason = fmt.Sprintf("trim %.2f deg outside ±%.0f", trim, AdmitTrimMax)
		return out, nil
	}

	w.params.PitchTrimDeg = trim
	w.params.HeaveAmp = amp
	res := hydro.Simulate(w.params, w.steps)

	out.OK = true
	out.Record = Record{
		Mass:             massKg,
		Speed:            speedKmh,
		Freq:             freqHz,
		TrimDeg:          trim,
		AmpM:             amp,
		PowerW:           res.Power,
		EfficiencyWPerKg: res.Power / massKg,
	}
	return out, nil
}

// Params returns the full parameter set of a record under the solver's base,
// ready to be re-simulated.
func (s *Solver) Params(r Record) hydro.Params {
	p := s.base
	p.Mass = r.Mass
	p.SpeedKmh = r.Speed
	p.Freq = r.Freq
	p.PitchTrimDeg = r.TrimDeg
	p.HeaveAmp = r.AmpM
	return p
}
