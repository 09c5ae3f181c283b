package solver

import (
	"testing"

	"github.com/san-kum/finsim/internal/hydro"
)

func TestResidualSearchWindow(t *testing.T) {
	w := &workingState{
		params: hydro.DefaultParams(70, 16, WingAreaCm2, 1.4),
		target: 70 * hydro.Gravity,
		steps:  hydro.DefaultSteps,
	}

	tests := []struct {
		amp     float64
		penalty bool
	}{
		{0.005, true},
		{SearchAmpMin, true},
		{0.0100001, false},
		{0.15, false},
		{SearchAmpMax, false},
		{0.4500001, true},
		{-0.2, true},
	}

	r := make([]float64, 2)
	for _, tt := range tests {
		w.residual(r, []float64{2, tt.amp})
		isPenalty := r[0] == PenaltyResidual && r[1] == PenaltyResidual
		if isPenalty != tt.penalty {
			t.Errorf("amp %v: penalty=%v, want %v (r=%v)", tt.amp, isPenalty, tt.penalty, r)
		}
	}
}

func TestResidualMatchesSimulate(t *testing.T) {
	p := hydro.DefaultParams(70, 16, WingAreaCm2, 1.4)
	w := &workingState{params: p, target: 70 * hydro.Gravity, steps: hydro.DefaultSteps}

	r := make([]float64, 2)
	w.residual(r, []float64{4, 0.2})

	p.PitchTrimDeg = 4
	p.HeaveAmp = 0.2
	res := hydro.Simulate(p, hydro.DefaultSteps)
	if r[0] != res.Lift-70*hydro.Gravity || r[1] != res.Thrust {
		t.Errorf("residual %v does not match simulate %+v", r, res)
	}
}

func TestResidualLeavesPenaltyStateUntouched(t *testing.T) {
	w := &workingState{
		params: hydro.DefaultParams(70, 16, WingAreaCm2, 1.4),
		target: 70 * hydro.Gravity,
		steps:  hydro.DefaultSteps,
	}
	before := w.params
	r := make([]float64, 2)
	w.residual(r, []float64{7, 0.9})
	if w.params != before {
		t.Errorf("penalty branch mutated working params: %+v", w.params)
	}
}

func TestEvalBudget(t *testing.T) {
	tests := []struct {
		maxEvals, n, want int
	}{
		{0, 2, 600},
		{-1, 2, 600},
		{0, 3, 800},
		{50, 2, 50},
	}
	for _, tt := range tests {
		s := DefaultSettings()
		s.MaxEvals = tt.maxEvals
		if got := s.evalBudget(tt.n); got != tt.want {
			t.Errorf("MaxEvals=%d n=%d: got %d, want %d", tt.maxEvals, tt.n, got, tt.want)
		}
	}
}
