package optimize

import (
	"fmt"
	"math"
)

// Bound is the search interval of one stroke setting. A locked bound holds
// Value for the whole search.
type Bound struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Locked bool    `json:"locked,omitempty" yaml:"locked,omitempty"`
	Value  float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// Lock returns b pinned at v.
func (b Bound) Lock(v float64) Bound {
	b.Locked = true
	b.Value = v
	return b
}

func (b Bound) clip(v float64) float64 {
	if b.Locked {
		return b.Value
	}
	return math.Max(b.Min, math.Min(b.Max, v))
}

func (b Bound) draw(u float64) float64 {
	if b.Locked {
		return b.Value
	}
	return b.Min + u*(b.Max-b.Min)
}

// Space is the box the stroke settings are searched in.
type Space struct {
	Freq  Bound `json:"freq" yaml:"freq"`   // Hz
	Amp   Bound `json:"amp" yaml:"amp"`     // m
	Trim  Bound `json:"trim" yaml:"trim"`   // deg
	Asym  Bound `json:"asym" yaml:"asym"`   // dimensionless
	Phase Bound `json:"phase" yaml:"phase"` // deg
}

func DefaultSpace() Space {
	return Space{
		Freq:  Bound{Min: 0.8, Max: 2.0},
		Amp:   Bound{Min: 0.05, Max: 0.40},
		Trim:  Bound{Min: -2, Max: 10},
		Asym:  Bound{Min: -0.3, Max: 0.3},
		Phase: Bound{Min: 60, Max: 120},
	}
}

// dims is the fixed order of the search vector.
const dims = 5

var dimNames = [dims]string{"freq", "amp", "trim", "asym", "phase"}

// polishWidth is the full width of the polish perturbation per dimension at
// scale one.
var polishWidth = [dims]float64{0.5, 0.1, 2.0, 0.2, 10.0}

func (s Space) bounds() [dims]Bound {
	return [dims]Bound{s.Freq, s.Amp, s.Trim, s.Asym, s.Phase}
}

func (s Space) Validate() error {
	for i, b := range s.bounds() {
		name := dimNames[i]
		vals := []float64{b.Min, b.Max, b.Value}
		for _, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s bound is not finite", ErrInvalidSpace, name)
			}
		}
		if b.Locked {
			continue
		}
		if b.Min > b.Max {
			return fmt.Errorf("%w: %s min %g above max %g", ErrInvalidSpace, name, b.Min, b.Max)
		}
	}

	// the cycle is undefined for a non-positive frequency or amplitude
	if lo := s.Freq.clip(s.Freq.Min); lo <= 0 {
		return fmt.Errorf("%w: freq must stay positive, got %g", ErrInvalidSpace, lo)
	}
	if lo := s.Amp.clip(s.Amp.Min); lo <= 0 {
		return fmt.Errorf("%w: amp must stay positive, got %g", ErrInvalidSpace, lo)
	}
	return nil
}
