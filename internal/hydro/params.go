package hydro

import (
	"fmt"
	"math"
)

const (
	Gravity      = 9.81   // m/s²
	WaterDensity = 1000.0 // kg/m³

	// RigMass is the fixed moving mass of the foil rig in kg.
	RigMass = 8.0
	// FeatheringRatio scales the heave-implied flow angle amplitude down to
	// the pitch amplitude.
	FeatheringRatio = 0.90

	DefaultSteps = 30

	DefaultHeaveAmp      = 0.15
	DefaultPitchTrimDeg  = 0.0
	DefaultAspectRatio   = 13.9
	DefaultCd0           = 0.015
	DefaultSwingRatio    = 0.4
	DefaultEfficiency    = 0.7
	DefaultPhaseShiftDeg = 90.0
	DefaultAsymmetry     = 0.0

	kmhToMs  = 1 / 3.6
	cm2ToM2  = 1 / 10000.0
	degToRad = math.Pi / 180
)

// Params describes the rider, the wing and the stroke for one cycle
// evaluation. Angles are kept in degrees.
type Params struct {
	Mass          float64 `json:"mass" yaml:"mass"`
	SpeedKmh      float64 `json:"speed_kmh" yaml:"speed_kmh"`
	WingAreaCm2   float64 `json:"wing_area_cm2" yaml:"wing_area_cm2"`
	Freq          float64 `json:"freq" yaml:"freq"`
	HeaveAmp      float64 `json:"heave_amp" yaml:"heave_amp"`
	PitchTrimDeg  float64 `json:"pitch_trim_deg" yaml:"pitch_trim_deg"`
	AspectRatio   float64 `json:"aspect_ratio" yaml:"aspect_ratio"`
	Cd0           float64 `json:"cd0" yaml:"cd0"`
	SwingRatio    float64 `json:"swing_ratio" yaml:"swing_ratio"`
	Efficiency    float64 `json:"efficiency" yaml:"efficiency"`
	PhaseShiftDeg float64 `json:"phase_shift_deg" yaml:"phase_shift_deg"`
	Asymmetry     float64 `json:"asymmetry" yaml:"asymmetry"`
}

// DefaultParams returns a parameter set for the given rider mass (kg), speed
// (km/h), wing area (cm²) and stroke frequency (Hz), with every other field at
// its default.
func DefaultParams(mass, speedKmh, wingAreaCm2, freq float64) Params {
	return Params{
		Mass:          mass,
		SpeedKmh:      speedKmh,
		WingAreaCm2:   wingAreaCm2,
		Freq:          freq,
		HeaveAmp:      DefaultHeaveAmp,
		PitchTrimDeg:  DefaultPitchTrimDeg,
		AspectRatio:   DefaultAspectRatio,
		Cd0:           DefaultCd0,
		SwingRatio:    DefaultSwingRatio,
		Efficiency:    DefaultEfficiency,
		PhaseShiftDeg: DefaultPhaseShiftDeg,
		Asymmetry:     DefaultAsymmetry,
	}
}

// Speed returns the forward speed in m/s.
func (p Params) Speed() float64 { return p.SpeedKmh * kmhToMs }

// Area returns the planform area in m².
func (p Params) Area() float64 { return p.WingAreaCm2 * cm2ToM2 }

// Omega returns the stroke angular frequency in rad/s.
func (p Params) Omega() float64 { return 2 * math.Pi * p.Freq }

// Period returns the stroke period in seconds.
func (p Params) Period() float64 { return 1 / p.Freq }

// MovingMass is the mass accelerated with the wing: the rig plus the swinging
// share of the rider.
func (p Params) MovingMass() float64 { return RigMass + p.Mass*p.SwingRatio }

// PitchAmplitude returns the pitch oscillation amplitude in radians, a fixed
// fraction of the peak flow angle implied by the heave motion.
func (p Params) PitchAmplitude() float64 {
	return FeatheringRatio * math.Atan2(p.HeaveAmp*p.Omega(), p.Speed())
}

// Validate reports whether the parameters describe a physical cycle.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"mass", p.Mass},
		{"speed_kmh", p.SpeedKmh},
		{"wing_area_cm2", p.WingAreaCm2},
		{"freq", p.Freq},
		{"heave_amp", p.HeaveAmp},
		{"pitch_trim_deg", p.PitchTrimDeg},
		{"aspect_ratio", p.AspectRatio},
		{"cd0", p.Cd0},
		{"swing_ratio", p.SwingRatio},
		{"efficiency", p.Efficiency},
		{"phase_shift_deg", p.PhaseShiftDeg},
		{"asymmetry", p.Asymmetry},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidParams, f.name)
		}
	}

	switch {
	case p.Mass <= 0:
		return fmt.Errorf("%w: mass must be positive, got %g", ErrInvalidParams, p.Mass)
	case p.SpeedKmh <= 0:
		return fmt.Errorf("%w: speed must be positive, got %g", ErrInvalidParams, p.SpeedKmh)
	case p.WingAreaCm2 <= 0:
		return fmt.Errorf("%w: wing area must be positive, got %g", ErrInvalidParams, p.WingAreaCm2)
	case p.Freq <= 0:
		return fmt.Errorf("%w: frequency must be positive, got %g", ErrInvalidParams, p.Freq)
	case p.HeaveAmp <= 0:
		return fmt.Errorf("%w: heave amplitude must be positive, got %g", ErrInvalidParams, p.HeaveAmp)
	case p.AspectRatio <= 0:
		return fmt.Errorf("%w: aspect ratio must be positive, got %g", ErrInvalidParams, p.AspectRatio)
	case p.Cd0 < 0:
		return fmt.Errorf("%w: cd0 must be non-negative, got %g", ErrInvalidParams, p.Cd0)
	case p.SwingRatio < 0 || p.SwingRatio > 1:
		return fmt.Errorf("%w: swing ratio must be in [0, 1], got %g", ErrInvalidParams, p.SwingRatio)
	case p.Efficiency < 0 || p.Efficiency > 1:
		return fmt.Errorf("%w: efficiency must be in [0, 1], got %g", ErrInvalidParams, p.Efficiency)
	}
	return nil
}
