package hydro

import (
	"iter"
	"math"
)

// Sample is the state of the stroke at one instant of the cycle. Angles are
// in radians, forces in N, power in W.
type Sample struct {
	Time float64

	Phase float64 // raw phase φ = ωt
	Psi   float64 // warped phase ψ
	DPsi  float64 // dψ/dt
	DDPsi float64 // d²ψ/dt²

	Z  float64 // heave position
	Vz float64 // heave velocity
	Az float64 // heave acceleration

	Pitch float64 // θ
	Gamma float64 // flow angle
	Alpha float64 // angle of attack

	Cl float64
	Cd float64

	LiftZ float64
	LiftX float64
	DragZ float64
	DragX float64

	// ForceZ and ForceX are the net aero force in the lab frame; ForceX is
	// thrust when positive.
	ForceZ float64
	ForceX float64

	RiderForce float64
	Power      float64
}

// Result holds the cycle-averaged forces and power.
type Result struct {
	Lift   float64 `json:"lift"`
	Thrust float64 `json:"thrust"`
	Power  float64 `json:"power"`
}

// cycle holds the per-evaluation constants derived once from Params.
type cycle struct {
	omega      float64
	speed      float64
	area       float64
	trim       float64
	phaseShift float64
	pitchAmp   float64
	movingMass float64
	liftSlope  float64
	k          float64
	p          Params
}

func newCycle(p Params) cycle {
	return cycle{
		omega:      p.Omega(),
		speed:      p.Speed(),
		area:       p.Area(),
		trim:       p.PitchTrimDeg * degToRad,
		phaseShift: p.PhaseShiftDeg * degToRad,
		pitchAmp:   p.PitchAmplitude(),
		movingMass: p.MovingMass(),
		liftSlope:  2 * math.Pi / (1 + 2/p.AspectRatio),
		k:          1 / (math.Pi * p.AspectRatio),
		p:          p,
	}
}

func (c *cycle) at(t float64) Sample {
	a := c.p.Asymmetry
	amp := c.p.HeaveAmp

	phi := c.omega * t
	psi := phi - a*math.Cos(phi)
	dpsi := c.omega * (1 + a*math.Sin(phi))
	ddpsi := c.omega * c.omega * a * math.Cos(phi)

	sinPsi, cosPsi := math.Sincos(psi)
	z := amp * cosPsi
	vz := -amp * sinPsi * dpsi
	az := -amp * (cosPsi*dpsi*dpsi + sinPsi*ddpsi)

	theta := c.trim + c.pitchAmp*math.Cos(psi+c.phaseShift)

	vx := c.speed
	gamma := math.Atan2(vz, vx)
	alpha := theta - gamma
	vSq := vx*vx + vz*vz

	cl := c.liftSlope * alpha
	cd := c.p.Cd0 + c.k*cl*cl

	q := 0.5 * WaterDensity * c.area * vSq
	lift := q * cl
	drag := q * cd

	sinG, cosG := math.Sincos(gamma)
	liftZ := lift * cosG
	liftX := -lift * sinG
	dragZ := -drag * sinG
	dragX := -drag * cosG

	forceZ := liftZ + dragZ
	inertia := c.movingMass * (Gravity + az)
	rider := math.Max(0, forceZ-inertia)

	power := 0.0
	if vz < 0 {
		power = math.Max(0, rider*(-vz)*c.p.Efficiency)
	}

	return Sample{
		Time:       t,
		Phase:      phi,
		Psi:        psi,
		DPsi:       dpsi,
		DDPsi:      ddpsi,
		Z:          z,
		Vz:         vz,
		Az:         az,
		Pitch:      theta,
		Gamma:      gamma,
		Alpha:      alpha,
		Cl:         cl,
		Cd:         cd,
		LiftZ:      liftZ,
		LiftX:      liftX,
		DragZ:      dragZ,
		DragX:      dragX,
		ForceZ:     forceZ,
		ForceX:     liftX + dragX,
		RiderForce: rider,
		Power:      power,
	}
}

// Samples yields steps samples evenly spaced over one period, both endpoints
// included. A single step yields only t = 0.
func Samples(p Params, steps int) iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		if steps <= 0 {
			return
		}
		c := newCycle(p)
		period := p.Period()
		for i := 0; i < steps; i++ {
			t := 0.0
			switch {
			case i == steps-1 && steps > 1:
				t = period
			case steps > 1:
				t = float64(i) * period / float64(steps-1)
			}
			if !yield(c.at(t)) {
				return
			}
		}
	}
}

// Collect materializes the sample sequence.
func Collect(p Params, steps int) []Sample {
	out := make([]Sample, 0, max(steps, 0))
	for s := range Samples(p, steps) {
		out = append(out, s)
	}
	return out
}
