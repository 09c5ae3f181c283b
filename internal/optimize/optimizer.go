package optimize

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/san-kum/finsim/internal/hydro"
	"github.com/san-kum/finsim/internal/metrics"
)

// Objective selects the power figure the search minimises.
type Objective string

const (
	AveragePower    Objective = "avg"
	NormalizedPower Objective = "norm"
)

func ParseObjective(s string) (Objective, error) {
	switch o := Objective(strings.ToLower(strings.TrimSpace(s))); o {
	case AveragePower, NormalizedPower:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownObjective, s, AveragePower, NormalizedPower)
}

type Settings struct {
	Population  int     `json:"population" yaml:"population"`
	Generations int     `json:"generations" yaml:"generations"`
	F           float64 `json:"f" yaml:"f"`   // differential weight
	CR          float64 `json:"cr" yaml:"cr"` // crossover probability
	PolishIters int     `json:"polish_iters" yaml:"polish_iters"`

	Objective Objective `json:"objective" yaml:"objective"`
	// MaxStepDt caps the sample spacing in seconds; each evaluation uses
	// ceil(period/MaxStepDt) samples.
	MaxStepDt float64 `json:"max_step_dt" yaml:"max_step_dt"`
	Seed      uint64  `json:"seed" yaml:"seed"`

	LiftTol   float64 `json:"lift_tol" yaml:"lift_tol"`     // N
	ThrustTol float64 `json:"thrust_tol" yaml:"thrust_tol"` // N
	// LoadTol bounds the gap between the mean rider force and the static leg
	// load (mass minus moving mass, times g). Zero disables the check.
	LoadTol       float64 `json:"load_tol" yaml:"load_tol"`
	PenaltyWeight float64 `json:"penalty_weight" yaml:"penalty_weight"`
}

func DefaultSettings() Settings {
	return Settings{
		Population:    20,
		Generations:   20,
		F:             0.7,
		CR:            0.9,
		PolishIters:   100,
		Objective:     AveragePower,
		MaxStepDt:     0.02,
		Seed:          1,
		LiftTol:       2,
		ThrustTol:     1,
		PenaltyWeight: 1e4,
	}
}

func (s Settings) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{s.Population >= 4, "population must be at least 4"},
		{s.Generations >= 0, "generations must not be negative"},
		{s.F > 0 && s.F <= 2, "f must be in (0, 2]"},
		{s.CR >= 0 && s.CR <= 1, "cr must be in [0, 1]"},
		{s.PolishIters >= 0, "polish_iters must not be negative"},
		{s.MaxStepDt > 0, "max_step_dt must be positive"},
		{s.LiftTol >= 0 && s.ThrustTol >= 0 && s.LoadTol >= 0, "tolerances must not be negative"},
		{s.PenaltyWeight > 0, "penalty_weight must be positive"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", ErrInvalidSettings, c.msg)
		}
	}
	if _, err := ParseObjective(string(s.Objective)); err != nil {
		return err
	}
	return nil
}

// Result is the best stroke found for one (mass, area, speed) cell.
type Result struct {
	Mass    float64 `json:"mass_kg"`
	AreaCm2 float64 `json:"area_cm2"`
	Speed   float64 `json:"speed_kmh"`

	Freq      float64 `json:"freq_hz"`
	AmpM      float64 `json:"amp_m"`
	TrimDeg   float64 `json:"trim_deg"`
	Asymmetry float64 `json:"asymmetry"`
	PhaseDeg  float64 `json:"phase_deg"`

	PowerW     float64 `json:"power_w"`
	NormPowerW float64 `json:"norm_power_w"`
	Lift       float64 `json:"lift_n"`
	Thrust     float64 `json:"thrust_n"`
	RiderLoad  float64 `json:"rider_load_n"`

	Valid bool    `json:"valid"`
	Cost  float64 `json:"cost"`
	Evals int     `json:"evals"`
}

type Optimizer struct {
	base     hydro.Params
	space    Space
	settings Settings
}

type Option func(*Optimizer)

// WithBase sets the wing and rider coefficients. Mass, speed, wing area and
// the searched stroke settings of p are overwritten by every search.
func WithBase(p hydro.Params) Option {
	return func(o *Optimizer) { o.base = p }
}

func WithSpace(s Space) Option {
	return func(o *Optimizer) { o.space = s }
}

func WithSettings(s Settings) Option {
	return func(o *Optimizer) { o.settings = s }
}

func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		base:     hydro.DefaultParams(0, 0, 0, 0),
		space:    DefaultSpace(),
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Optimizer) Settings() Settings { return o.settings }

func (o *Optimizer) Space() Space { return o.space }

// Params returns the full parameter set of a result, ready to be
// re-simulated.
func (o *Optimizer) Params(r Result) hydro.Params {
	return o.params(r.Mass, r.AreaCm2, r.Speed, vector{r.Freq, r.AmpM, r.TrimDeg, r.Asymmetry, r.PhaseDeg})
}

// Steps returns the number of samples an evaluation at freq uses.
func (o *Optimizer) Steps(freq float64) int {
	return max(2, int(math.Ceil(1/freq/o.settings.MaxStepDt)))
}

type vector [dims]float64

func (o *Optimizer) params(mass, areaCm2, speed float64, x vector) hydro.Params {
	p := o.base
	p.Mass = mass
	p.WingAreaCm2 = areaCm2
	p.SpeedKmh = speed
	p.Freq = x[0]
	p.HeaveAmp = x[1]
	p.PitchTrimDeg = x[2]
	p.Asymmetry = x[3]
	p.PhaseShiftDeg = x[4]
	return p
}

type evaluation struct {
	cost      float64
	power     float64
	normPower float64
	lift      float64
	thrust    float64
	load      float64
	valid     bool
}

// cell is the state of one search. It is never shared.
type cell struct {
	o      *Optimizer
	mass   float64
	area   float64
	speed  float64
	bounds [dims]Bound
	rng    *rand.Rand
	evals  int
}

func (c *cell) evaluate(x vector) evaluation {
	c.evals++
	s := c.o.settings
	p := c.o.params(c.mass, c.area, c.speed, x)

	in := hydro.NewIntegrator(c.o.Steps(p.Freq))
	in.AddMetric(metrics.NewNormalizedPower())
	in.AddMetric(metrics.NewMeanRiderForce())
	rep := in.Run(p)

	ev := evaluation{
		power:     rep.Power,
		normPower: rep.Metrics["normalized_power"],
		lift:      rep.Lift,
		thrust:    rep.Thrust,
		load:      rep.Metrics["mean_rider_force"],
	}

	pen := math.Max(0, math.Abs(ev.lift-c.mass*hydro.Gravity)-s.LiftTol)
	pen += math.Max(0, math.Abs(ev.thrust)-s.ThrustTol)
	if s.LoadTol > 0 {
		static := (c.mass - p.MovingMass()) * hydro.Gravity
		pen += math.Max(0, math.Abs(ev.load-static)-s.LoadTol)
	}

	metric := ev.power
	if s.Objective == NormalizedPower {
		metric = ev.normPower
	}
	ev.cost = metric + s.PenaltyWeight*pen
	ev.valid = pen < 1e-3
	if math.IsNaN(ev.cost) {
		ev.cost = math.Inf(1)
		ev.valid = false
	}
	return ev
}

func (c *cell) clip(x vector) vector {
	for d, b := range c.bounds {
		x[d] = b.clip(x[d])
	}
	return x
}

// Optimize searches the stroke settings for one rider mass (kg), wing area
// (cm²) and speed (km/h). An invalid result is not an error: it is the least
// penalised stroke found.
func (o *Optimizer) Optimize(mass, areaCm2, speed float64) (Result, error) {
	if err := o.space.Validate(); err != nil {
		return Result{}, err
	}
	if err := o.settings.Validate(); err != nil {
		return Result{}, err
	}
	s := o.settings
	c := &cell{
		o:      o,
		mass:   mass,
		area:   areaCm2,
		speed:  speed,
		bounds: o.space.bounds(),
		rng:    rand.New(rand.NewPCG(s.Seed, cellStream(mass, areaCm2, speed))),
	}

	var mid vector
	for d, b := range c.bounds {
		mid[d] = b.draw(0.5)
	}
	if err := o.params(mass, areaCm2, speed, mid).Validate(); err != nil {
		return Result{}, fmt.Errorf("optimize %.1f kg %.0f cm² %.1f km/h: %w", mass, areaCm2, speed, err)
	}

	type member struct {
		x  vector
		ev evaluation
	}
	pop := make([]member, s.Population)
	var best member
	best.ev.cost = math.Inf(1)
	consider := func(m member) {
		if m.ev.cost < best.ev.cost {
			best = m
		}
	}

	for i := range pop {
		var x vector
		for d, b := range c.bounds {
			x[d] = b.draw(c.rng.Float64())
		}
		x = c.clip(x)
		pop[i] = member{x: x, ev: c.evaluate(x)}
		consider(pop[i])
	}

	for range s.Generations {
		for i := range pop {
			a, b, d := c.pick(i, len(pop))
			trial := pop[i].x
			forced := c.rng.IntN(dims)
			for k := range dims {
				if c.bounds[k].Locked {
					continue
				}
				if c.rng.Float64() < s.CR || k == forced {
					trial[k] = pop[a].x[k] + s.F*(pop[b].x[k]-pop[d].x[k])
				}
			}
			trial = c.clip(trial)
			m := member{x: trial, ev: c.evaluate(trial)}
			if m.ev.cost < pop[i].ev.cost {
				pop[i] = m
				consider(m)
			}
		}
	}

	for i := range s.PolishIters {
		scale := math.Max(0.01, 0.2*(1-float64(i)/float64(s.PolishIters)))
		var x vector
		for d := range dims {
			x[d] = best.x[d] + (c.rng.Float64()-0.5)*polishWidth[d]*scale
		}
		x = c.clip(x)
		consider(member{x: x, ev: c.evaluate(x)})
	}

	return Result{
		Mass:       mass,
		AreaCm2:    areaCm2,
		Speed:      speed,
		Freq:       best.x[0],
		AmpM:       best.x[1],
		TrimDeg:    best.x[2],
		Asymmetry:  best.x[3],
		PhaseDeg:   best.x[4],
		PowerW:     best.ev.power,
		NormPowerW: best.ev.normPower,
		Lift:       best.ev.lift,
		Thrust:     best.ev.thrust,
		RiderLoad:  best.ev.load,
		Valid:      best.ev.valid,
		Cost:       best.ev.cost,
		Evals:      c.evals,
	}, nil
}

// pick draws three distinct population indices, none equal to i.
func (c *cell) pick(i, n int) (int, int, int) {
	var idx [3]int
	for k := 0; k < 3; {
		r := c.rng.IntN(n)
		if r == i || slices.Contains(idx[:k], r) {
			continue
		}
		idx[k] = r
		k++
	}
	return idx[0], idx[1], idx[2]
}

// cellStream mixes the cell coordinates into the second PCG word so every
// cell of a batch draws an independent sequence from one seed.
func cellStream(mass, area, speed float64) uint64 {
	h := math.Float64bits(mass)
	h = bits.RotateLeft64(h, 21) ^ math.Float64bits(area)
	h = bits.RotateLeft64(h, 21) ^ math.Float64bits(speed)
	return h * 0x9e3779b97f4a7c15
}
