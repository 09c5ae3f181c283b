package hydro

import "math"

// Metric observes every sample of a cycle and reduces it to one value.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Report is a cycle result together with the values of attached metrics.
type Report struct {
	Result
	Steps   int
	Metrics map[string]float64
}

type Integrator struct {
	steps   int
	metrics []Metric
}

func NewIntegrator(steps int) *Integrator {
	return &Integrator{steps: steps, metrics: make([]Metric, 0)}
}

func (in *Integrator) AddMetric(m Metric) { in.metrics = append(in.metrics, m) }

func (in *Integrator) Steps() int { return in.steps }

// Run integrates one cycle. Lift, thrust and power are arithmetic means of the
// net vertical aero force, the net horizontal aero force and the extracted
// power over the sample set.
func (in *Integrator) Run(p Params) Report {
	for _, m := range in.metrics {
		m.Reset()
	}

	var sumZ, sumX, sumP float64
	n := 0
	for s := range Samples(p, in.steps) {
		sumZ += s.ForceZ
		sumX += s.ForceX
		sumP += s.Power
		n++
		for _, m := range in.metrics {
			m.Observe(s)
		}
	}

	rep := Report{Steps: n, Metrics: make(map[string]float64, len(in.metrics))}
	if n == 0 {
		nan := math.NaN()
		rep.Result = Result{Lift: nan, Thrust: nan, Power: nan}
	} else {
		fn := float64(n)
		rep.Result = Result{Lift: sumZ / fn, Thrust: sumX / fn, Power: sumP / fn}
	}

	for _, m := range in.metrics {
		rep.Metrics[m.Name()] = m.Value()
	}
	return rep
}

// Simulate integrates one cycle of p with the given number of samples and
// returns the mean lift, thrust and power.
func Simulate(p Params, steps int) Result {
	return NewIntegrator(steps).Run(p).Result
}
