package hydro

import (
	"math"
	"testing"
)

type countingMetric struct {
	count int
	peak  float64
}

func (c *countingMetric) Name() string { return "peak_power" }
func (c *countingMetric) Observe(s Sample) {
	c.count++
	c.peak = math.Max(c.peak, s.Power)
}
func (c *countingMetric) Value() float64 { return c.peak }
func (c *countingMetric) Reset() {
	c.count = 0
	c.peak = 0
}

func TestIntegratorMetrics(t *testing.T) {
	in := NewIntegrator(DefaultSteps)
	m := &countingMetric{}
	in.AddMetric(m)

	p := testParams()
	rep := in.Run(p)

	if m.count != DefaultSteps {
		t.Errorf("expected %d observations, got %d", DefaultSteps, m.count)
	}
	if rep.Steps != DefaultSteps {
		t.Errorf("expected %d steps in report, got %d", DefaultSteps, rep.Steps)
	}
	if _, ok := rep.Metrics["peak_power"]; !ok {
		t.Error("metric not found in report")
	}
	if rep.Result != Simulate(p, DefaultSteps) {
		t.Errorf("integrator result %+v differs from Simulate", rep.Result)
	}

	in.Run(p)
	if m.count != DefaultSteps {
		t.Errorf("metric not reset between runs: %d observations", m.count)
	}
}

func TestPowerPerUnitOfDownstroke(t *testing.T) {
	p := testParams()
	res := Simulate(p, DefaultSteps)
	if res.Power <= 0 {
		t.Errorf("expected positive mean power, got %f", res.Power)
	}

	p.Efficiency = 0
	if got := Simulate(p, DefaultSteps).Power; got != 0 {
		t.Errorf("expected zero power at zero efficiency, got %f", got)
	}
}
