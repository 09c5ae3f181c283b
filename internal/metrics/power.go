package metrics

import (
	"math"

	"github.com/san-kum/finsim/internal/hydro"
)

// NormalizedPower is the fourth-power mean of the extracted power, which
// weights the short peaks of the downstroke more than the plain average.
type NormalizedPower struct {
	name    string
	sum4    float64
	samples int
}

func NewNormalizedPower() *NormalizedPower {
	return &NormalizedPower{name: "normalized_power"}
}

func (n *NormalizedPower) Name() string { return n.name }

func (n *NormalizedPower) Observe(s hydro.Sample) {
	p2 := s.Power * s.Power
	n.sum4 += p2 * p2
	n.samples++
}

func (n *NormalizedPower) Value() float64 {
	if n.samples == 0 {
		return 0
	}
	return math.Pow(n.sum4/float64(n.samples), 0.25)
}

func (n *NormalizedPower) Reset() {
	n.sum4 = 0
	n.samples = 0
}

// PowerDuty is the fraction of the cycle during which power is extracted.
type PowerDuty struct {
	name    string
	active  int
	samples int
}

func NewPowerDuty() *PowerDuty {
	return &PowerDuty{name: "power_duty"}
}

func (d *PowerDuty) Name() string { return d.name }

func (d *PowerDuty) Observe(s hydro.Sample) {
	d.samples++
	if s.Power > 0 {
		d.active++
	}
}

func (d *PowerDuty) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return float64(d.active) / float64(d.samples)
}

func (d *PowerDuty) Reset() {
	d.active = 0
	d.samples = 0
}
