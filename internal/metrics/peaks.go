package metrics

import (
	"math"

	"github.com/san-kum/finsim/internal/hydro"
)

type PeakRiderForce struct {
	name string
	peak float64
}

func NewPeakRiderForce() *PeakRiderForce {
	return &PeakRiderForce{name: "peak_rider_force"}
}

func (p *PeakRiderForce) Name() string { return p.name }

func (p *PeakRiderForce) Observe(s hydro.Sample) {
	p.peak = math.Max(p.peak, s.RiderForce)
}

func (p *PeakRiderForce) Value() float64 { return p.peak }

func (p *PeakRiderForce) Reset() { p.peak = 0 }

// MeanRiderForce is the average force the rider carries over the cycle, the
// apparent weight felt through the legs.
type MeanRiderForce struct {
	name    string
	sum     float64
	samples int
}

func NewMeanRiderForce() *MeanRiderForce {
	return &MeanRiderForce{name: "mean_rider_force"}
}

func (m *MeanRiderForce) Name() string { return m.name }

func (m *MeanRiderForce) Observe(s hydro.Sample) {
	m.sum += math.Abs(s.RiderForce)
	m.samples++
}

func (m *MeanRiderForce) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanRiderForce) Reset() {
	m.sum = 0
	m.samples = 0
}

// PeakAngleOfAttack tracks the largest |α| over the cycle, in degrees. The
// linear lift model is only trustworthy while this stays small.
type PeakAngleOfAttack struct {
	name string
	peak float64
}

func NewPeakAngleOfAttack() *PeakAngleOfAttack {
	return &PeakAngleOfAttack{name: "peak_aoa_deg"}
}

func (p *PeakAngleOfAttack) Name() string { return p.name }

func (p *PeakAngleOfAttack) Observe(s hydro.Sample) {
	p.peak = math.Max(p.peak, math.Abs(s.Alpha)*180/math.Pi)
}

func (p *PeakAngleOfAttack) Value() float64 { return p.peak }

func (p *PeakAngleOfAttack) Reset() { p.peak = 0 }

// Default returns the metric set reported by the cycle command.
func Default() []hydro.Metric {
	return []hydro.Metric{
		NewNormalizedPower(),
		NewPowerDuty(),
		NewPeakRiderForce(),
		NewMeanRiderForce(),
		NewPeakAngleOfAttack(),
	}
}
