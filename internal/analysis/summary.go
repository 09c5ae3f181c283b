package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/finsim/internal/solver"
)

// Stat is the spread of one dataset column.
type Stat struct {
	Mean, Std, Min, Max float64
}

func describe(xs []float64) Stat {
	if len(xs) == 0 {
		nan := math.NaN()
		return Stat{nan, nan, nan, nan}
	}
	s := Stat{Min: floats.Min(xs), Max: floats.Max(xs)}
	if len(xs) == 1 {
		s.Mean, s.Std = xs[0], 0
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(xs, nil)
	return s
}

type Summary struct {
	Count      int
	Power      Stat
	Efficiency Stat
	Amp        Stat
	Trim       Stat
	// Best is the record with the lowest power per kilogram.
	Best *solver.Record
}

func Summarize(records []solver.Record) Summary {
	n := len(records)
	power := make([]float64, n)
	eff := make([]float64, n)
	amp := make([]float64, n)
	trim := make([]float64, n)
	for i, r := range records {
		power[i] = r.PowerW
		eff[i] = r.EfficiencyWPerKg
		amp[i] = r.AmpM
		trim[i] = r.TrimDeg
	}

	s := Summary{
		Count:      n,
		Power:      describe(power),
		Efficiency: describe(eff),
		Amp:        describe(amp),
		Trim:       describe(trim),
	}
	if n > 0 {
		best := records[floats.MinIdx(eff)]
		s.Best = &best
	}
	return s
}

// Map flattens the summary for run metadata.
func (s Summary) Map() map[string]float64 {
	m := map[string]float64{"count": float64(s.Count)}
	if s.Count == 0 {
		return m
	}
	add := func(prefix string, st Stat) {
		m[prefix+"_mean"] = st.Mean
		m[prefix+"_std"] = st.Std
		m[prefix+"_min"] = st.Min
		m[prefix+"_max"] = st.Max
	}
	add("power", s.Power)
	add("efficiency", s.Efficiency)
	add("amp", s.Amp)
	add("trim", s.Trim)
	return m
}
