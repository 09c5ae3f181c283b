package sweep

import (
	"fmt"
	"math"
)

// Grid is a Cartesian product of rider masses (kg), speeds (km/h) and stroke
// frequencies (Hz).
type Grid struct {
	Masses []float64 `json:"masses" yaml:"masses"`
	Speeds []float64 `json:"speeds" yaml:"speeds"`
	Freqs  []float64 `json:"freqs" yaml:"freqs"`
}

// Cell is one (mass, speed, frequency) combination.
type Cell struct {
	Mass  float64
	Speed float64
	Freq  float64
}

func (c Cell) String() string {
	return fmt.Sprintf("%.1fkg/%.1fkmh/%.2fHz", c.Mass, c.Speed, c.Freq)
}

// Size returns the number of cells in the grid.
func (g Grid) Size() int {
	return len(g.Masses) * len(g.Speeds) * len(g.Freqs)
}

// Cells enumerates the grid with mass outermost and frequency innermost.
func (g Grid) Cells() []Cell {
	cells := make([]Cell, 0, g.Size())
	for _, m := range g.Masses {
		for _, v := range g.Speeds {
			for _, f := range g.Freqs {
				cells = append(cells, Cell{Mass: m, Speed: v, Freq: f})
			}
		}
	}
	return cells
}

func (g Grid) Validate() error {
	axes := []struct {
		name string
		vals []float64
	}{
		{"masses", g.Masses},
		{"speeds", g.Speeds},
		{"freqs", g.Freqs},
	}
	for _, a := range axes {
		if len(a.vals) == 0 {
			return fmt.Errorf("%w: no %s", ErrEmptyGrid, a.name)
		}
		for _, v := range a.vals {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: %s contains %v", ErrInvalidGrid, a.name, v)
			}
		}
	}
	return nil
}

// Range returns start, start+step, ... up to and including stop when it falls
// on the step. It mirrors an arange over [start, stop].
func Range(start, stop, step float64) []float64 {
	if step <= 0 || stop < start {
		return nil
	}
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
