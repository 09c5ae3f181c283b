// Package plots renders equilibrium datasets to PNG charts.
package plots

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/finsim/internal/analysis"
	"github.com/san-kum/finsim/internal/solver"
	"github.com/san-kum/finsim/internal/sweep"
)

const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch

	powerBands = 4

	// pairTile is the edge of one panel of the pair plot.
	pairTile = 2.2 * vg.Inch
)

var ErrNoRecords = errors.New("plots: no records")

// series groups the points of one hue value.
type series struct {
	label string
	pts   plotter.XYs
}

// WriteAll writes every chart for records into dir and returns the file
// paths. The correlation heat map and the pair plot need at least two
// records.
func WriteAll(dir string, records []solver.Record) ([]string, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create directory: %w", err)
	}

	charts := []struct {
		file string
		fn   func([]solver.Record) (*plot.Plot, error)
	}{
		{"power_speed_mass.png", PowerBySpeed},
		{"efficiency_freq_speed.png", EfficiencyByFreq},
		{"amp_freq_power.png", AmpByFreq},
	}
	if len(records) > 1 {
		charts = append(charts, struct {
			file string
			fn   func([]solver.Record) (*plot.Plot, error)
		}{"correlation_matrix.png", CorrelationHeatMap})
	}

	var paths []string
	for _, c := range charts {
		p, err := c.fn(records)
		if err != nil {
			return paths, fmt.Errorf("%s: %w", c.file, err)
		}
		path := filepath.Join(dir, c.file)
		if err := p.Save(width, height, path); err != nil {
			return paths, fmt.Errorf("%s: %w", c.file, err)
		}
		paths = append(paths, path)
	}

	if len(records) > 1 {
		path := filepath.Join(dir, "pairplot.png")
		if err := WritePairPlot(path, records); err != nil {
			return paths, fmt.Errorf("pairplot.png: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// PowerBySpeed plots power against speed with one series per rider mass.
func PowerBySpeed(records []solver.Record) (*plot.Plot, error) {
	groups := groupBy(records,
		func(r solver.Record) float64 { return r.Mass },
		func(k float64) string { return fmt.Sprintf("%g kg", k) },
		func(r solver.Record) (float64, float64) { return r.Speed, r.PowerW })
	return scatter("Power (W) vs Speed (km/h) by Mass (kg)", "Speed (km/h)", "Power (W)", groups)
}

// EfficiencyByFreq plots power per kilogram against frequency with one
// series per speed.
func EfficiencyByFreq(records []solver.Record) (*plot.Plot, error) {
	groups := groupBy(records,
		func(r solver.Record) float64 { return r.Speed },
		func(k float64) string { return fmt.Sprintf("%g km/h", k) },
		func(r solver.Record) (float64, float64) { return r.Freq, r.EfficiencyWPerKg })
	return scatter("Efficiency (W/kg) vs Frequency (Hz) by Speed (km/h)", "Freq (Hz)", "Efficiency (W/kg)", groups)
}

// AmpByFreq plots heave amplitude against frequency with records binned into
// equal-width power bands.
func AmpByFreq(records []solver.Record) (*plot.Plot, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range records {
		lo = math.Min(lo, r.PowerW)
		hi = math.Max(hi, r.PowerW)
	}
	bw := (hi - lo) / powerBands
	band := func(r solver.Record) float64 {
		if bw == 0 {
			return 0
		}
		return math.Min(math.Floor((r.PowerW-lo)/bw), powerBands-1)
	}
	label := func(k float64) string {
		from := lo + k*bw
		return fmt.Sprintf("%.0f-%.0f W", from, from+bw)
	}
	groups := groupBy(records, band, label,
		func(r solver.Record) (float64, float64) { return r.Freq, r.AmpM })
	return scatter("Amplitude (m) vs Frequency (Hz) by Power (W)", "Freq (Hz)", "Amp (m)", groups)
}

func groupBy(
	records []solver.Record,
	key func(solver.Record) float64,
	label func(float64) string,
	xy func(solver.Record) (float64, float64),
) []series {
	byKey := make(map[float64]plotter.XYs)
	for _, r := range records {
		k := key(r)
		x, y := xy(r)
		byKey[k] = append(byKey[k], plotter.XY{X: x, Y: y})
	}
	keys := make([]float64, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	out := make([]series, len(keys))
	for i, k := range keys {
		out[i] = series{label: label(k), pts: byKey[k]}
	}
	return out
}

func scatter(title, xlabel, ylabel string, groups []series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for i, g := range groups {
		s, err := plotter.NewScatter(g.pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i)
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add(g.label, s)
	}
	return p, nil
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Undefined
// coefficients are drawn as zero.
type corrGrid struct {
	m *analysis.CorrelationMatrix
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.m.Names)
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	v := g.m.At(r, c)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

// CorrelationHeatMap draws the correlation matrix of the dataset columns.
func CorrelationHeatMap(records []solver.Record) (*plot.Plot, error) {
	ds := &sweep.Dataset{Records: records}
	order := sweep.ColumnOrder
	m, err := analysis.Correlation(ds.Columns(), order)
	if err != nil {
		return nil, err
	}

	hm := plotter.NewHeatMap(corrGrid{m}, palette.Heat(16, 1))
	hm.Min, hm.Max = -1, 1

	p := plot.New()
	p.Title.Text = "Correlation Matrix of Variables"
	p.Add(hm)

	ticks := make([]plot.Tick, len(order))
	for i, name := range order {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	return p, nil
}

// PairGrid builds the scatter matrix of the dataset columns. Row i plots
// column i against every column j; the diagonal holds the histogram of the
// column. Axis labels sit on the bottom row and the left column only.
func PairGrid(records []solver.Record) ([][]*plot.Plot, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	ds := &sweep.Dataset{Records: records}
	cols := ds.Columns()
	order := sweep.ColumnOrder
	n := len(order)
	bins := int(math.Ceil(math.Sqrt(float64(len(records)))))

	grid := make([][]*plot.Plot, n)
	for i, yname := range order {
		grid[i] = make([]*plot.Plot, n)
		for j, xname := range order {
			p := plot.New()
			if i == n-1 {
				p.X.Label.Text = xname
			}
			if j == 0 {
				p.Y.Label.Text = yname
			}

			if i == j {
				h, err := plotter.NewHist(plotter.Values(cols[xname]), bins)
				if err != nil {
					return nil, fmt.Errorf("%s histogram: %w", xname, err)
				}
				h.FillColor = plotutil.Color(0)
				p.Add(h)
			} else {
				pts := make(plotter.XYs, len(records))
				for k := range pts {
					pts[k] = plotter.XY{X: cols[xname][k], Y: cols[yname][k]}
				}
				sc, err := plotter.NewScatter(pts)
				if err != nil {
					return nil, fmt.Errorf("%s vs %s: %w", yname, xname, err)
				}
				sc.GlyphStyle.Color = plotutil.Color(0)
				sc.GlyphStyle.Radius = vg.Points(2)
				p.Add(sc)
			}
			grid[i][j] = p
		}
	}
	return grid, nil
}

// WritePairPlot tiles PairGrid into a single PNG at path.
func WritePairPlot(path string, records []solver.Record) error {
	grid, err := PairGrid(records)
	if err != nil {
		return err
	}
	n := len(grid)
	img := vgimg.New(vg.Length(n)*pairTile, vg.Length(n)*pairTile)
	tiles := draw.Tiles{
		Rows:      n,
		Cols:      n,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(grid, tiles, draw.New(img))
	for i := range grid {
		for j := range grid[i] {
			grid[i][j].Draw(canvases[i][j])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
