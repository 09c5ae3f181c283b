package viz

import (
	"math"
	"math/bits"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/finsim/internal/analysis"
	"github.com/san-kum/finsim/internal/hydro"
	"github.com/san-kum/finsim/internal/optimize"
	"github.com/san-kum/finsim/internal/solver"
)

func testParams() hydro.Params {
	return hydro.DefaultParams(70, 16, solver.WingAreaCm2, 1.4)
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Line(0, 0, 7, 7)
	lines := strings.Split(strings.TrimRight(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	for _, l := range lines {
		if n := len([]rune(l)); n != 4 {
			t.Errorf("expected 4 cells per row, got %d", n)
		}
	}
	if []rune(lines[0])[0] == brailleBlank {
		t.Error("expected the first cell to be drawn")
	}

	c.Clear()
	c.Set(-1, 3)
	c.Set(100, 100)
	if strings.ContainsFunc(c.String(), func(r rune) bool { return r != brailleBlank && r != '\n' }) {
		t.Error("out-of-range dots should be ignored")
	}
}

func dotCount(c *Canvas) int {
	n := 0
	for _, row := range c.grid {
		for _, r := range row {
			n += bits.OnesCount32(uint32(r - brailleBlank))
		}
	}
	return n
}

func TestCanvasLineOctants(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
	}{
		{"shallow right down", 3, 3, 5, 4},
		{"steep right down", 3, 3, 4, 5},
		{"steep left down", 3, 3, 2, 5},
		{"shallow left down", 3, 3, 1, 4},
		{"shallow left up", 3, 3, 1, 2},
		{"steep left up", 3, 3, 2, 1},
		{"steep right up", 3, 3, 4, 1},
		{"shallow right up", 3, 3, 5, 2},
		{"horizontal", 0, 7, 7, 7},
		{"vertical", 6, 7, 6, 0},
		{"point", 2, 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(4, 2)
			done := make(chan struct{})
			go func() {
				c.Line(tt.x0, tt.y0, tt.x1, tt.y1)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatalf("Line(%d,%d,%d,%d) did not return", tt.x0, tt.y0, tt.x1, tt.y1)
			}

			want := max(absInt(tt.x1-tt.x0), absInt(tt.y1-tt.y0)) + 1
			if got := dotCount(c); got != want {
				t.Errorf("expected %d dots, got %d", want, got)
			}
			for _, p := range [][2]int{{tt.x0, tt.y0}, {tt.x1, tt.y1}} {
				if c.grid[p[1]/4][p[0]/2]&dotBits[p[1]%4][p[0]%2] == 0 {
					t.Errorf("endpoint (%d,%d) not drawn", p[0], p[1])
				}
			}
		})
	}
}

func TestFoilView(t *testing.T) {
	samples := hydro.Collect(testParams(), 60)
	out := FoilView(samples, 15, 40, 8)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(lines))
	}
	drawn := 0
	for _, r := range out {
		if r != brailleBlank && r != '\n' {
			drawn++
		}
	}
	if drawn < 20 {
		t.Errorf("expected the heave path to be drawn, %d cells set", drawn)
	}

	if FoilView(nil, 0, 10, 2) != NewCanvas(10, 2).String() {
		t.Error("expected a blank canvas without samples")
	}
}

func TestSparklineWidth(t *testing.T) {
	got := Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5)
	if w := lipgloss.Width(got); w != 5 {
		t.Errorf("expected width 5, got %d", w)
	}
	if w := lipgloss.Width(Sparkline(nil, 7)); w != 7 {
		t.Errorf("expected placeholder width 7, got %d", w)
	}
}

func TestRecordTable(t *testing.T) {
	out := RecordTable([]solver.Record{
		{Mass: 70, Speed: 16, Freq: 1.4, TrimDeg: 4.2, AmpM: 0.142, PowerW: 1234.5, EfficiencyWPerKg: 17.64},
	})
	for _, want := range []string{"Mass (kg)", "Efficiency (W/kg)", "0.142", "1,234.5", "17.64"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestOptimaTable(t *testing.T) {
	out := OptimaTable([]optimize.Result{
		{Mass: 80, AreaCm2: 2000, Speed: 14.5, Freq: 1.25, AmpM: 0.131, TrimDeg: 3.5, PhaseDeg: 92.5, PowerW: 1120.3, NormPowerW: 2400, Valid: true},
		{Mass: 90, AreaCm2: 1300, Speed: 20},
	})
	for _, want := range []string{"Area (cm²)", "2000", "14.5", "0.131", "92.5", "1,120.3", "2,400.0", "yes", "no"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestCorrelationTable(t *testing.T) {
	m, err := analysis.Correlation(map[string][]float64{
		"a": {1, 2, 3},
		"b": {2, 4, 7},
		"c": {5, 5, 5},
	}, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	out := CorrelationTable(m)
	if !strings.Contains(out, "1.00") || !strings.Contains(out, "-") {
		t.Errorf("unexpected correlation table:\n%s", out)
	}
}

func TestSummaryView(t *testing.T) {
	records := []solver.Record{
		{Mass: 70, Speed: 14, PowerW: 250, EfficiencyWPerKg: 250.0 / 70},
		{Mass: 70, Speed: 16, PowerW: 300, EfficiencyWPerKg: 300.0 / 70},
		{Mass: 70, Speed: 18, PowerW: 370, EfficiencyWPerKg: 370.0 / 70},
	}
	out := SummaryView(analysis.Summarize(records), analysis.TrendByMass(records))
	for _, want := range []string{"SUMMARY", "Solved", "POWER TREND", "70 kg"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(SummaryView(analysis.Summarize(nil), nil), "Power") {
		t.Error("empty summary should not report power")
	}
}

func TestDroppedLine(t *testing.T) {
	tests := []struct {
		attempted, solved int
		want              string
	}{
		{0, 0, "no cells"},
		{4, 4, "4/4 cells solved"},
		{4, 3, "1 dropped"},
		{4, 0, "0/4 cells solved"},
	}
	for _, tt := range tests {
		if got := DroppedLine(tt.attempted, tt.solved); !strings.Contains(got, tt.want) {
			t.Errorf("DroppedLine(%d, %d) = %q, want %q", tt.attempted, tt.solved, got, tt.want)
		}
	}
}

func TestCycleGraphs(t *testing.T) {
	out := CycleGraphs(hydro.Collect(testParams(), 40), 40, 5)
	for _, want := range []string{"heave z (m)", "angle of attack", "rider force", "power (W)"} {
		if !strings.Contains(out, want) {
			t.Errorf("graphs missing caption %q", want)
		}
	}
}

func TestScanGraph(t *testing.T) {
	points, err := analysis.Scan(testParams(), "amp", 0.05, 0.3, 6, hydro.DefaultSteps)
	if err != nil {
		t.Fatal(err)
	}
	out := ScanGraph(points, "amp", 30, 4)
	if !strings.Contains(out, "thrust (N) vs amp") {
		t.Errorf("unexpected scan graph:\n%s", out)
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(e Explorer, msgs ...tea.Msg) Explorer {
	for _, msg := range msgs {
		m, _ := e.Update(msg)
		e = m.(Explorer)
	}
	return e
}

func TestExplorerKnobs(t *testing.T) {
	e := NewExplorer(testParams(), hydro.DefaultSteps)
	start := e.Params()

	e = send(e, key("t"), key("t"))
	if got := e.Params().PitchTrimDeg; math.Abs(got-(start.PitchTrimDeg+1)) > 1e-12 {
		t.Errorf("expected trim +1, got %v", got)
	}

	e = send(e, key("A"))
	if got := e.Params().HeaveAmp; math.Abs(got-(start.HeaveAmp-0.01)) > 1e-12 {
		t.Errorf("expected amplitude -0.01, got %v", got)
	}

	e = send(e, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyUp})
	if got := e.Params().Freq; math.Abs(got-(start.Freq+0.05)) > 1e-12 {
		t.Errorf("expected frequency +0.05 after tab, got %v", got)
	}

	if e.Report().Result != hydro.Simulate(e.Params(), hydro.DefaultSteps) {
		t.Error("report not recomputed after adjustment")
	}
}

func TestExplorerSolve(t *testing.T) {
	e := send(NewExplorer(testParams(), hydro.DefaultSteps), key("s"))
	if !strings.Contains(e.Status(), "equilibrium") {
		t.Fatalf("expected an equilibrium, status %q", e.Status())
	}
	weight := 70 * hydro.Gravity
	if math.Abs(e.Report().Lift-weight) > weight*1e-3 {
		t.Errorf("expected lift near %v, got %v", weight, e.Report().Lift)
	}
	if math.Abs(e.Report().Thrust) > 0.5 {
		t.Errorf("expected thrust near zero, got %v", e.Report().Thrust)
	}
}

func TestExplorerView(t *testing.T) {
	e := NewExplorer(testParams(), hydro.DefaultSteps)
	e = send(e, TickMsg{}, key("?"))
	out := e.View()
	for _, want := range []string{"FOIL CYCLE", "trim", "KEYBOARD SHORTCUTS", "Thrust"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd := e.Update(key("q"))
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestExplorerWithTheme(t *testing.T) {
	e := NewExplorer(testParams(), hydro.DefaultSteps).WithTheme("kelp")
	if e.theme.Name != "kelp" {
		t.Errorf("theme: got %q, want kelp", e.theme.Name)
	}
	if got := NewExplorer(testParams(), hydro.DefaultSteps).WithTheme("nope").theme.Name; got != ThemeNames()[0] {
		t.Errorf("unknown theme should fall back to %q, got %q", ThemeNames()[0], got)
	}
}

func TestExplorerUpperCaseCommands(t *testing.T) {
	e := send(NewExplorer(testParams(), hydro.DefaultSteps), key("S"))
	if !strings.Contains(e.Status(), "equilibrium") {
		t.Errorf("S should solve, status %q", e.Status())
	}

	e = NewExplorer(testParams(), hydro.DefaultSteps)
	first := e.theme.Name
	if e = send(e, key("C")); e.theme.Name == first {
		t.Error("C should cycle the theme")
	}

	start := e.Params()
	e = send(e, key("K"))
	if got := e.Params().PitchTrimDeg; got <= start.PitchTrimDeg {
		t.Errorf("K should raise the selected knob, trim %v", got)
	}
	e = send(e, key("J"))
	if got := e.Params().PitchTrimDeg; math.Abs(got-start.PitchTrimDeg) > 1e-12 {
		t.Errorf("J should undo K, trim %v", got)
	}

	if _, cmd := e.Update(key("Q")); cmd == nil {
		t.Error("Q should quit")
	}
}
