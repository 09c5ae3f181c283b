package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/finsim/internal/hydro"
	"github.com/san-kum/finsim/internal/metrics"
	"github.com/san-kum/finsim/internal/solver"
)

const (
	viewSamples = 120
	canvasW     = 60
	canvasH     = 10
	frameRate   = time.Second / 30
)

type TickMsg time.Time

// knob is one adjustable stroke parameter.
type knob struct {
	name string
	unit string
	step float64
	get  func(*hydro.Params) float64
	set  func(*hydro.Params, float64)
}

var knobs = []knob{
	{"trim", "°", 0.5,
		func(p *hydro.Params) float64 { return p.PitchTrimDeg },
		func(p *hydro.Params, v float64) { p.PitchTrimDeg = v }},
	{"amplitude", "m", 0.01,
		func(p *hydro.Params) float64 { return p.HeaveAmp },
		func(p *hydro.Params, v float64) { p.HeaveAmp = max(v, 0.01) }},
	{"frequency", "Hz", 0.05,
		func(p *hydro.Params) float64 { return p.Freq },
		func(p *hydro.Params, v float64) { p.Freq = max(v, 0.05) }},
	{"asymmetry", "", 0.05,
		func(p *hydro.Params) float64 { return p.Asymmetry },
		func(p *hydro.Params, v float64) { p.Asymmetry = v }},
	{"phase", "°", 5,
		func(p *hydro.Params) float64 { return p.PhaseShiftDeg },
		func(p *hydro.Params, v float64) { p.PhaseShiftDeg = v }},
}

// shortcut keys: lower case increases, upper case decreases.
var knobKeys = map[string]int{"t": 0, "a": 1, "f": 2, "y": 3, "p": 4}

// Explorer is an interactive view of a single stroke cycle.
type Explorer struct {
	params   hydro.Params
	steps    int
	selected int
	frame    int
	running  bool
	showHelp bool
	theme    Theme
	status   string

	report  hydro.Report
	samples []hydro.Sample
}

// NewExplorer starts the explorer at p; steps is the sample count used for
// the reported means and for solving.
func NewExplorer(p hydro.Params, steps int) Explorer {
	e := Explorer{params: p, steps: steps, running: true, theme: Themes[0]}
	e.recompute()
	return e
}

func (e Explorer) Params() hydro.Params { return e.params }
func (e Explorer) Report() hydro.Report { return e.report }
func (e Explorer) Status() string       { return e.status }

func (e *Explorer) recompute() {
	in := hydro.NewIntegrator(e.steps)
	for _, m := range metrics.Default() {
		in.AddMetric(m)
	}
	e.report = in.Run(e.params)
	e.samples = hydro.Collect(e.params, viewSamples)
	if e.frame >= len(e.samples) {
		e.frame = 0
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (e Explorer) Init() tea.Cmd { return tick() }

func (e Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "Q", "ctrl+c":
			return e, tea.Quit
		case " ":
			e.running = !e.running
		case "tab":
			e.selected = (e.selected + 1) % len(knobs)
		case "shift+tab":
			e.selected = (e.selected + len(knobs) - 1) % len(knobs)
		case "up", "k", "K":
			e.adjust(e.selected, 1)
		case "down", "j", "J":
			e.adjust(e.selected, -1)
		case "s", "S":
			e.solve()
		case "c", "C":
			e.theme = NextTheme(e.theme)
		case "?":
			e.showHelp = !e.showHelp
		default:
			if i, ok := knobKeys[key]; ok {
				e.selected = i
				e.adjust(i, 1)
			} else if i, ok := knobKeys[strings.ToLower(key)]; ok {
				e.selected = i
				e.adjust(i, -1)
			}
		}
	case TickMsg:
		if e.running && len(e.samples) > 0 {
			e.frame = (e.frame + 1) % len(e.samples)
		}
		return e, tick()
	}
	return e, nil
}

func (e *Explorer) adjust(i, dir int) {
	k := knobs[i]
	k.set(&e.params, k.get(&e.params)+float64(dir)*k.step)
	e.status = ""
	e.recompute()
}

// solve jumps to the equilibrium of the current mass, speed and frequency
// under the current wing and stroke shape.
func (e *Explorer) solve() {
	s := solver.New(solver.WithBase(e.params), solver.WithSteps(e.steps))
	rec, ok, err := s.Solve(e.params.SpeedKmh, e.params.Mass, e.params.Freq)
	switch {
	case err != nil:
		e.status = StatusFail.Render("solve failed: " + err.Error())
	case !ok:
		e.status = StatusWarn.Render("no admissible equilibrium")
	default:
		e.params.PitchTrimDeg = rec.TrimDeg
		e.params.HeaveAmp = rec.AmpM
		e.status = StatusOK.Render(fmt.Sprintf("equilibrium: trim %.2f°, amp %.3f m", rec.TrimDeg, rec.AmpM))
		e.recompute()
	}
}

func (e Explorer) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(e.theme.Primary).
		Render(fmt.Sprintf("FOIL CYCLE  %g kg · %g km/h", e.params.Mass, e.params.SpeedKmh))

	canvas := lipgloss.NewStyle().Foreground(e.theme.Trace).Padding(1, 2).
		Render(FoilView(e.samples, e.frame, canvasW, canvasH))

	var s strings.Builder
	weight := e.params.Mass * hydro.Gravity
	s.WriteString(Metric("Lift", fmt.Sprintf("%.1f N (%.0f%% of weight)", e.report.Lift, 100*e.report.Lift/weight)) + "\n")
	s.WriteString(Metric("Thrust", fmt.Sprintf("%+.1f N", e.report.Thrust)) + "\n")
	s.WriteString(Metric("Power", fmt.Sprintf("%.1f W", e.report.Power)) + "\n")
	for _, m := range metrics.Default() {
		if v, ok := e.report.Metrics[m.Name()]; ok {
			s.WriteString(Metric(m.Name(), fmt.Sprintf("%.2f", v)) + "\n")
		}
	}

	power := make([]float64, len(e.samples))
	for i, smp := range e.samples {
		power[i] = smp.Power
	}
	s.WriteString("\n" + MetricLabel.Render("power") + Sparkline(power, 30) + "\n")

	s.WriteString("\n" + Separator(30) + "\nSTROKE\n")
	accent := lipgloss.NewStyle().Bold(true).Foreground(e.theme.Accent)
	for i, k := range knobs {
		line := fmt.Sprintf("%-10s %8.3f %s", k.name, k.get(&e.params), k.unit)
		if i == e.selected {
			s.WriteString(accent.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + Subtle.Render(line) + "\n")
		}
	}
	if e.status != "" {
		s.WriteString("\n" + e.status + "\n")
	}
	s.WriteString(KeyHint.Render("\nTab/↑↓: tune  t/a/f/y/p: +  T/A/F/Y/P: -\nS: solve  Space: pause  C: theme  ?: help  Q: quit"))

	stats := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(e.theme.Muted).
		Padding(1, 2).
		Render(s.String())

	main := header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, canvas, stats)
	if e.showHelp {
		return Panel.Render(helpText) + "\n\n" + main
	}
	return main
}

const helpText = `KEYBOARD SHORTCUTS
  Tab / Shift+Tab   select parameter
  Up/K, Down/J      adjust selected parameter
  t a f y p         raise trim, amplitude, frequency, asymmetry, phase
  T A F Y P         lower them
  S                 solve the equilibrium and jump to it
  Space             pause the stroke animation
  C                 cycle colour themes
  Q                 quit`

// WithTheme returns e using the named theme.
func (e Explorer) WithTheme(name string) Explorer {
	e.theme = GetTheme(name)
	return e
}

// RunExplorer starts the explorer on the alternate screen.
func RunExplorer(p hydro.Params, steps int, theme string) error {
	_, err := tea.NewProgram(NewExplorer(p, steps).WithTheme(theme), tea.WithAltScreen()).Run()
	return err
}
