package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/san-kum/finsim/internal/analysis"
	"github.com/san-kum/finsim/internal/optimize"
	"github.com/san-kum/finsim/internal/solver"
)

var printer = message.NewPrinter(language.English)

// RecordHeaders are the column titles of RecordTable.
var RecordHeaders = []string{"Mass (kg)", "Speed (km/h)", "Freq (Hz)", "Trim (°)", "Amp (m)", "Power (W)", "Efficiency (W/kg)"}

func RecordRow(r solver.Record) []string {
	return []string{
		fmt.Sprintf("%g", r.Mass),
		fmt.Sprintf("%g", r.Speed),
		fmt.Sprintf("%.2f", r.Freq),
		fmt.Sprintf("%.2f", r.TrimDeg),
		fmt.Sprintf("%.3f", r.AmpM),
		printer.Sprintf("%.1f", r.PowerW),
		fmt.Sprintf("%.2f", r.EfficiencyWPerKg),
	}
}

func newTable(headers []string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#335577"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderCell.BorderBottom(false)
			}
			if col == 0 {
				return Cell.Foreground(lipgloss.Color("#888899"))
			}
			return Cell.Align(lipgloss.Right)
		})
}

// RecordTable renders equilibrium records in a bordered table.
func RecordTable(records []solver.Record) string {
	t := newTable(RecordHeaders)
	for _, r := range records {
		t.Row(RecordRow(r)...)
	}
	return t.String()
}

var optimaHeaders = []string{"Mass (kg)", "Area (cm²)", "Speed (km/h)", "Freq (Hz)", "Amp (m)", "Trim (°)", "Asym", "Phase (°)", "Power (W)", "NP (W)", "Valid"}

// OptimaTable renders optimisation results, one row per cell.
func OptimaTable(results []optimize.Result) string {
	t := newTable(optimaHeaders)
	for _, r := range results {
		valid := "no"
		if r.Valid {
			valid = "yes"
		}
		t.Row(
			fmt.Sprintf("%g", r.Mass),
			fmt.Sprintf("%g", r.AreaCm2),
			fmt.Sprintf("%g", r.Speed),
			fmt.Sprintf("%.2f", r.Freq),
			fmt.Sprintf("%.3f", r.AmpM),
			fmt.Sprintf("%.2f", r.TrimDeg),
			fmt.Sprintf("%.2f", r.Asymmetry),
			fmt.Sprintf("%.1f", r.PhaseDeg),
			printer.Sprintf("%.1f", r.PowerW),
			printer.Sprintf("%.1f", r.NormPowerW),
			valid,
		)
	}
	return t.String()
}

// CorrelationTable renders a correlation matrix with two decimals. Undefined
// coefficients are shown as "-".
func CorrelationTable(m *analysis.CorrelationMatrix) string {
	headers := append([]string{""}, m.Names...)
	t := newTable(headers)
	for i, name := range m.Names {
		row := []string{name}
		for j := range m.Names {
			v := m.At(i, j)
			if math.IsNaN(v) {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		t.Row(row...)
	}
	return t.String()
}

// SummaryView renders dataset statistics and the power trend per mass.
func SummaryView(s analysis.Summary, trends []analysis.Trend) string {
	var b strings.Builder
	b.WriteString(Title.Render("SUMMARY") + "\n")
	b.WriteString(Metric("Solved", fmt.Sprintf("%d", s.Count)) + "\n")
	if s.Count == 0 {
		return Panel.Render(b.String())
	}
	b.WriteString(Metric("Power", printer.Sprintf("%.1f ± %.1f W", s.Power.Mean, s.Power.Std)) + "\n")
	b.WriteString(Metric("Power range", printer.Sprintf("%.1f … %.1f W", s.Power.Min, s.Power.Max)) + "\n")
	b.WriteString(Metric("Efficiency", fmt.Sprintf("%.2f ± %.2f W/kg", s.Efficiency.Mean, s.Efficiency.Std)) + "\n")
	b.WriteString(Metric("Amplitude", fmt.Sprintf("%.3f … %.3f m", s.Amp.Min, s.Amp.Max)) + "\n")
	b.WriteString(Metric("Trim", fmt.Sprintf("%.2f … %.2f °", s.Trim.Min, s.Trim.Max)) + "\n")
	if s.Best != nil {
		b.WriteString(Metric("Best", fmt.Sprintf("%g kg @ %g km/h, %.2f Hz (%.2f W/kg)",
			s.Best.Mass, s.Best.Speed, s.Best.Freq, s.Best.EfficiencyWPerKg)) + "\n")
	}
	if len(trends) > 0 {
		b.WriteString("\n" + Title.Render("POWER TREND vs SPEED") + "\n")
		for _, tr := range trends {
			b.WriteString(Metric(fmt.Sprintf("%g kg", tr.Mass), "P = "+tr.Fit.String()) + "\n")
		}
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// DroppedLine summarizes how many cells produced no equilibrium.
func DroppedLine(attempted, solved int) string {
	dropped := attempted - solved
	msg := fmt.Sprintf("%d/%d cells solved", solved, attempted)
	switch {
	case attempted == 0:
		return Subtle.Render("no cells")
	case dropped == 0:
		return StatusOK.Render(msg)
	case solved == 0:
		return StatusFail.Render(msg)
	default:
		return StatusWarn.Render(fmt.Sprintf("%s, %d dropped", msg, dropped))
	}
}
