package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/finsim/internal/optimize"
	"github.com/san-kum/finsim/internal/solver"
)

type ExportData struct {
	Run     *RunMetadata    `json:"run,omitempty"`
	Count   int             `json:"count"`
	Records []solver.Record `json:"records"`
}

// ExportJSON writes the records, and the run metadata when given, as indented
// JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, records []solver.Record) error {
	if records == nil {
		records = []solver.Record{}
	}
	data := ExportData{
		Run:     meta,
		Count:   len(records),
		Records: records,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes a header row followed by one row per record.
func ExportCSV(w io.Writer, records []solver.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			formatFloat(r.Mass),
			formatFloat(r.Speed),
			formatFloat(r.Freq),
			formatFloat(r.TrimDeg),
			formatFloat(r.AmpM),
			formatFloat(r.PowerW),
			formatFloat(r.EfficiencyWPerKg),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// OptimaHeader is the column layout of an optimisation batch export.
var OptimaHeader = []string{
	"mass_kg", "area_cm2", "speed_kmh",
	"freq_hz", "amp_m", "trim_deg", "asymmetry", "phase_deg",
	"power_w", "norm_power_w", "lift_n", "thrust_n", "rider_load_n",
	"valid",
}

// ExportOptimaCSV writes one row per optimised cell, invalid cells included.
func ExportOptimaCSV(w io.Writer, results []optimize.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OptimaHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			formatFloat(r.Mass),
			formatFloat(r.AreaCm2),
			formatFloat(r.Speed),
			formatFloat(r.Freq),
			formatFloat(r.AmpM),
			formatFloat(r.TrimDeg),
			formatFloat(r.Asymmetry),
			formatFloat(r.PhaseDeg),
			formatFloat(r.PowerW),
			formatFloat(r.NormPowerW),
			formatFloat(r.Lift),
			formatFloat(r.Thrust),
			formatFloat(r.RiderLoad),
			strconv.FormatBool(r.Valid),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile writes to path, or to stdout when path is "" or "-".
func ExportFile(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
