package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/finsim/internal/analysis"
	"github.com/san-kum/finsim/internal/config"
	"github.com/san-kum/finsim/internal/hydro"
	"github.com/san-kum/finsim/internal/metrics"
	"github.com/san-kum/finsim/internal/optimize"
	"github.com/san-kum/finsim/internal/plots"
	"github.com/san-kum/finsim/internal/solver"
	"github.com/san-kum/finsim/internal/storage"
	"github.com/san-kum/finsim/internal/sweep"
	"github.com/san-kum/finsim/internal/viz"
)

const harmonicsShown = 4

func scanParamNames() []string { return analysis.ScanParams() }

// cycleParams applies the cycle flags on top of the configured wing.
func cycleParams(cmd *cobra.Command, cfg *config.Config) hydro.Params {
	p := cfg.BaseParams()
	p.Mass = mass
	p.SpeedKmh = speed
	p.Freq = freq
	if f := cmd.Flags().Lookup("trim"); f != nil {
		p.PitchTrimDeg = trim
	}
	if f := cmd.Flags().Lookup("amp"); f != nil {
		p.HeaveAmp = amp
	}
	if cmd.Flags().Changed("asym") {
		p.Asymmetry = asym
	}
	return p
}

func runCycle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p := cycleParams(cmd, cfg)
	if err := p.Validate(); err != nil {
		return err
	}

	in := hydro.NewIntegrator(cfg.Steps)
	for _, m := range metrics.Default() {
		in.AddMetric(m)
	}
	rep := in.Run(p)
	samples := hydro.Collect(p, cfg.Steps)

	fmt.Println(viz.Title.Render("CYCLE"))
	fmt.Printf("mass %g kg, speed %g km/h, freq %g Hz, trim %g°, amp %g m\n\n",
		p.Mass, p.SpeedKmh, p.Freq, p.PitchTrimDeg, p.HeaveAmp)
	fmt.Println(viz.Metric("lift", fmt.Sprintf("%.2f N", rep.Lift)))
	fmt.Println(viz.Metric("weight", fmt.Sprintf("%.2f N", p.Mass*hydro.Gravity)))
	fmt.Println(viz.Metric("thrust", fmt.Sprintf("%.2f N", rep.Thrust)))
	fmt.Println(viz.Metric("power", fmt.Sprintf("%.2f W", rep.Power)))

	names := make([]string, 0, len(rep.Metrics))
	for name := range rep.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(viz.Metric(name, fmt.Sprintf("%.3f", rep.Metrics[name])))
	}

	h := analysis.Harmonics(samples, func(s hydro.Sample) float64 { return s.Power })
	if len(h) > harmonicsShown {
		h = h[:harmonicsShown]
	}
	for k, a := range h {
		fmt.Println(viz.Metric(fmt.Sprintf("power h%d", k), fmt.Sprintf("%.2f W", a)))
	}
	fmt.Println()
	fmt.Println(viz.CycleGraphs(samples, graphW, graphH))

	if !showRows {
		return nil
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\tZ\tALPHA\tFZ\tFX\tRIDER\tPOWER")
	for _, s := range samples {
		fmt.Fprintf(w, "%.3f\t%.3f\t%.2f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			s.Time, s.Z, s.Alpha*180/math.Pi, s.ForceZ, s.ForceX, s.RiderForce, s.Power)
	}
	return w.Flush()
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out, err := cfg.Solver().SolveDetailed(speed, mass, freq)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render("EQUILIBRIUM"))
	fmt.Println(viz.Metric("status", out.Status.String()))
	fmt.Println(viz.Metric("evaluations", fmt.Sprintf("%d", out.Evals)))
	if !out.OK {
		fmt.Println(viz.StatusFail.Render("no equilibrium: " + out.Reason))
		return nil
	}
	fmt.Println(viz.StatusOK.Render("admissible"))
	fmt.Println(viz.RecordTable([]solver.Record{out.Record}))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	grid := cfg.Grid()
	progress := func(done, total int) {
		fmt.Fprintf(os.Stderr, "\r%s %d/%d",
			viz.ProgressBar(float64(done)/float64(total), 30), done, total)
	}
	runner := sweep.NewRunner(cfg.Solver(),
		sweep.WithWorkers(cfg.Sweep.Workers),
		sweep.WithLogger(logger),
		sweep.WithProgress(progress),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ds, err := runner.Run(ctx, grid)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	summary := analysis.Summarize(ds.Records)
	st := storage.New(cfg.Output.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Label:   label,
		Steps:   cfg.Steps,
		Workers: cfg.Sweep.Workers,
		Base:    cfg.BaseParams(),
		Grid:    grid,
		Summary: summary.Map(),
	}, ds)
	if err != nil {
		return err
	}
	logger.Info("run saved", zap.String("run_id", runID), zap.Int("solved", len(ds.Records)))

	fmt.Println(viz.RecordTable(ds.Records))
	fmt.Println(viz.DroppedLine(ds.Attempted, len(ds.Records)))
	fmt.Println()
	fmt.Println(viz.SummaryView(summary, analysis.TrendByMass(ds.Records)))

	if cfg.Output.Plots && len(ds.Records) > 0 {
		paths, err := plots.WriteAll(filepath.Join(cfg.Output.DataDir, runID), ds.Records)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Printf("plot: %s\n", p)
		}
	}

	fmt.Printf("run saved: %s\n", runID)
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	opt, err := cfg.Optimizer()
	if err != nil {
		return err
	}
	progress := func(done, total int) {
		fmt.Fprintf(os.Stderr, "\r%s %d/%d",
			viz.ProgressBar(float64(done)/float64(total), 30), done, total)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := opt.Run(ctx, cfg.Batch(),
		optimize.WithWorkers(cfg.Sweep.Workers),
		optimize.WithLogger(logger),
		optimize.WithProgress(progress),
	)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	path := outFile
	if path == "" {
		st := storage.New(cfg.Output.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		path = filepath.Join(cfg.Output.DataDir, "optima.csv")
	}
	err = storage.ExportFile(path, func(w io.Writer) error {
		return storage.ExportOptimaCSV(w, results)
	})
	if err != nil {
		return err
	}
	if path == "-" {
		return nil
	}

	fmt.Println(viz.OptimaTable(results))
	valid := 0
	for _, r := range results {
		if r.Valid {
			valid++
		}
	}
	fmt.Println(viz.DroppedLine(len(results), valid))
	fmt.Printf("optima written: %s\n", path)
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p := cycleParams(cmd, cfg)

	points, err := analysis.Scan(p, scanParam, scanMin, scanMax, scanN, cfg.Steps)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render("SCAN " + scanParam))
	fmt.Println(viz.ScanGraph(points, scanParam, graphW, graphH))
	return nil
}

func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return st.Latest()
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.Output.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tCELLS\tSOLVED\tSTEPS\tWORKERS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID,
			run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Attempted,
			run.Solved,
			run.Steps,
			run.Workers,
		)
	}
	return w.Flush()
}

func loadRun(cmd *cobra.Command, args []string) (*config.Config, *storage.RunMetadata, []solver.Record, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	st := storage.New(cfg.Output.DataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return nil, nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	records, err := st.LoadRecords(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, meta, records, nil
}

func showRun(cmd *cobra.Command, args []string) error {
	_, meta, records, err := loadRun(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("time: %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("steps: %d, workers: %d\n\n", meta.Steps, meta.Workers)

	fmt.Println(viz.RecordTable(records))
	fmt.Println(viz.DroppedLine(meta.Attempted, meta.Solved))
	for _, d := range meta.Dropped {
		fmt.Println(viz.Subtle.Render(fmt.Sprintf("  %s: %s", d.Cell, d.Reason)))
	}
	fmt.Println()
	fmt.Println(viz.SummaryView(analysis.Summarize(records), analysis.TrendByMass(records)))

	ds := &sweep.Dataset{Records: records}
	m, err := analysis.Correlation(ds.Columns(), sweep.ColumnOrder)
	if errors.Is(err, analysis.ErrInsufficientData) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.CorrelationTable(m))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, meta, records, err := loadRun(cmd, args)
	if err != nil {
		return err
	}
	dir := outDir
	if dir == "" {
		dir = filepath.Join(cfg.Output.DataDir, meta.ID)
	}
	paths, err := plots.WriteAll(dir, records)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("plot: %s\n", p)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	_, meta, records, err := loadRun(cmd, args)
	if err != nil {
		return err
	}
	return storage.ExportFile(outFile, func(w io.Writer) error {
		return storage.ExportJSON(w, meta, records)
	})
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, _, records, err := loadRun(cmd, args)
	if err != nil {
		return err
	}
	return storage.ExportFile(outFile, func(w io.Writer) error {
		return storage.ExportCSV(w, records)
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	if dump {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}

	groups := config.ListGroups()
	if len(args) == 1 {
		groups = []string{args[0]}
	}
	for _, g := range groups {
		names := config.ListPresets(g)
		if len(names) == 0 {
			fmt.Printf("no presets for group: %s\n", g)
			continue
		}
		fmt.Printf("%s presets:\n", g)
		for _, n := range names {
			fmt.Printf("  %s/%s\n", g, n)
		}
	}
	return nil
}

func runExplore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p := cycleParams(cmd, cfg)
	if err := p.Validate(); err != nil {
		return err
	}
	return viz.RunExplorer(p, cfg.Steps, theme)
}
