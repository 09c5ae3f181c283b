package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/finsim/internal/config"
	"github.com/san-kum/finsim/internal/logging"
	"github.com/san-kum/finsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string

	// cycle / solve / explore
	mass     float64
	speed    float64
	freq     float64
	trim     float64
	amp      float64
	steps    int
	asym     float64
	graphW   int
	graphH   int
	showRows bool

	// sweep
	workers   int
	label     string
	withPlots bool

	// scan
	scanParam string
	scanMin   float64
	scanMax   float64
	scanN     int

	// optimize
	optMasses   []float64
	optAreas    []float64
	optSpeeds   []float64
	objective   string
	seed        uint64
	generations int

	// plot / export
	outDir  string
	outFile string
	dump    bool

	theme string
)

// main registers the finsim commands and runs the root command, exiting with
// status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "finsim",
		Short:         "pumped hydrofoil cycle and equilibrium lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "preset as group/name, e.g. sweep/quick")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (console, json)")

	cycleCmd := &cobra.Command{
		Use:   "cycle",
		Short: "integrate one pumping cycle",
		RunE:  runCycle,
	}
	cycleFlags(cycleCmd)
	cycleCmd.Flags().Float64Var(&trim, "trim", 0, "pitch trim (deg)")
	cycleCmd.Flags().Float64Var(&amp, "amp", 0.15, "heave amplitude (m)")
	cycleCmd.Flags().Float64Var(&asym, "asym", 0, "stroke asymmetry")
	cycleCmd.Flags().IntVar(&graphW, "width", 60, "graph width")
	cycleCmd.Flags().IntVar(&graphH, "height", 8, "graph height")
	cycleCmd.Flags().BoolVar(&showRows, "samples", false, "print every sample")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve trim and amplitude for equilibrium",
		RunE:  runSolve,
	}
	cycleFlags(solveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "solve every cell of the configured grid and store the run",
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "concurrent solves")
	sweepCmd.Flags().StringVar(&label, "label", "sweep", "run label")
	sweepCmd.Flags().BoolVar(&withPlots, "plots", false, "write PNG charts next to the run")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "scan one cycle parameter and chart the averaged forces",
		RunE:  runScan,
	}
	cycleFlags(scanCmd)
	scanCmd.Flags().Float64Var(&trim, "trim", 0, "pitch trim (deg)")
	scanCmd.Flags().Float64Var(&amp, "amp", 0.15, "heave amplitude (m)")
	scanCmd.Flags().StringVar(&scanParam, "param", "trim", "parameter ("+strings.Join(scanParamNames(), ", ")+")")
	scanCmd.Flags().Float64Var(&scanMin, "min", -5, "scan start")
	scanCmd.Flags().Float64Var(&scanMax, "max", 10, "scan end")
	scanCmd.Flags().IntVar(&scanN, "n", 31, "number of points")
	scanCmd.Flags().IntVar(&graphW, "width", 60, "graph width")
	scanCmd.Flags().IntVar(&graphH, "height", 8, "graph height")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "search power-optimal stroke settings over mass, wing area and speed",
		RunE:  runOptimize,
	}
	optimizeFlags(optimizeCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show records, summary and correlations of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "write PNG charts for a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: run directory)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "-", "output file")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "-", "output file")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list presets, or dump the resolved config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}
	presetsCmd.Flags().BoolVar(&dump, "dump", false, "print the resolved configuration as yaml")

	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "interactive cycle explorer",
		RunE:  runExplore,
	}
	cycleFlags(exploreCmd)
	exploreCmd.Flags().StringVar(&theme, "theme", viz.ThemeNames()[0], "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	rootCmd.AddCommand(cycleCmd, solveCmd, sweepCmd, scanCmd, optimizeCmd, listCmd, showCmd, plotCmd,
		exportJSONCmd, exportCSVCmd, presetsCmd, exploreCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func cycleFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&mass, "mass", 70, "rider mass (kg)")
	cmd.Flags().Float64Var(&speed, "speed", 16, "speed (km/h)")
	cmd.Flags().Float64Var(&freq, "freq", 1.4, "stroke frequency (Hz)")
	cmd.Flags().IntVar(&steps, "steps", 0, "samples per cycle (default: config)")
}

func optimizeFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&optMasses, "masses", nil, "rider masses (kg)")
	cmd.Flags().Float64SliceVar(&optAreas, "areas", nil, "wing areas (cm²)")
	cmd.Flags().Float64SliceVar(&optSpeeds, "speeds", nil, "speeds (km/h)")
	cmd.Flags().StringVar(&objective, "metric", "avg", "power to minimise (avg, norm)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&generations, "generations", 20, "evolution generations")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "concurrent cells")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "CSV output file (default: <data>/optima.csv, - for stdout)")
}

// loadConfig resolves preset < file < environment < flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	base := config.DefaultConfig()
	if preset != "" {
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("%w: %q, expected group/name", config.ErrUnknownPreset, preset)
		}
		p, err := config.GetPreset(group, name)
		if err != nil {
			return nil, err
		}
		base = p
	}

	cfg, err := config.LoadWithBase(configFile, base)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Output.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("workers") {
		cfg.Sweep.Workers = workers
	}
	if flags.Changed("plots") {
		cfg.Output.Plots = withPlots
	}
	if flags.Changed("masses") {
		cfg.Optimize.Masses = optMasses
	}
	if flags.Changed("areas") {
		cfg.Optimize.Areas = optAreas
	}
	if flags.Changed("speeds") {
		cfg.Optimize.Speeds = optSpeeds
	}
	if flags.Changed("metric") {
		cfg.Optimize.Objective = objective
	}
	if flags.Changed("seed") {
		cfg.Optimize.Seed = seed
	}
	if flags.Changed("generations") {
		cfg.Optimize.Generations = generations
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging, "")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
