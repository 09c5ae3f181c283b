package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/finsim/internal/hydro"
	"github.com/san-kum/finsim/internal/logging"
	"github.com/san-kum/finsim/internal/optimize"
	"github.com/san-kum/finsim/internal/solver"
	"github.com/san-kum/finsim/internal/sweep"
)

const (
	DefaultWorkers = 1
	DefaultDataDir = ".finsim"
	EnvPrefix      = "FINSIM"
)

var (
	ErrInvalidConfig = errors.New("config: invalid configuration")
	ErrUnknownPreset = errors.New("config: unknown preset")
)

type Config struct {
	Wing     WingConfig     `yaml:"wing" mapstructure:"wing"`
	Steps    int            `yaml:"steps" mapstructure:"steps"`
	Sweep    SweepConfig    `yaml:"sweep" mapstructure:"sweep"`
	Optimize OptimizeConfig `yaml:"optimize" mapstructure:"optimize"`
	Logging  logging.Config `yaml:"logging" mapstructure:"logging"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// WingConfig holds the foil and stroke coefficients shared by every cell.
type WingConfig struct {
	AreaCm2       float64 `yaml:"area_cm2" mapstructure:"area_cm2"`
	AspectRatio   float64 `yaml:"aspect_ratio" mapstructure:"aspect_ratio"`
	Cd0           float64 `yaml:"cd0" mapstructure:"cd0"`
	SwingRatio    float64 `yaml:"swing_ratio" mapstructure:"swing_ratio"`
	Efficiency    float64 `yaml:"efficiency" mapstructure:"efficiency"`
	PhaseShiftDeg float64 `yaml:"phase_shift_deg" mapstructure:"phase_shift_deg"`
	Asymmetry     float64 `yaml:"asymmetry" mapstructure:"asymmetry"`
}

type SweepConfig struct {
	Masses  []float64 `yaml:"masses" mapstructure:"masses"`
	Speeds  []float64 `yaml:"speeds" mapstructure:"speeds"`
	Freqs   []float64 `yaml:"freqs" mapstructure:"freqs"`
	Workers int       `yaml:"workers" mapstructure:"workers"`
}

// OptimizeConfig is the stroke optimisation batch and its search effort. The
// wing area is a batch axis here, so wing.area_cm2 does not apply.
type OptimizeConfig struct {
	Masses      []float64 `yaml:"masses" mapstructure:"masses"`
	Areas       []float64 `yaml:"areas" mapstructure:"areas"`
	Speeds      []float64 `yaml:"speeds" mapstructure:"speeds"`
	Objective   string    `yaml:"objective" mapstructure:"objective"`
	Population  int       `yaml:"population" mapstructure:"population"`
	Generations int       `yaml:"generations" mapstructure:"generations"`
	PolishIters int       `yaml:"polish_iters" mapstructure:"polish_iters"`
	Seed        uint64    `yaml:"seed" mapstructure:"seed"`
	LoadTol     float64   `yaml:"load_tol" mapstructure:"load_tol"`
}

type OutputConfig struct {
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	Plots   bool   `yaml:"plots" mapstructure:"plots"`
}

func DefaultConfig() *Config {
	return &Config{
		Wing: WingConfig{
			AreaCm2:       solver.WingAreaCm2,
			AspectRatio:   hydro.DefaultAspectRatio,
			Cd0:           hydro.DefaultCd0,
			SwingRatio:    hydro.DefaultSwingRatio,
			Efficiency:    hydro.DefaultEfficiency,
			PhaseShiftDeg: hydro.DefaultPhaseShiftDeg,
			Asymmetry:     hydro.DefaultAsymmetry,
		},
		Steps: hydro.DefaultSteps,
		Sweep: SweepConfig{
			Masses:  []float64{70, 85, 100},
			Speeds:  []float64{14, 16, 18, 20},
			Freqs:   []float64{1.2, 1.3, 1.4, 1.5, 1.6},
			Workers: DefaultWorkers,
		},
		Optimize: defaultOptimize(),
		Logging:  logging.Config{Level: "info", Format: "console"},
		Output:   OutputConfig{DataDir: DefaultDataDir},
	}
}

func defaultOptimize() OptimizeConfig {
	b := optimize.DefaultBatch()
	s := optimize.DefaultSettings()
	return OptimizeConfig{
		Masses:      b.Masses,
		Areas:       b.Areas,
		Speeds:      b.Speeds,
		Objective:   string(s.Objective),
		Population:  s.Population,
		Generations: s.Generations,
		PolishIters: s.PolishIters,
		Seed:        s.Seed,
		LoadTol:     s.LoadTol,
	}
}

// Load reads a YAML config file over the defaults. An empty path yields the
// defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	return LoadWithBase(path, DefaultConfig())
}

// LoadWithBase is Load with base in place of the defaults, so a preset can sit
// underneath the file. Environment variables named FINSIM_<SECTION>_<KEY>
// override both.
func LoadWithBase(path string, base *Config) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v, base)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func registerDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("wing.area_cm2", c.Wing.AreaCm2)
	v.SetDefault("wing.aspect_ratio", c.Wing.AspectRatio)
	v.SetDefault("wing.cd0", c.Wing.Cd0)
	v.SetDefault("wing.swing_ratio", c.Wing.SwingRatio)
	v.SetDefault("wing.efficiency", c.Wing.Efficiency)
	v.SetDefault("wing.phase_shift_deg", c.Wing.PhaseShiftDeg)
	v.SetDefault("wing.asymmetry", c.Wing.Asymmetry)
	v.SetDefault("steps", c.Steps)
	v.SetDefault("sweep.masses", c.Sweep.Masses)
	v.SetDefault("sweep.speeds", c.Sweep.Speeds)
	v.SetDefault("sweep.freqs", c.Sweep.Freqs)
	v.SetDefault("sweep.workers", c.Sweep.Workers)
	v.SetDefault("optimize.masses", c.Optimize.Masses)
	v.SetDefault("optimize.areas", c.Optimize.Areas)
	v.SetDefault("optimize.speeds", c.Optimize.Speeds)
	v.SetDefault("optimize.objective", c.Optimize.Objective)
	v.SetDefault("optimize.population", c.Optimize.Population)
	v.SetDefault("optimize.generations", c.Optimize.Generations)
	v.SetDefault("optimize.polish_iters", c.Optimize.PolishIters)
	v.SetDefault("optimize.seed", c.Optimize.Seed)
	v.SetDefault("optimize.load_tol", c.Optimize.LoadTol)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.output_file", c.Logging.OutputFile)
	v.SetDefault("output.data_dir", c.Output.DataDir)
	v.SetDefault("output.plots", c.Output.Plots)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	w := c.Wing
	checks := []struct {
		ok  bool
		msg string
	}{
		{w.AreaCm2 > 0, "wing.area_cm2 must be positive"},
		{w.AspectRatio > 0, "wing.aspect_ratio must be positive"},
		{w.Cd0 >= 0, "wing.cd0 must be non-negative"},
		{w.SwingRatio >= 0 && w.SwingRatio <= 1, "wing.swing_ratio must be in [0, 1]"},
		{w.Efficiency >= 0 && w.Efficiency <= 1, "wing.efficiency must be in [0, 1]"},
		{!math.IsNaN(w.PhaseShiftDeg) && !math.IsInf(w.PhaseShiftDeg, 0), "wing.phase_shift_deg must be finite"},
		{!math.IsNaN(w.Asymmetry) && !math.IsInf(w.Asymmetry, 0), "wing.asymmetry must be finite"},
		{c.Steps > 0, "steps must be positive"},
		{c.Sweep.Workers >= 1, "sweep.workers must be at least 1"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, chk.msg)
		}
	}
	if err := c.Grid().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Batch().Validate(); err != nil {
		return fmt.Errorf("%w: optimize: %w", ErrInvalidConfig, err)
	}
	settings, err := c.OptimizeSettings()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// BaseParams returns the parameter template handed to the solver. Mass,
// speed, frequency, trim and amplitude are filled in per solve.
func (c *Config) BaseParams() hydro.Params {
	p := hydro.DefaultParams(0, 0, c.Wing.AreaCm2, 0)
	p.AspectRatio = c.Wing.AspectRatio
	p.Cd0 = c.Wing.Cd0
	p.SwingRatio = c.Wing.SwingRatio
	p.Efficiency = c.Wing.Efficiency
	p.PhaseShiftDeg = c.Wing.PhaseShiftDeg
	p.Asymmetry = c.Wing.Asymmetry
	return p
}

func (c *Config) Grid() sweep.Grid {
	return sweep.Grid{
		Masses: c.Sweep.Masses,
		Speeds: c.Sweep.Speeds,
		Freqs:  c.Sweep.Freqs,
	}
}

// Solver builds an equilibrium solver for the configured wing.
func (c *Config) Solver() *solver.Solver {
	return solver.New(solver.WithBase(c.BaseParams()), solver.WithSteps(c.Steps))
}

func (c *Config) Batch() optimize.Batch {
	return optimize.Batch{
		Masses: c.Optimize.Masses,
		Areas:  c.Optimize.Areas,
		Speeds: c.Optimize.Speeds,
	}
}

// OptimizeSettings overlays the optimize section on the default search
// settings.
func (c *Config) OptimizeSettings() (optimize.Settings, error) {
	s := optimize.DefaultSettings()
	obj, err := optimize.ParseObjective(c.Optimize.Objective)
	if err != nil {
		return s, err
	}
	s.Objective = obj
	s.Population = c.Optimize.Population
	s.Generations = c.Optimize.Generations
	s.PolishIters = c.Optimize.PolishIters
	s.Seed = c.Optimize.Seed
	s.LoadTol = c.Optimize.LoadTol
	return s, nil
}

// Optimizer builds a stroke optimiser for the configured wing coefficients.
func (c *Config) Optimizer() (*optimize.Optimizer, error) {
	s, err := c.OptimizeSettings()
	if err != nil {
		return nil, err
	}
	return optimize.New(optimize.WithBase(c.BaseParams()), optimize.WithSettings(s)), nil
}

func (c *Config) clone() *Config {
	out := *c
	out.Sweep.Masses = append([]float64(nil), c.Sweep.Masses...)
	out.Sweep.Speeds = append([]float64(nil), c.Sweep.Speeds...)
	out.Sweep.Freqs = append([]float64(nil), c.Sweep.Freqs...)
	out.Optimize.Masses = append([]float64(nil), c.Optimize.Masses...)
	out.Optimize.Areas = append([]float64(nil), c.Optimize.Areas...)
	out.Optimize.Speeds = append([]float64(nil), c.Optimize.Speeds...)
	return &out
}
