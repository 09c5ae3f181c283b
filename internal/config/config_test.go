package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/finsim/internal/hydro"
	"github.com/san-kum/finsim/internal/optimize"
	"github.com/san-kum/finsim/internal/solver"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Wing.AreaCm2 != solver.WingAreaCm2 {
		t.Errorf("expected wing area %v, got %v", solver.WingAreaCm2, cfg.Wing.AreaCm2)
	}
	if cfg.Steps != hydro.DefaultSteps {
		t.Errorf("expected %d steps, got %d", hydro.DefaultSteps, cfg.Steps)
	}
	if cfg.Sweep.Workers != 1 {
		t.Errorf("sweeps should default to one worker, got %d", cfg.Sweep.Workers)
	}
	if got := cfg.Grid().Size(); got != 60 {
		t.Errorf("expected 60 grid cells, got %d", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestBaseParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Wing.Asymmetry = 0.2
	p := cfg.BaseParams()

	if p.WingAreaCm2 != cfg.Wing.AreaCm2 || p.Asymmetry != 0.2 {
		t.Errorf("base params not taken from config: %+v", p)
	}
	if p.HeaveAmp != hydro.DefaultHeaveAmp {
		t.Errorf("expected default heave amplitude, got %v", p.HeaveAmp)
	}
	if cfg.Solver().Base() != p {
		t.Error("solver should be built on the base params")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero area", func(c *Config) { c.Wing.AreaCm2 = 0 }},
		{"negative cd0", func(c *Config) { c.Wing.Cd0 = -0.1 }},
		{"efficiency above one", func(c *Config) { c.Wing.Efficiency = 1.5 }},
		{"zero steps", func(c *Config) { c.Steps = 0 }},
		{"zero workers", func(c *Config) { c.Sweep.Workers = 0 }},
		{"empty speeds", func(c *Config) { c.Sweep.Speeds = nil }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"no optimize areas", func(c *Config) { c.Optimize.Areas = nil }},
		{"bad objective", func(c *Config) { c.Optimize.Objective = "peak" }},
		{"tiny population", func(c *Config) { c.Optimize.Population = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finsim.yaml")
	cfg := DefaultConfig()
	cfg.Steps = 45
	cfg.Wing.AspectRatio = 11
	cfg.Sweep.Masses = []float64{65, 75}
	cfg.Sweep.Workers = 3
	cfg.Output.Plots = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Steps != 45 || loaded.Wing.AspectRatio != 11 || loaded.Sweep.Workers != 3 {
		t.Errorf("loaded config differs: %+v", loaded)
	}
	if len(loaded.Sweep.Masses) != 2 || loaded.Sweep.Masses[1] != 75 {
		t.Errorf("expected masses [65 75], got %v", loaded.Sweep.Masses)
	}
	if !loaded.Output.Plots {
		t.Error("expected plots enabled")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("wing:\n  cd0: 0.02\nsweep:\n  freqs: [1.1, 1.7]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Wing.Cd0 != 0.02 {
		t.Errorf("expected cd0 0.02, got %v", cfg.Wing.Cd0)
	}
	if cfg.Wing.AspectRatio != hydro.DefaultAspectRatio {
		t.Errorf("expected default aspect ratio, got %v", cfg.Wing.AspectRatio)
	}
	if len(cfg.Sweep.Freqs) != 2 || len(cfg.Sweep.Masses) != 3 {
		t.Errorf("unexpected sweep axes: %+v", cfg.Sweep)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("FINSIM_STEPS", "60")
	t.Setenv("FINSIM_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Steps != 60 {
		t.Errorf("expected steps 60 from environment, got %d", cfg.Steps)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level from environment, got %s", cfg.Logging.Level)
	}
}

func TestOptimizeSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opt.yaml")
	data := []byte("optimize:\n  areas: [1500]\n  objective: norm\n  generations: 40\n  seed: 9\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINSIM_OPTIMIZE_POPULATION", "12")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if b := cfg.Batch(); b.Size() != 3*17 {
		t.Errorf("expected default masses and speeds over one area, got %d cells", b.Size())
	}

	s, err := cfg.OptimizeSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Objective != optimize.NormalizedPower || s.Generations != 40 || s.Seed != 9 || s.Population != 12 {
		t.Errorf("settings not taken from config: %+v", s)
	}
	def := optimize.DefaultSettings()
	if s.F != def.F || s.CR != def.CR || s.LiftTol != def.LiftTol {
		t.Errorf("unset search constants should keep defaults: %+v", s)
	}

	o, err := cfg.Optimizer()
	if err != nil {
		t.Fatal(err)
	}
	if o.Settings() != s {
		t.Error("optimizer should carry the configured settings")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadWithPresetBase(t *testing.T) {
	base, err := GetPreset("sweep", "quick")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "over.yaml")
	if err := os.WriteFile(path, []byte("steps: 40\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithBase(path, base)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Grid().Size() != 1 {
		t.Errorf("expected the preset grid underneath, got %d cells", cfg.Grid().Size())
	}
	if cfg.Steps != 40 {
		t.Errorf("file should override preset, got %d steps", cfg.Steps)
	}
}
