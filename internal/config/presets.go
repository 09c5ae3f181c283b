package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/finsim/internal/sweep"
)

// Presets groups named configurations: "sweep" presets change the grid,
// "wing" presets change the foil.
var Presets = map[string]map[string]*Config{
	"sweep": {
		"standard": withGrid(
			[]float64{70, 85, 100},
			[]float64{14, 16, 18, 20},
			[]float64{1.2, 1.3, 1.4, 1.5, 1.6}),
		"quick": withGrid(
			[]float64{70},
			[]float64{16},
			[]float64{1.4}),
		"fine": withGrid(
			sweep.Range(60, 110, 10),
			sweep.Range(12, 22, 1),
			sweep.Range(1.0, 1.8, 0.1)),
		"heavy": withGrid(
			[]float64{100, 115, 130},
			[]float64{16, 18, 20, 22},
			[]float64{1.2, 1.4, 1.6}),
	},
	"wing": {
		"race": withWing(func(w *WingConfig) {
			w.AreaCm2 = 1100
			w.AspectRatio = 16
			w.Cd0 = 0.012
		}),
		"cruiser": withWing(func(w *WingConfig) {
			w.AreaCm2 = 1800
			w.AspectRatio = 10
			w.Cd0 = 0.018
		}),
		"quick-down": withWing(func(w *WingConfig) {
			w.Asymmetry = 0.3
		}),
	},
}

func withGrid(masses, speeds, freqs []float64) *Config {
	cfg := DefaultConfig()
	cfg.Sweep.Masses = masses
	cfg.Sweep.Speeds = speeds
	cfg.Sweep.Freqs = freqs
	return cfg
}

func withWing(fn func(*WingConfig)) *Config {
	cfg := DefaultConfig()
	fn(&cfg.Wing)
	return cfg
}

// GetPreset returns a copy of the named preset.
func GetPreset(group, name string) (*Config, error) {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil, fmt.Errorf("%w: group %q", ErrUnknownPreset, group)
	}
	cfg, ok := groupPresets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownPreset, group, name)
	}
	return cfg.clone(), nil
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
