package config

import (
	"fmt"
	"sort"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// presets are parameter groups for common acquisition regimes
var presets = map[string]map[string]float64{
	"high-resolution": {
		"mzsig": 0.1, "psfun": 0, "massbins": 1, "peakwindow": 10,
		"beta": 50, "psig": 1, "zzsig": 1, "linflag": 2,
	},
	"low-resolution": {
		"mzsig": 10, "psfun": 2, "massbins": 10, "peakwindow": 500,
		"beta": 0, "psig": 0, "linflag": 2,
	},
	"large-assembly": {
		"startz": 1, "endz": 200, "masslb": 100000, "massub": 5000000,
		"massbins": 100, "mzsig": 10, "psfun": 2, "peakwindow": 5000,
	},
	"isotope-resolved": {
		"isotopemode": 1, "mzsig": 0.01, "psfun": 0, "massbins": 0.1,
		"startz": 1, "endz": 30, "masslb": 1000, "massub": 50000, "peakwindow": 5,
	},
	"native": {
		"startz": 5, "endz": 60, "masslb": 10000, "massub": 1000000,
		"massbins": 10, "mzsig": 1, "psfun": 0, "peakwindow": 500, "linflag": 2,
	},
}

// PresetNames returns the available preset names, sorted
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a copy of the named preset's overrides
func Preset(name string) (map[string]float64, bool) {
	p, ok := presets[name]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out, true
}

// ApplyPreset sets every parameter of the named preset
func (c *EngineConfig) ApplyPreset(name string) error {
	p, ok := presets[name]
	if !ok {
		return &core.ConfigError{Field: "preset", Message: fmt.Sprintf("unknown preset %q", name)}
	}
	values := make(map[string]any, len(p))
	for k, v := range p {
		values[k] = v
	}
	return c.apply(values, true)
}
