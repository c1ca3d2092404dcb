// Package config holds the deconvolution engine parameters, the on-disk
// artifact layout of a run and the solver configuration file format.
package config

import (
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
	"github.com/ChrisMcGann/DeconKey/pkg/filter"
	"github.com/ChrisMcGann/DeconKey/pkg/peaks"
	"github.com/ChrisMcGann/DeconKey/pkg/peakshape"
)

// EngineConfig holds every solver and post-processing parameter. Field tags
// are the keys of the exported configuration file.
type EngineConfig struct {
	// Solver
	NumIt      int     `mapstructure:"numit" yaml:"numit"`
	StartZ     int     `mapstructure:"startz" yaml:"startz"`
	EndZ       int     `mapstructure:"endz" yaml:"endz"`
	ZZSig      float64 `mapstructure:"zzsig" yaml:"zzsig"`
	PSig       float64 `mapstructure:"psig" yaml:"psig"`
	Beta       float64 `mapstructure:"beta" yaml:"beta"`
	MZSig      float64 `mapstructure:"mzsig" yaml:"mzsig"`
	PSFun      int     `mapstructure:"psfun" yaml:"psfun"`
	VoigtGamma float64 `mapstructure:"voigtgamma" yaml:"voigtgamma"`
	MassUB     float64 `mapstructure:"massub" yaml:"massub"`
	MassLB     float64 `mapstructure:"masslb" yaml:"masslb"`
	MassBins   float64 `mapstructure:"massbins" yaml:"massbins"`

	// Preprocessing
	MinMZ     float64 `mapstructure:"minmz" yaml:"minmz"`
	MaxMZ     float64 `mapstructure:"maxmz" yaml:"maxmz"`
	MZBins    float64 `mapstructure:"mzbins" yaml:"mzbins"`
	Smooth    float64 `mapstructure:"smooth" yaml:"smooth"`
	SubBuff   int     `mapstructure:"subbuff" yaml:"subbuff"`
	IntThresh float64 `mapstructure:"intthresh" yaml:"intthresh"`
	DataNorm  int     `mapstructure:"datanorm" yaml:"datanorm"`

	// Peak picking
	PeakWindow    float64 `mapstructure:"peakwindow" yaml:"peakwindow"`
	PeakThresh    float64 `mapstructure:"peakthresh" yaml:"peakthresh"`
	PeakNorm      int     `mapstructure:"peaknorm" yaml:"peaknorm"`
	PeakNormValue float64 `mapstructure:"peaknormvalue" yaml:"peaknormvalue"`

	// Chemistry and solver flags
	AdductMass   float64 `mapstructure:"adductmass" yaml:"adductmass"`
	MOlig        float64 `mapstructure:"molig" yaml:"molig"`
	MSig         float64 `mapstructure:"msig" yaml:"msig"`
	Separation   float64 `mapstructure:"separation" yaml:"separation"`
	IsotopeMode  int     `mapstructure:"isotopemode" yaml:"isotopemode"`
	LinFlag      int     `mapstructure:"linflag" yaml:"linflag"`
	Aggressive   int     `mapstructure:"aggressive" yaml:"aggressive"`
	RawFlag      int     `mapstructure:"rawflag" yaml:"rawflag"`
	NativeZUB    float64 `mapstructure:"nativezub" yaml:"nativezub"`
	NativeZLB    float64 `mapstructure:"nativezlb" yaml:"nativezlb"`
	PoolFlag     int     `mapstructure:"poolflag" yaml:"poolflag"`
	NoiseFlag    int     `mapstructure:"noiseflag" yaml:"noiseflag"`
	BaselineFlag int     `mapstructure:"baselineflag" yaml:"baselineflag"`
	OrbiMode     int     `mapstructure:"orbimode" yaml:"orbimode"`
	ZeroLog      float64 `mapstructure:"zerolog" yaml:"zerolog"`
	MTabSig      float64 `mapstructure:"mtabsig" yaml:"mtabsig"`
	KendrickMass float64 `mapstructure:"kendrickmass" yaml:"kendrickmass"`
	RemoveBelow  float64 `mapstructure:"removebelow" yaml:"removebelow"`

	Files Files `mapstructure:"-" yaml:"-"`
}

// Default returns the standard parameter set
func Default() *EngineConfig {
	return &EngineConfig{
		NumIt:         100,
		StartZ:        1,
		EndZ:          50,
		ZZSig:         1,
		PSig:          1,
		Beta:          0,
		MZSig:         1,
		PSFun:         int(peakshape.Gaussian),
		MassUB:        500000,
		MassLB:        5000,
		MassBins:      10,
		DataNorm:      1,
		PeakWindow:    500,
		PeakThresh:    0.1,
		PeakNorm:      int(peaks.NormMax),
		PeakNormValue: 1,
		AdductMass:    core.ProtonMass,
		Separation:    0.025,
		LinFlag:       2,
		NativeZUB:     1000,
		NativeZLB:     -1000,
		PoolFlag:      2,
		ZeroLog:       -12,
	}
}

// Clone returns a copy of the configuration
func (c *EngineConfig) Clone() *EngineConfig {
	out := *c
	return &out
}

// NumZ returns the number of charge states in the solver range
func (c *EngineConfig) NumZ() int {
	return c.EndZ - c.StartZ + 1
}

// Charges returns the charge axis StartZ..EndZ
func (c *EngineConfig) Charges() []int {
	if c.NumZ() <= 0 {
		return nil
	}
	out := make([]int, 0, c.NumZ())
	for z := c.StartZ; z <= c.EndZ; z++ {
		out = append(out, z)
	}
	return out
}

// Shape returns the configured peak shape
func (c *EngineConfig) Shape() peakshape.Shape {
	return peakshape.Shape(c.PSFun)
}

// Profile returns the m/z peak profile used for convolution
func (c *EngineConfig) Profile() peakshape.Profile {
	return peakshape.Profile{Shape: c.Shape(), FWHM: c.MZSig, Gamma: c.VoigtGamma}
}

// NormMode returns the configured peak normalization
func (c *EngineConfig) NormMode() peaks.NormMode {
	return peaks.NormMode(c.PeakNorm)
}

// Preprocess returns the preprocessing settings for the filter package
func (c *EngineConfig) Preprocess() *filter.Config {
	mzbins := 0.0
	// linflag 2 keeps the raw axis
	if c.LinFlag != 2 {
		mzbins = c.MZBins
	}
	return &filter.Config{
		MinMZ:              c.MinMZ,
		MaxMZ:              c.MaxMZ,
		MZBins:             mzbins,
		Smooth:             c.Smooth,
		SubtractBuffer:     c.SubBuff,
		IntensityThreshold: c.IntThresh,
		DataNorm:           c.DataNorm != 0,
	}
}

// PeakWindowBins returns the peak detection window in mass bins, at least 1
func (c *EngineConfig) PeakWindowBins() int {
	if c.MassBins <= 0 {
		return 1
	}
	return max(int(c.PeakWindow/c.MassBins+0.5), 1)
}

// Validate checks parameter invariants
func (c *EngineConfig) Validate() error {
	switch {
	case c.StartZ < 1:
		return &core.ConfigError{Field: "startz", Message: fmt.Sprintf("must be at least 1, got %d", c.StartZ)}
	case c.StartZ > c.EndZ:
		return &core.ConfigError{Field: "endz", Message: fmt.Sprintf("charge range %d..%d is inverted", c.StartZ, c.EndZ)}
	case c.MassLB >= c.MassUB:
		return &core.ConfigError{Field: "massub", Message: fmt.Sprintf("mass range %g..%g is empty", c.MassLB, c.MassUB)}
	case c.MassBins <= 0:
		return &core.ConfigError{Field: "massbins", Message: fmt.Sprintf("must be positive, got %g", c.MassBins)}
	case c.MZBins < 0:
		return &core.ConfigError{Field: "mzbins", Message: fmt.Sprintf("must not be negative, got %g", c.MZBins)}
	case c.PeakWindow <= 0:
		return &core.ConfigError{Field: "peakwindow", Message: fmt.Sprintf("must be positive, got %g", c.PeakWindow)}
	case c.PeakThresh < 0 || c.PeakThresh >= 1:
		return &core.ConfigError{Field: "peakthresh", Message: fmt.Sprintf("must be in [0, 1), got %g", c.PeakThresh)}
	case !c.Shape().Valid():
		return &core.ConfigError{Field: "psfun", Message: fmt.Sprintf("unknown peak shape %d", c.PSFun)}
	case c.PeakNorm < int(peaks.NormNone) || c.PeakNorm > int(peaks.NormCustom):
		return &core.ConfigError{Field: "peaknorm", Message: fmt.Sprintf("unknown normalization %d", c.PeakNorm)}
	case c.MaxMZ > 0 && c.MinMZ >= c.MaxMZ:
		return &core.ConfigError{Field: "maxmz", Message: fmt.Sprintf("m/z range %g..%g is empty", c.MinMZ, c.MaxMZ)}
	}
	return nil
}

// Set assigns a single parameter by its export key
func (c *EngineConfig) Set(key string, value float64) error {
	return c.apply(map[string]any{strings.ToLower(key): value}, true)
}

// apply decodes a key/value table into the configuration
func (c *EngineConfig) apply(values map[string]any, strict bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
		DecodeHook:       mapstructure.DecodeHookFuncKind(rejectFraction),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(values); err != nil {
		return &core.ConfigError{Field: "parameters", Message: err.Error()}
	}
	return nil
}

// rejectFraction refuses float values with a fractional part for integer
// parameters instead of truncating them
func rejectFraction(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.Float64 || to != reflect.Int {
		return data, nil
	}
	if v := data.(float64); v != math.Trunc(v) {
		return nil, fmt.Errorf("%g is not an integer", v)
	}
	return data, nil
}

// Values returns the parameters keyed by export key
func (c *EngineConfig) Values() (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(c, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Files lists the artifacts of one run, all under Dir
type Files struct {
	Dir      string
	Base     string
	Input    string
	Conf     string
	Mass     string
	Peaks    string
	MZGrid   string
	MassGrid string
	FitDat   string
	Error    string
}

// OutputBase is the path prefix the solver appends artifact suffixes to
func (f Files) OutputBase() string {
	return filepath.Join(f.Dir, f.Base)
}

// Initialize derives the base filename and artifact paths for a spectrum
func (c *EngineConfig) Initialize(spectrumID, outputDir string) error {
	if strings.TrimSpace(spectrumID) == "" {
		return &core.ConfigError{Field: "spectrum id", Message: "must not be empty"}
	}
	if strings.TrimSpace(outputDir) == "" {
		return &core.ConfigError{Field: "output directory", Message: "must not be empty"}
	}

	base := sanitize(spectrumID)
	if base == "" {
		return &core.ConfigError{Field: "spectrum id", Message: fmt.Sprintf("%q leaves an empty file name", spectrumID)}
	}
	dir, err := filepath.Abs(filepath.Join(outputDir, base+"_unidecfiles"))
	if err != nil {
		return &core.ConfigError{Field: "output directory", Message: err.Error()}
	}

	join := func(suffix string) string {
		return filepath.Join(dir, base+suffix)
	}
	c.Files = Files{
		Dir:      dir,
		Base:     base,
		Input:    join("_input.dat"),
		Conf:     join("_conf.dat"),
		Mass:     join("_mass.txt"),
		Peaks:    join("_peaks.dat"),
		MZGrid:   join("_grid.dat"),
		MassGrid: join("_massgrid.dat"),
		FitDat:   join("_fitdat.dat"),
		Error:    join("_error.txt"),
	}
	return nil
}

// sanitize strips the extension and replaces separators and spaces
func sanitize(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	r := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
