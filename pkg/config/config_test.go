package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
	"github.com/ChrisMcGann/DeconKey/pkg/peaks"
	"github.com/ChrisMcGann/DeconKey/pkg/peakshape"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50, cfg.NumZ())
	assert.Equal(t, peakshape.Gaussian, cfg.Shape())
	assert.Equal(t, peaks.NormMax, cfg.NormMode())
	assert.Equal(t, 50, cfg.PeakWindowBins())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*EngineConfig)
		field string
	}{
		{"inverted charges", func(c *EngineConfig) { c.StartZ, c.EndZ = 10, 5 }, "endz"},
		{"zero charge", func(c *EngineConfig) { c.StartZ = 0 }, "startz"},
		{"empty mass range", func(c *EngineConfig) { c.MassLB = c.MassUB }, "massub"},
		{"zero mass bins", func(c *EngineConfig) { c.MassBins = 0 }, "massbins"},
		{"negative mz bins", func(c *EngineConfig) { c.MZBins = -1 }, "mzbins"},
		{"zero window", func(c *EngineConfig) { c.PeakWindow = 0 }, "peakwindow"},
		{"threshold of one", func(c *EngineConfig) { c.PeakThresh = 1 }, "peakthresh"},
		{"unknown shape", func(c *EngineConfig) { c.PSFun = 7 }, "psfun"},
		{"unknown norm", func(c *EngineConfig) { c.PeakNorm = 4 }, "peaknorm"},
		{"inverted mz", func(c *EngineConfig) { c.MinMZ, c.MaxMZ = 3000, 2000 }, "maxmz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(cfg)
			var cerr *core.ConfigError
			require.True(t, errors.As(cfg.Validate(), &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestSet(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Set("massbins", 0.5))
	require.NoError(t, cfg.Set("EndZ", 30))
	require.NoError(t, cfg.Set("psfun", 2))
	assert.Equal(t, 0.5, cfg.MassBins)
	assert.Equal(t, 30, cfg.EndZ)
	assert.Equal(t, peakshape.SplitGL, cfg.Shape())

	var cerr *core.ConfigError
	assert.True(t, errors.As(cfg.Set("nosuchkey", 1), &cerr))
}

func TestSetRejectsFractionalIntegers(t *testing.T) {
	cfg := Default()
	var cerr *core.ConfigError
	require.True(t, errors.As(cfg.Set("psfun", 1.5), &cerr))
	assert.Contains(t, cerr.Error(), "not an integer")
	assert.Equal(t, 0, cfg.PSFun)

	require.NoError(t, cfg.Set("numit", 250))
	assert.Equal(t, 250, cfg.NumIt)

	_, _, err := cfg.Load(strings.NewReader("endz 20.5\n"))
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, 50, cfg.EndZ)
}

func TestInitialize(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	require.NoError(t, cfg.Initialize("runs/my sample.txt", dir))

	f := cfg.Files
	assert.Equal(t, "runs_my_sample", f.Base)
	assert.Equal(t, filepath.Join(dir, "runs_my_sample_unidecfiles"), f.Dir)
	assert.Equal(t, filepath.Join(f.Dir, "runs_my_sample_input.dat"), f.Input)
	assert.Equal(t, filepath.Join(f.Dir, "runs_my_sample_conf.dat"), f.Conf)
	assert.Equal(t, filepath.Join(f.Dir, "runs_my_sample_mass.txt"), f.Mass)
	assert.Equal(t, filepath.Join(f.Dir, "runs_my_sample_grid.dat"), f.MZGrid)
	assert.Equal(t, filepath.Join(f.Dir, "runs_my_sample_massgrid.dat"), f.MassGrid)
	assert.Equal(t, filepath.Join(f.Dir, "runs_my_sample"), f.OutputBase())

	for _, args := range [][2]string{{"", dir}, {"x", ""}, {".raw", dir}} {
		var cerr *core.ConfigError
		assert.True(t, errors.As(Default().Initialize(args[0], args[1]), &cerr), "args %q", args)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	require.NoError(t, cfg.Initialize("sample", dir))
	cfg.MZSig = 0.123456789012345
	cfg.AdductMass = -1.007276467
	cfg.EndZ = 42
	cfg.KendrickMass = 1000.5

	require.NoError(t, os.MkdirAll(cfg.Files.Dir, 0o755))
	require.NoError(t, cfg.Export(cfg.Files.Conf))

	loaded := &EngineConfig{}
	require.NoError(t, loaded.Import(cfg.Files.Conf))

	want := cfg.Clone()
	want.Files = Files{}
	assert.Equal(t, want, loaded)
}

func TestExportFormat(t *testing.T) {
	cfg := Default()
	cfg.MZSig = 0.1
	var buf bytes.Buffer
	_, err := cfg.WriteTo(&buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(exportKeys)+1)
	assert.Equal(t, "numit 100", lines[0])
	assert.Contains(t, lines, "mzsig 0.1")
	assert.Contains(t, lines, "adductmass 1.00727646688")
	assert.Equal(t, "numz 50", lines[len(lines)-1])

	// stable across calls
	var again bytes.Buffer
	_, err = cfg.WriteTo(&again)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), again.String())
}

func TestExportUnwritable(t *testing.T) {
	err := Default().Export(filepath.Join(t.TempDir(), "missing", "conf.dat"))
	var ioErr *core.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestLoadPaths(t *testing.T) {
	in := "input /tmp/a_input.dat\noutput /tmp/a\n# comment\nmassbins 2\nnumz 9\nbogus 1\n"
	cfg := Default()
	input, output, err := cfg.Load(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a_input.dat", input)
	assert.Equal(t, "/tmp/a", output)
	assert.Equal(t, 2.0, cfg.MassBins)

	_, _, err = cfg.Load(strings.NewReader("massbins ten\n"))
	var cerr *core.ConfigError
	assert.True(t, errors.As(err, &cerr))
}

func TestPresets(t *testing.T) {
	names := PresetNames()
	assert.Equal(t, []string{"high-resolution", "isotope-resolved", "large-assembly", "low-resolution", "native"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.ApplyPreset(name))
			require.NoError(t, cfg.Validate())
			assert.GreaterOrEqual(t, len(cfg.Charges()), 2, "peak picking needs a charge axis")

			overrides, ok := Preset(name)
			require.True(t, ok)
			values, err := cfg.Values()
			require.NoError(t, err)
			for k, v := range overrides {
				switch got := values[k].(type) {
				case int:
					assert.Equal(t, int(v), got, k)
				case float64:
					assert.Equal(t, v, got, k)
				}
			}
		})
	}

	var cerr *core.ConfigError
	assert.True(t, errors.As(Default().ApplyPreset("nanodisc"), &cerr))
}

func TestPreprocess(t *testing.T) {
	cfg := Default()
	cfg.MZBins = 0.5
	assert.Equal(t, 0.0, cfg.Preprocess().MZBins, "linflag 2 keeps the raw axis")
	cfg.LinFlag = 0
	assert.Equal(t, 0.5, cfg.Preprocess().MZBins)
	assert.True(t, cfg.Preprocess().DataNorm)
}
