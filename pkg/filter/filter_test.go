package filter

import (
	"errors"
	"math"
	"testing"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

func ramp(n int, start, step float64) *core.Spectrum {
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = start + float64(i)*step
		y[i] = float64(i)
	}
	return core.NewSpectrum(x, y)
}

func TestApplyCrop(t *testing.T) {
	spec := ramp(100, 1000, 1)
	cfg := &Config{MinMZ: 1010, MaxMZ: 1019}
	if err := cfg.Apply(spec); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if spec.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", spec.Len())
	}
	if spec.X[0] != 1010 || spec.X[9] != 1019 {
		t.Errorf("bounds = [%g, %g], want [1010, 1019]", spec.X[0], spec.X[9])
	}
}

func TestApplyDegenerate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"inverted", Config{MinMZ: 1050, MaxMZ: 1040}},
		{"too narrow", Config{MinMZ: 1010, MaxMZ: 1011}},
		{"coarse bins", Config{MZBins: 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Apply(ramp(100, 1000, 1))
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Apply() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestLinearize(t *testing.T) {
	// non-uniform axis, y = 2x
	x := []float64{100, 100.5, 101.7, 103, 104}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2 * x[i]
	}
	spec := core.NewSpectrum(x, y)
	cfg := &Config{MZBins: 0.5}
	if err := cfg.Apply(spec); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if spec.Len() != 9 {
		t.Fatalf("Len() = %d, want 9", spec.Len())
	}
	if !spec.IsUniform(1e-9) {
		t.Error("linearized axis is not uniform")
	}
	for i := range spec.X {
		if math.Abs(spec.Y[i]-2*spec.X[i]) > 1e-9 {
			t.Errorf("y(%g) = %g, want %g", spec.X[i], spec.Y[i], 2*spec.X[i])
		}
	}
}

func TestThresholdAndNorm(t *testing.T) {
	spec := ramp(10, 0, 1)
	cfg := &Config{IntensityThreshold: 5, DataNorm: true}
	if err := cfg.Apply(spec); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	for i, v := range spec.Y {
		want := 0.0
		if i >= 5 {
			want = float64(i) / 9
		}
		if math.Abs(v-want) > 1e-12 {
			t.Errorf("y[%d] = %g, want %g", i, v, want)
		}
	}
}

func TestGaussianSmoothPreservesConstant(t *testing.T) {
	y := []float64{3, 3, 3, 3, 3, 3}
	for i, v := range GaussianSmooth(y, 2) {
		if math.Abs(v-3) > 1e-12 {
			t.Errorf("smoothed[%d] = %g, want 3", i, v)
		}
	}
}

func TestSubtractBackground(t *testing.T) {
	y := []float64{5, 5, 9, 5, 5}
	SubtractBackground(y, 1)
	want := []float64{0, 0, 4, 0, 0}
	for i := range want {
		if y[i] != want[i] {
			t.Errorf("y[%d] = %g, want %g", i, y[i], want[i])
		}
	}
}

func TestRemoveZeroIntensity(t *testing.T) {
	spec := core.NewSpectrum([]float64{1, 2, 3, 4}, []float64{0, 2, -1, 4})
	RemoveZeroIntensity(spec)
	if spec.Len() != 2 || spec.X[0] != 2 || spec.X[1] != 4 {
		t.Errorf("RemoveZeroIntensity() left %v", spec.X)
	}
}
