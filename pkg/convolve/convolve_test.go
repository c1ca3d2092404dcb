package convolve

import (
	"errors"
	"math"
	"testing"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
	"github.com/ChrisMcGann/DeconKey/pkg/peakshape"
)

func linspace(start, step float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = start + float64(i)*step
	}
	return x
}

func TestStickRoundTrip(t *testing.T) {
	x := linspace(500, 0.5, 1000)
	shapes := []peakshape.Shape{peakshape.Gaussian, peakshape.Lorentzian, peakshape.SplitGL}

	for _, shape := range shapes {
		t.Run(shape.String(), func(t *testing.T) {
			prof := peakshape.Profile{Shape: shape, FWHM: 2}
			i := 400
			got, err := Sticks(x, []Stick{{Position: x[i], Index: i, Height: 1}}, prof, Direct{})
			if err != nil {
				t.Fatalf("Sticks() error = %v", err)
			}
			for j := i - 60; j <= i+60; j++ {
				want := prof.Eval(x[j]-x[i], peakshape.MaxNorm)
				if math.Abs(got[j]-want) > 1e-9 {
					t.Fatalf("sample %d: got %g, want %g", j, got[j], want)
				}
			}
		})
	}
}

func TestUniformMatchesDirect(t *testing.T) {
	x := linspace(1000, 1, 600)
	prof := peakshape.Profile{Shape: peakshape.Gaussian, FWHM: 4}
	sticks := []Stick{
		{Position: x[150], Index: 150, Height: 10},
		{Position: x[160], Index: 160, Height: 4},
		{Position: x[420], Index: 420, Height: 7},
	}

	fft, err := Sticks(x, sticks, prof, nil)
	if err != nil {
		t.Fatalf("Sticks() error = %v", err)
	}
	direct, err := Direct{}.Convolve(x, sticks, prof, peakshape.MaxNorm)
	if err != nil {
		t.Fatalf("Convolve() error = %v", err)
	}
	for j := range x {
		if math.Abs(fft[j]-direct[j]) > 1e-9 {
			t.Fatalf("sample %d: fft %g, direct %g", j, fft[j], direct[j])
		}
	}
}

func TestParallelMatchesDirect(t *testing.T) {
	// quadratic spacing keeps the axis non-uniform
	n := 5000
	x := make([]float64, n)
	for i := range x {
		f := float64(i)
		x[i] = 1000 + f + 1e-4*f*f
	}
	prof := peakshape.Profile{Shape: peakshape.Lorentzian, FWHM: 3}
	sticks := []Stick{
		{Position: 1500, Height: 3},
		{Position: 2100.5, Height: 8},
		{Position: 3300, Height: 1},
	}

	want, err := Direct{}.Convolve(x, sticks, prof, peakshape.MaxNorm)
	if err != nil {
		t.Fatalf("Convolve() error = %v", err)
	}
	got, err := Sticks(x, sticks, prof, Parallel{Workers: 4})
	if err != nil {
		t.Fatalf("Sticks() error = %v", err)
	}
	for j := range x {
		if got[j] != want[j] {
			t.Fatalf("sample %d: parallel %g, direct %g", j, got[j], want[j])
		}
	}
}

// failingStrategy reports an error from every convolution
type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }

func (failingStrategy) Convolve(x []float64, sticks []Stick, prof peakshape.Profile, norm peakshape.Norm) ([]float64, error) {
	return nil, errors.New("worker failed")
}

func TestStrategyErrorPropagates(t *testing.T) {
	x := []float64{100, 101, 103, 106, 110, 115, 121, 128, 136, 145}
	prof := peakshape.Profile{Shape: peakshape.Gaussian, FWHM: 0.5}

	if _, err := Sticks(x, []Stick{{Position: 110, Index: 4, Height: 1}}, prof, failingStrategy{}); err == nil {
		t.Error("Sticks() error = nil, want strategy error")
	}
	s := core.NewSpectrum(x, make([]float64, len(x)))
	if _, err := Spectrum(s, prof, failingStrategy{}); err == nil {
		t.Error("Spectrum() error = nil, want strategy error")
	}
}

func TestKernelTooLarge(t *testing.T) {
	tests := []struct {
		name string
		n    int
		prof peakshape.Profile
	}{
		{"window exceeds length", 50, peakshape.Profile{Shape: peakshape.Gaussian, FWHM: 5}},
		{"zero fwhm", 500, peakshape.Profile{Shape: peakshape.Gaussian, FWHM: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Kernel(tt.n, 1, tt.prof)
			var cerr *core.ConvolutionError
			if !errors.As(err, &cerr) {
				t.Fatalf("Kernel() error = %v, want ConvolutionError", err)
			}
		})
	}
}

func TestSticksNonUniformWindow(t *testing.T) {
	x := []float64{100, 101, 103, 106, 110}
	prof := peakshape.Profile{Shape: peakshape.Gaussian, FWHM: 2}
	_, err := Sticks(x, []Stick{{Position: 103, Height: 1}}, prof, Direct{})
	var cerr *core.ConvolutionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Sticks() error = %v, want ConvolutionError", err)
	}
}

func TestSpectrumPreservesArea(t *testing.T) {
	x := linspace(0, 0.1, 4001)
	y := make([]float64, len(x))
	y[2000] = 10
	s := core.NewSpectrum(x, y)
	prof := peakshape.Profile{Shape: peakshape.Gaussian, FWHM: 5}

	out, err := Spectrum(s, prof, Direct{})
	if err != nil {
		t.Fatalf("Spectrum() error = %v", err)
	}
	var area float64
	for i := 1; i < len(x); i++ {
		area += (out[i] + out[i-1]) / 2 * (x[i] - x[i-1])
	}
	// a single sample of height 10 has trapezoid area 10*0.1
	if math.Abs(area-1) > 1e-3 {
		t.Errorf("area = %g, want 1", area)
	}
}

func TestCircularIdentity(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	delta := []float64{1, 0, 0, 0, 0}
	got := Circular(a, delta)
	for i := range a {
		if math.Abs(got[i]-a[i]) > 1e-12 {
			t.Errorf("Circular()[%d] = %g, want %g", i, got[i], a[i])
		}
	}
}

func TestSelectStrategy(t *testing.T) {
	if s := SelectStrategy(); s == nil || s.Name() == "" {
		t.Fatal("SelectStrategy() returned no strategy")
	}
}
