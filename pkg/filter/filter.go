// Package filter provides spectrum preprocessing ahead of deconvolution
package filter

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// MinPoints is the smallest spectrum the solver accepts
const MinPoints = 3

// Config holds preprocessing configuration
type Config struct {
	MinMZ              float64 // Lower m/z bound (0 = spectrum start)
	MaxMZ              float64 // Upper m/z bound (0 = spectrum end)
	MZBins             float64 // Linearize onto this bin size (0 = keep axis)
	Smooth             float64 // Gaussian smoothing sigma in samples (0 = none)
	SubtractBuffer     int     // Background subtraction window in samples (0 = none)
	IntensityThreshold float64 // Zero intensities below this value
	DataNorm           bool    // Scale intensities to a maximum of 1
}

// Bounds returns the effective m/z range for spec: configured bounds when
// positive, otherwise the spectrum's own.
func (c *Config) Bounds(spec *core.Spectrum) (lo, hi float64) {
	lo, hi = spec.Bounds()
	if c.MinMZ > 0 {
		lo = c.MinMZ
	}
	if c.MaxMZ > 0 {
		hi = c.MaxMZ
	}
	return lo, hi
}

// Apply applies all configured steps to a spectrum in place
func (c *Config) Apply(spec *core.Spectrum) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	// Crop first so later steps only see the analyzed range
	lo, hi := c.Bounds(spec)
	if lo >= hi {
		return &core.ValidationError{Field: "mz range", Message: fmt.Sprintf("lower bound %g is not below upper bound %g", lo, hi)}
	}
	cropped := spec.Crop(lo, hi)
	if cropped.Len() < MinPoints {
		return &core.ValidationError{Field: "mz range", Message: fmt.Sprintf("%d points in [%g, %g], need at least %d", cropped.Len(), lo, hi, MinPoints)}
	}
	spec.X, spec.Y = cropped.X, cropped.Y

	if c.MZBins > 0 {
		if err := c.linearize(spec); err != nil {
			return err
		}
	}

	if c.Smooth > 0 {
		spec.Y = GaussianSmooth(spec.Y, c.Smooth)
	}

	if c.SubtractBuffer > 0 {
		SubtractBackground(spec.Y, c.SubtractBuffer)
	}

	if c.IntensityThreshold > 0 {
		for i, v := range spec.Y {
			if v < c.IntensityThreshold {
				spec.Y[i] = 0
			}
		}
	}

	if c.DataNorm {
		if m := spec.MaxIntensity(); m > 0 {
			floats.Scale(1/m, spec.Y)
		}
	}

	return nil
}

// linearize resamples the spectrum onto a uniform axis of MZBins spacing
func (c *Config) linearize(spec *core.Spectrum) error {
	lo, hi := spec.Bounds()
	n := int(math.Floor((hi-lo)/c.MZBins)) + 1
	if n < MinPoints {
		return &core.ValidationError{Field: "mzbins", Message: fmt.Sprintf("bin size %g leaves %d points", c.MZBins, n)}
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(spec.X, spec.Y); err != nil {
		return fmt.Errorf("linearize: %w", err)
	}
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = lo + float64(i)*c.MZBins
		y[i] = pl.Predict(x[i])
	}
	spec.X, spec.Y = x, y
	return nil
}

// GaussianSmooth convolves y with a normalized Gaussian of the given sigma
// (in samples). Edges are handled by renormalizing the truncated kernel.
func GaussianSmooth(y []float64, sigma float64) []float64 {
	half := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*half+1)
	for k := range kernel {
		d := float64(k - half)
		kernel[k] = math.Exp(-d * d / (2 * sigma * sigma))
	}

	out := make([]float64, len(y))
	for i := range y {
		var sum, wsum float64
		for k, w := range kernel {
			j := i + k - half
			if j < 0 || j >= len(y) {
				continue
			}
			sum += w * y[j]
			wsum += w
		}
		out[i] = sum / wsum
	}
	return out
}

// SubtractBackground removes a local-minimum baseline computed over
// ±window samples.
func SubtractBackground(y []float64, window int) {
	baseline := make([]float64, len(y))
	for i := range y {
		lo := max(i-window, 0)
		hi := min(i+window, len(y)-1)
		baseline[i] = floats.Min(y[lo : hi+1])
	}
	floats.Sub(y, baseline)
}

// RemoveZeroIntensity drops samples with zero or negative intensity
func RemoveZeroIntensity(spec *core.Spectrum) {
	var x, y []float64
	for i, v := range spec.Y {
		if v > 0 {
			x = append(x, spec.X[i])
			y = append(y, v)
		}
	}
	spec.X, spec.Y = x, y
}
