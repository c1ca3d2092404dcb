// Package convolve reconstructs spectra by convolving stick (delta) spectra
// with a peak shape, either by FFT on uniform axes or by direct
// position-weighted summation on non-uniform axes.
package convolve

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
	"github.com/ChrisMcGann/DeconKey/pkg/peakshape"
)

// UniformTolerance is the relative step deviation under which an axis is
// treated as uniform.
const UniformTolerance = 1e-3

// Stick is a single delta function at Position (axis index Index) with Height.
type Stick struct {
	Position float64
	Index    int
	Height   float64
}

// Kernel builds a max-normalized circular kernel of length n. Offsets up to
// ±Extent×FWHM (in samples) are evaluated around index 0; negative offsets
// wrap to the end of the array.
func Kernel(n int, binSize float64, prof peakshape.Profile) ([]float64, error) {
	if prof.FWHM <= 0 {
		return nil, &core.ConvolutionError{Param: "mzsig", Message: fmt.Sprintf("FWHM must be positive, got %g", prof.FWHM)}
	}
	if binSize <= 0 {
		return nil, &core.ConvolutionError{Param: "binsize", Message: fmt.Sprintf("bin size must be positive, got %g", binSize)}
	}
	lim := int(math.Ceil(prof.Shape.Extent() * prof.FWHM / binSize))
	if 2*lim+1 > n {
		return nil, &core.ConvolutionError{
			Param:   "mzsig",
			Message: fmt.Sprintf("kernel window of %d samples exceeds spectrum length %d", 2*lim+1, n),
		}
	}

	kernel := make([]float64, n)
	kernel[0] = prof.Eval(0, peakshape.MaxNorm)
	for k := 1; k <= lim; k++ {
		dx := float64(k) * binSize
		kernel[k] = prof.Eval(dx, peakshape.MaxNorm)
		kernel[n-k] = prof.Eval(-dx, peakshape.MaxNorm)
	}
	return kernel, nil
}

// Circular returns the circular convolution of a and b, which must have the
// same length.
func Circular(a, b []float64) []float64 {
	n := len(a)
	if n == 0 {
		return nil
	}
	fft := fourier.NewFFT(n)
	ca := fft.Coefficients(nil, a)
	cb := fft.Coefficients(nil, b)
	for i := range ca {
		ca[i] *= cb[i]
	}
	out := fft.Sequence(nil, ca)

	// gonum's inverse transform is unnormalized
	scale := 1 / float64(n)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// Sticks convolves sticks placed on axis x with prof. Uniform axes use the
// FFT kernel path; others use strategy.
func Sticks(x []float64, sticks []Stick, prof peakshape.Profile, strategy Strategy) ([]float64, error) {
	if core.IsUniformAxis(x, UniformTolerance) {
		return sticksUniform(x, sticks, prof)
	}
	if err := checkWindow(x, prof); err != nil {
		return nil, err
	}
	if strategy == nil {
		strategy = Direct{}
	}
	return strategy.Convolve(x, sticks, prof, peakshape.MaxNorm)
}

func sticksUniform(x []float64, sticks []Stick, prof peakshape.Profile) ([]float64, error) {
	n := len(x)
	bin := 1.0
	if n > 1 {
		bin = (x[n-1] - x[0]) / float64(n-1)
	}
	kernel, err := Kernel(n, bin, prof)
	if err != nil {
		return nil, err
	}
	sparse := make([]float64, n)
	for _, s := range sticks {
		if s.Index >= 0 && s.Index < n {
			sparse[s.Index] += s.Height
		}
	}
	return Circular(sparse, kernel), nil
}

// Spectrum broadens a continuous spectrum with an area-normalized profile,
// weighting each sample by its trapezoid width.
func Spectrum(s *core.Spectrum, prof peakshape.Profile, strategy Strategy) ([]float64, error) {
	if err := checkWindow(s.X, prof); err != nil {
		return nil, err
	}
	n := s.Len()
	sticks := make([]Stick, n)
	for i := range s.X {
		var w float64
		switch {
		case n == 1:
			w = 1
		case i == 0:
			w = (s.X[1] - s.X[0]) / 2
		case i == n-1:
			w = (s.X[n-1] - s.X[n-2]) / 2
		default:
			w = (s.X[i+1] - s.X[i-1]) / 2
		}
		sticks[i] = Stick{Position: s.X[i], Index: i, Height: s.Y[i] * w}
	}
	if strategy == nil {
		strategy = Direct{}
	}
	return strategy.Convolve(s.X, sticks, prof, peakshape.AreaNorm)
}

func checkWindow(x []float64, prof peakshape.Profile) error {
	if prof.FWHM <= 0 {
		return &core.ConvolutionError{Param: "mzsig", Message: fmt.Sprintf("FWHM must be positive, got %g", prof.FWHM)}
	}
	if len(x) < 2 {
		return &core.ConvolutionError{Param: "spectrum", Message: "need at least 2 samples"}
	}
	width := 2 * prof.Shape.Extent() * prof.FWHM
	if span := x[len(x)-1] - x[0]; width > span {
		return &core.ConvolutionError{
			Param:   "mzsig",
			Message: fmt.Sprintf("kernel window %g exceeds spectrum span %g", width, span),
		}
	}
	return nil
}
