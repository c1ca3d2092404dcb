// Package core provides the spectrum model, validation logic and error types
// shared by every stage of the deconvolution pipeline.
package core

import (
	"fmt"
	"math"
	"strings"
)

// Spectrum is a paired x/y sequence. For raw data X is m/z; for a deconvolved
// distribution X is neutral mass.
type Spectrum struct {
	X []float64
	Y []float64
}

// NewSpectrum copies x and y into a new Spectrum.
func NewSpectrum(x, y []float64) *Spectrum {
	s := &Spectrum{
		X: make([]float64, len(x)),
		Y: make([]float64, len(y)),
	}
	copy(s.X, x)
	copy(s.Y, y)
	return s
}

// Len returns the number of samples.
func (s *Spectrum) Len() int {
	return len(s.X)
}

// Clone returns a deep copy of the spectrum.
func (s *Spectrum) Clone() *Spectrum {
	return NewSpectrum(s.X, s.Y)
}

// Validate checks that a spectrum is non-empty, paired and strictly increasing in x.
func (s *Spectrum) Validate() error {
	var errs []string

	if len(s.X) == 0 {
		errs = append(errs, "at least one sample is required")
	}
	if len(s.X) != len(s.Y) {
		errs = append(errs, fmt.Sprintf("x and y lengths differ (%d != %d)", len(s.X), len(s.Y)))
	}

	for i, x := range s.X {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			errs = append(errs, fmt.Sprintf("sample %d has invalid x", i))
			break
		}
	}
	for i, y := range s.Y {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			errs = append(errs, fmt.Sprintf("sample %d has invalid intensity", i))
			break
		}
	}

	if !s.IsMonotonic() {
		errs = append(errs, "x must be strictly increasing")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// IsMonotonic reports whether X is strictly increasing.
func (s *Spectrum) IsMonotonic() bool {
	for i := 1; i < len(s.X); i++ {
		if !(s.X[i] > s.X[i-1]) {
			return false
		}
	}
	return true
}

// Bounds returns the first and last x value.
func (s *Spectrum) Bounds() (lo, hi float64) {
	if len(s.X) == 0 {
		return 0, 0
	}
	return s.X[0], s.X[len(s.X)-1]
}

// Crop returns the samples with lo <= x <= hi.
func (s *Spectrum) Crop(lo, hi float64) *Spectrum {
	out := &Spectrum{}
	for i, x := range s.X {
		if x >= lo && x <= hi {
			out.X = append(out.X, x)
			out.Y = append(out.Y, s.Y[i])
		}
	}
	return out
}

// MaxIntensity returns the largest y value, or 0 for an empty spectrum.
func (s *Spectrum) MaxIntensity() float64 {
	max := 0.0
	for i, y := range s.Y {
		if i == 0 || y > max {
			max = y
		}
	}
	return max
}

// BinSize returns the mean x spacing.
func (s *Spectrum) BinSize() float64 {
	if len(s.X) < 2 {
		return 0
	}
	return (s.X[len(s.X)-1] - s.X[0]) / float64(len(s.X)-1)
}

// IsUniform reports whether the x spacing is constant within a relative tolerance.
func (s *Spectrum) IsUniform(tol float64) bool {
	return IsUniformAxis(s.X, tol)
}

// IsUniformAxis reports whether every step of x is within tol (relative) of the mean step.
func IsUniformAxis(x []float64, tol float64) bool {
	if len(x) < 3 {
		return true
	}
	mean := (x[len(x)-1] - x[0]) / float64(len(x)-1)
	if mean <= 0 {
		return false
	}
	for i := 1; i < len(x); i++ {
		if math.Abs((x[i]-x[i-1])-mean) > tol*mean {
			return false
		}
	}
	return true
}

// NearestIndex returns the index of the x value closest to v. x must be sorted.
func NearestIndex(x []float64, v float64) int {
	n := len(x)
	if n == 0 {
		return -1
	}
	lo, hi := 0, n-1
	if v <= x[lo] {
		return lo
	}
	if v >= x[hi] {
		return hi
	}
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if x[mid] <= v {
			lo = mid
		} else {
			hi = mid
		}
	}
	if v-x[lo] <= x[hi]-v {
		return lo
	}
	return hi
}
