// Package peakshape provides analytic peak-shape functions and an
// isolated-peak least-squares fit.
package peakshape

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// Shape identifies a peak-shape function. The numeric values match the
// psfun codes written to the solver configuration.
type Shape int

const (
	Gaussian Shape = iota
	Lorentzian
	SplitGL
	Voigt
)

// Norm selects how a shape is scaled.
type Norm int

const (
	// MaxNorm scales the shape so its maximum is 1.
	MaxNorm Norm = iota
	// AreaNorm scales the shape so its integral is 1.
	AreaNorm
)

const (
	fwhmToSigma = 2.3548200450309493 // 2*sqrt(2*ln 2)
	sqrt2Pi     = 2.5066282746310002
)

var shapeNames = map[Shape]string{
	Gaussian:   "gaussian",
	Lorentzian: "lorentzian",
	SplitGL:    "split",
	Voigt:      "voigt",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	_, ok := shapeNames[s]
	return ok
}

// Extent returns how many FWHMs either side of the center a kernel must cover.
func (s Shape) Extent() float64 {
	if s == Gaussian {
		return 10
	}
	return 15
}

// ParseShape accepts a shape name or its numeric code.
func ParseShape(v string) (Shape, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for s, name := range shapeNames {
		if v == name || v == fmt.Sprint(int(s)) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown peak shape '%s'", v)
}

// Profile is a shape with its width parameters. FWHM is the full width of the
// Gaussian (or Lorentzian) component; Gamma is the Lorentzian half width used
// only by Voigt.
type Profile struct {
	Shape Shape
	FWHM  float64
	Gamma float64
}

// Eval evaluates the profile at offset dx from its center.
func (p Profile) Eval(dx float64, norm Norm) float64 {
	switch p.Shape {
	case Lorentzian:
		return lorentzian(dx, p.FWHM, norm)
	case SplitGL:
		return splitGL(dx, p.FWHM, norm)
	case Voigt:
		return voigt(dx, p.FWHM, p.Gamma, norm)
	default:
		return gaussian(dx, p.FWHM, norm)
	}
}

// Sample evaluates the profile centered at mid over x.
func (p Profile) Sample(x []float64, mid float64, norm Norm) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = p.Eval(v-mid, norm)
	}
	return out
}

func gaussian(dx, fwhm float64, norm Norm) float64 {
	sig := fwhm / fwhmToSigma
	v := math.Exp(-dx * dx / (2 * sig * sig))
	if norm == AreaNorm {
		return v / (sig * sqrt2Pi)
	}
	return v
}

func lorentzian(dx, fwhm float64, norm Norm) float64 {
	hw := fwhm / 2
	v := hw * hw / (dx*dx + hw*hw)
	if norm == AreaNorm {
		return v / (math.Pi * hw)
	}
	return v
}

// splitGL is Gaussian below the center and Lorentzian above it, giving a tail
// toward high x. Both halves peak at 1.
func splitGL(dx, fwhm float64, norm Norm) float64 {
	var v float64
	if dx < 0 {
		v = gaussian(dx, fwhm, MaxNorm)
	} else {
		v = lorentzian(dx, fwhm, MaxNorm)
	}
	if norm == AreaNorm {
		sig := fwhm / fwhmToSigma
		area := sig*sqrt2Pi/2 + math.Pi*fwhm/4
		return v / area
	}
	return v
}

func voigt(dx, fwhm, gamma float64, norm Norm) float64 {
	sig := fwhm / fwhmToSigma
	if gamma <= 0 {
		return gaussian(dx, fwhm, norm)
	}
	v := voigtArea(dx, sig, gamma)
	if norm == MaxNorm {
		return v / voigtArea(0, sig, gamma)
	}
	return v
}

// voigtArea is the area-normalized Voigt profile Re[w(z)]/(sigma*sqrt(2*pi)).
func voigtArea(dx, sig, gamma float64) float64 {
	s := sig * math.Sqrt2
	w := faddeeva(dx/s, gamma/s)
	return real(w) / (sig * sqrt2Pi)
}

// faddeeva evaluates w(x+iy) for y >= 0 with Humlicek's W4 rational approximation.
func faddeeva(x, y float64) complex128 {
	t := complex(y, -x)
	s := math.Abs(x) + y
	switch {
	case s >= 15:
		return t * 0.5641896 / (0.5 + t*t)
	case s >= 5.5:
		u := t * t
		return t * (1.410474 + u*0.5641896) / (0.75 + u*(3+u))
	case y >= 0.195*math.Abs(x)-0.176:
		return (16.4955 + t*(20.20933+t*(11.96482+t*(3.778987+t*0.5642236)))) /
			(16.4955 + t*(38.82363+t*(39.27121+t*(21.69274+t*(6.699398+t)))))
	default:
		u := t * t
		num := t * (36183.31 - u*(3321.9905-u*(1540.787-u*(219.0313-u*(35.76683-u*(1.320522-u*0.56419))))))
		den := 32066.6 - u*(24322.84-u*(9022.228-u*(2186.181-u*(364.2191-u*(61.57037-u*(1.841439-u))))))
		return cmplx.Exp(u) - num/den
	}
}
