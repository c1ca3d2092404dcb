package peakshape

import (
	"math"
	"testing"
)

func TestProfileMaxNorm(t *testing.T) {
	shapes := []Shape{Gaussian, Lorentzian, SplitGL, Voigt}
	for _, s := range shapes {
		t.Run(s.String(), func(t *testing.T) {
			p := Profile{Shape: s, FWHM: 2, Gamma: 0.5}
			if got := p.Eval(0, MaxNorm); math.Abs(got-1) > 1e-12 {
				t.Errorf("Eval(0) = %v, want 1", got)
			}
			if s == Voigt {
				return
			}
			// Half maximum on the side that defines the FWHM.
			if got := p.Eval(1, MaxNorm); math.Abs(got-0.5) > 1e-9 {
				t.Errorf("Eval(FWHM/2) = %v, want 0.5", got)
			}
		})
	}
}

func TestProfileAreaNorm(t *testing.T) {
	tests := []struct {
		name string
		prof Profile
		span float64
		tol  float64
	}{
		{"gaussian", Profile{Shape: Gaussian, FWHM: 1}, 20, 1e-6},
		{"lorentzian", Profile{Shape: Lorentzian, FWHM: 1}, 2000, 1e-3},
		{"split", Profile{Shape: SplitGL, FWHM: 1}, 2000, 1e-3},
		{"voigt", Profile{Shape: Voigt, FWHM: 1, Gamma: 0.2}, 2000, 5e-3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx := 0.01
			area := 0.0
			for x := -tt.span; x <= tt.span; x += dx {
				area += tt.prof.Eval(x, AreaNorm) * dx
			}
			if math.Abs(area-1) > tt.tol {
				t.Errorf("area = %v, want 1 (within %g)", area, tt.tol)
			}
		})
	}
}

func TestSplitGLTail(t *testing.T) {
	p := Profile{Shape: SplitGL, FWHM: 1}
	left := p.Eval(-2, MaxNorm)
	right := p.Eval(2, MaxNorm)
	if !(right > left) {
		t.Errorf("expected heavier high-side tail, got left=%v right=%v", left, right)
	}
}

func TestVoigtGaussianLimit(t *testing.T) {
	g := Profile{Shape: Gaussian, FWHM: 1.5}
	v := Profile{Shape: Voigt, FWHM: 1.5, Gamma: 1e-9}
	for _, x := range []float64{-2, -0.5, 0, 0.3, 1, 2.5} {
		want := g.Eval(x, AreaNorm)
		got := v.Eval(x, AreaNorm)
		if math.Abs(got-want) > 5e-4 {
			t.Errorf("voigt(%v) = %v, gaussian = %v", x, got, want)
		}
	}
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		in      string
		want    Shape
		wantErr bool
	}{
		{"gaussian", Gaussian, false},
		{"Lorentzian", Lorentzian, false},
		{"2", SplitGL, false},
		{" voigt ", Voigt, false},
		{"triangle", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseShape(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseShape(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseShape(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if Shape(9).Valid() {
		t.Error("Shape(9) should not be valid")
	}
}
