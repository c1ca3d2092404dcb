package peakshape

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// Indices into FitResult.Params and FitResult.Errors.
const (
	ParamFWHM = iota
	ParamMid
	ParamAmplitude
	ParamBackground
	ParamGamma
)

const fitRestarts = 2

// FitResult holds fitted parameters, their standard errors and the fitted curve.
type FitResult struct {
	Shape  Shape
	Params []float64 // FWHM, mid, amplitude, background[, gamma]
	Errors []float64 // standard errors, NaN when the covariance is singular
	Curve  []float64
	SSR    float64
}

// FWHM returns the fitted full width at half maximum.
func (r *FitResult) FWHM() float64 { return r.Params[ParamFWHM] }

// Mid returns the fitted peak center.
func (r *FitResult) Mid() float64 { return r.Params[ParamMid] }

// Amplitude returns the fitted height above background.
func (r *FitResult) Amplitude() float64 { return r.Params[ParamAmplitude] }

// Background returns the fitted constant background.
func (r *FitResult) Background() float64 { return r.Params[ParamBackground] }

// Gamma returns the Lorentzian half width of a Voigt fit, or 0.
func (r *FitResult) Gamma() float64 {
	if len(r.Params) > ParamGamma {
		return r.Params[ParamGamma]
	}
	return 0
}

// ResolvingPower returns mid/FWHM.
func (r *FitResult) ResolvingPower() float64 {
	if r.FWHM() == 0 {
		return 0
	}
	return r.Mid() / r.FWHM()
}

// Model evaluates amplitude*shape(x-mid)+background. Parameters outside the
// valid region (negative width, amplitude, background or gamma) yield zeros.
func Model(shape Shape, x []float64, params []float64) []float64 {
	out := make([]float64, len(x))
	fwhm, mid, amp, bg := params[ParamFWHM], params[ParamMid], params[ParamAmplitude], params[ParamBackground]
	gamma := 0.0
	if len(params) > ParamGamma {
		gamma = params[ParamGamma]
	}
	if fwhm <= 0 || amp < 0 || bg < 0 || gamma < 0 {
		return out
	}
	prof := Profile{Shape: shape, FWHM: fwhm, Gamma: gamma}
	for i, v := range x {
		out[i] = amp*prof.Eval(v-mid, MaxNorm) + bg
	}
	return out
}

// Guess returns starting parameters for a single peak in x/y.
func Guess(shape Shape, x, y []float64) []float64 {
	mid := x[floats.MaxIdx(y)]
	bg := math.Max(floats.Min(y), 0)

	weights := make([]float64, len(y))
	for i, v := range y {
		weights[i] = math.Max(v-bg, 0)
	}
	sig := stat.PopStdDev(x, weights)
	if !(sig > 0) {
		sig = (x[len(x)-1] - x[0]) / 10
	}

	params := []float64{sig, mid, 1, bg}
	if shape == Voigt {
		params = append(params, sig/2)
	}

	// Two rounds to match the data maximum.
	ymax := floats.Max(y)
	test := Model(shape, x, []float64{sig, mid, 1, 0, voigtGuess(params)})
	amp := ymax / floats.Max(test)
	params[ParamAmplitude] = amp
	test = Model(shape, x, params)
	params[ParamAmplitude] = amp * ymax / floats.Max(test)

	return params
}

func voigtGuess(params []float64) float64 {
	if len(params) > ParamGamma {
		return params[ParamGamma]
	}
	return 0
}

// Fit performs a bounded non-linear least-squares fit of a single peak.
func Fit(x, y []float64, shape Shape) (*FitResult, error) {
	if len(x) != len(y) {
		return nil, &core.ValidationError{Field: "y", Message: "length differs from x"}
	}
	if !shape.Valid() {
		return nil, &core.ValidationError{Field: "shape", Message: fmt.Sprintf("unknown shape %d", int(shape))}
	}
	nParams := 4
	if shape == Voigt {
		nParams = 5
	}
	if len(x) <= nParams {
		return nil, &core.ValidationError{Field: "x", Message: fmt.Sprintf("need more than %d points, got %d", nParams, len(x))}
	}
	if floats.Max(y) <= 0 {
		return nil, &core.ValidationError{Field: "y", Message: "no positive intensity"}
	}

	p0 := Guess(shape, x, y)

	// Optimize in coordinates scaled to the guessed width and height so the
	// simplex is well conditioned regardless of axis units.
	scale := make([]float64, len(p0))
	for i := range p0 {
		switch i {
		case ParamFWHM, ParamMid, ParamGamma:
			scale[i] = p0[ParamFWHM]
		default:
			scale[i] = math.Max(p0[ParamAmplitude], 1e-12)
		}
	}
	unscale := func(q []float64) []float64 {
		p := make([]float64, len(q))
		for i := range q {
			p[i] = p0[i] + q[i]*scale[i]
		}
		return p
	}

	ss := 0.0
	for _, v := range y {
		ss += v * v
	}
	problem := optimize.Problem{
		Func: func(q []float64) float64 {
			return ssr(Model(shape, x, unscale(q)), y)
		},
	}

	q := make([]float64, len(p0))
	var result *optimize.Result
	for round := 0; round < fitRestarts; round++ {
		settings := &optimize.Settings{
			MajorIterations: 50000,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-14 * ss,
				Relative:   1e-12,
				Iterations: 200,
			},
		}
		var err error
		result, err = optimize.Minimize(problem, q, settings, &optimize.NelderMead{})
		if err == nil && result.Status.Early() {
			err = result.Status.Err()
		}
		if err != nil {
			status := "unknown"
			if result != nil {
				status = result.Status.String()
			}
			return nil, &core.FitError{Status: status, Err: err}
		}
		q = result.X
	}

	params := unscale(q)
	curve := Model(shape, x, params)
	res := &FitResult{
		Shape:  shape,
		Params: params,
		Curve:  curve,
		SSR:    ssr(curve, y),
	}
	if params[ParamFWHM] <= 0 || params[ParamAmplitude] < 0 {
		return nil, &core.FitError{Status: result.Status.String(), Err: errors.New("fit left the valid parameter region")}
	}
	res.Errors = standardErrors(shape, x, params, res.SSR)
	return res, nil
}

// Resolution fits a single isolated peak and returns the fit, whose FWHM and
// ResolvingPower describe the instrument resolution at that m/z.
func Resolution(s *core.Spectrum, shape Shape) (*FitResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return Fit(s.X, s.Y, shape)
}

func ssr(model, y []float64) float64 {
	sum := 0.0
	for i := range y {
		d := model[i] - y[i]
		sum += d * d
	}
	return sum
}

// standardErrors estimates parameter errors as sqrt(diag(s^2 (J^T J)^-1)),
// with J the finite-difference Jacobian of the model at params.
func standardErrors(shape Shape, x, params []float64, ssr float64) []float64 {
	n, k := len(x), len(params)
	errs := make([]float64, k)
	for i := range errs {
		errs[i] = math.NaN()
	}
	if n <= k {
		return errs
	}

	jac := mat.NewDense(n, k, nil)
	for j := 0; j < k; j++ {
		h := 1e-6 * math.Max(math.Abs(params[j]), math.Abs(params[ParamFWHM]))
		if h == 0 {
			h = 1e-9
		}
		up := append([]float64(nil), params...)
		down := append([]float64(nil), params...)
		up[j] += h
		down[j] -= h
		if down[j] < 0 && j != ParamMid {
			down[j] = params[j]
		}
		fUp := Model(shape, x, up)
		fDown := Model(shape, x, down)
		step := up[j] - down[j]
		for i := 0; i < n; i++ {
			jac.Set(i, j, (fUp[i]-fDown[i])/step)
		}
	}

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)
	var cov mat.Dense
	if err := cov.Inverse(&jtj); err != nil {
		return errs
	}
	s2 := ssr / float64(n-k)
	for j := 0; j < k; j++ {
		v := cov.At(j, j) * s2
		if v >= 0 {
			errs[j] = math.Sqrt(v)
		}
	}
	return errs
}
