package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/DeconKey/pkg/config"
	"github.com/ChrisMcGann/DeconKey/pkg/convolve"
	"github.com/ChrisMcGann/DeconKey/pkg/core"
	rtable "github.com/ChrisMcGann/DeconKey/pkg/reader/table"
	wtable "github.com/ChrisMcGann/DeconKey/pkg/writer/table"
)

// InProcess is an offline stand-in for the iterative solver. It performs a
// single direct charge transform: every m/z sample is assigned to the mass it
// implies at each charge, with no deconvolution iterations. The fit written
// alongside is the input broadened by the configured m/z peak shape.
type InProcess struct {
	Strategy convolve.Strategy // nil uses convolve.Direct
}

// Name returns "inprocess"
func (InProcess) Name() string { return "inprocess" }

// Solve reads the configuration and input named in confPath and writes the
// mass distribution, m/z grid and mass grid.
func (p InProcess) Solve(ctx context.Context, confPath string) error {
	cfg := config.Default()
	f, err := os.Open(confPath)
	if err != nil {
		return &core.SolverError{Stage: "config", ExitCode: 1, Err: err}
	}
	input, output, err := cfg.Load(f)
	f.Close()
	if err != nil {
		return &core.SolverError{Stage: "config", ExitCode: 1, Err: err}
	}
	if input == "" || output == "" {
		return &core.SolverError{Stage: "config", ExitCode: 1, Err: fmt.Errorf("%s has no input or output path", confPath)}
	}
	if err := cfg.Validate(); err != nil {
		return &core.SolverError{Stage: "config", ExitCode: 1, Err: err}
	}

	spec, err := rtable.ReadSpectrumFile(input)
	if err != nil {
		return &core.SolverError{Stage: "input", ExitCode: 1, Err: err}
	}
	if spec.Len() == 0 {
		return &core.SolverError{Stage: "input", ExitCode: 1, Err: fmt.Errorf("%s is empty", input)}
	}
	if err := ctx.Err(); err != nil {
		return &core.SolverError{Stage: "solve", ExitCode: -1, Err: err}
	}

	res := transform(cfg, spec)

	write := []struct {
		suffix string
		fn     func(string) error
	}{
		{"_mass.txt", func(p string) error { return wtable.WriteXYFile(p, res.massAxis, res.mass) }},
		{"_grid.dat", func(p string) error { return wtable.WriteGridFile(p, spec.X, res.charges, res.mzGrid) }},
		{"_massgrid.dat", func(p string) error { return wtable.WriteGridFile(p, res.massAxis, res.charges, res.massGrid) }},
	}
	for _, w := range write {
		if err := w.fn(output + w.suffix); err != nil {
			return &core.SolverError{Stage: "output", ExitCode: 1, Err: err}
		}
	}

	// The fit is optional: skipped when the peak shape is wider than the spectrum
	fit, err := convolve.Spectrum(spec, cfg.Profile(), p.Strategy)
	var cerr *core.ConvolutionError
	switch {
	case errors.As(err, &cerr):
		return nil
	case err != nil:
		return &core.SolverError{Stage: "solve", ExitCode: 1, Err: err}
	}
	if err := wtable.WriteXYFile(output+"_fitdat.dat", spec.X, fit); err != nil {
		return &core.SolverError{Stage: "output", ExitCode: 1, Err: err}
	}
	return nil
}

type transformResult struct {
	charges  []int
	massAxis []float64
	mass     []float64
	mzGrid   *mat.Dense
	massGrid *mat.Dense
}

func transform(cfg *config.EngineConfig, spec *core.Spectrum) transformResult {
	charges := cfg.Charges()
	nMass := int(math.Floor((cfg.MassUB-cfg.MassLB)/cfg.MassBins)) + 1
	massAxis := make([]float64, nMass)
	for i := range massAxis {
		massAxis[i] = cfg.MassLB + float64(i)*cfg.MassBins
	}

	mzGrid := mat.NewDense(spec.Len(), len(charges), nil)
	massGrid := mat.NewDense(nMass, len(charges), nil)
	for i, mz := range spec.X {
		y := spec.Y[i]
		if y <= 0 {
			continue
		}
		for j, z := range charges {
			m := core.CalculateMass(mz, z, cfg.AdductMass)
			if m < cfg.MassLB || m > cfg.MassUB {
				continue
			}
			mzGrid.Set(i, j, y)
			idx := min(int(math.Round((m-cfg.MassLB)/cfg.MassBins)), nMass-1)
			massGrid.Set(idx, j, massGrid.At(idx, j)+y)
		}
	}

	mass := make([]float64, nMass)
	for r := range mass {
		mass[r] = floats.Sum(massGrid.RawRowView(r))
	}
	return transformResult{
		charges:  charges,
		massAxis: massAxis,
		mass:     mass,
		mzGrid:   mzGrid,
		massGrid: massGrid,
	}
}
