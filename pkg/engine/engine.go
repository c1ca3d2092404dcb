// Package engine orchestrates a charge deconvolution session: preprocessing,
// the solver run, peak picking and per-peak reconstruction, as a state
// machine over a single spectrum.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/floats"

	"github.com/ChrisMcGann/DeconKey/pkg/config"
	"github.com/ChrisMcGann/DeconKey/pkg/convolve"
	"github.com/ChrisMcGann/DeconKey/pkg/core"
	"github.com/ChrisMcGann/DeconKey/pkg/peaks"
	"github.com/ChrisMcGann/DeconKey/pkg/solver"
	wtable "github.com/ChrisMcGann/DeconKey/pkg/writer/table"
)

// Engine runs the deconvolution pipeline for one spectrum at a time. It is
// not safe for concurrent use; distinct engines need distinct output
// directories.
type Engine struct {
	logger   *zap.Logger
	backend  solver.Backend
	strategy convolve.Strategy
	base     *config.EngineConfig

	state    State
	spectrum *core.Spectrum
	cfg      *config.EngineConfig
	results  *ResultSet
	rawMass  []float64 // mass distribution as imported, before normalization
	peaks    *peaks.Peaks
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithBackend sets the solver backend
func WithBackend(b solver.Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithStrategy overrides the selected convolution strategy
func WithStrategy(s convolve.Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithConfig sets the parameters every new spectrum starts from
func WithConfig(cfg *config.EngineConfig) Option {
	return func(e *Engine) { e.base = cfg.Clone() }
}

// New creates an engine in the Empty state
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:  zap.NewNop(),
		backend: solver.InProcess{},
		base:    config.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.strategy == nil {
		e.strategy = convolve.SelectStrategy()
	}
	e.logger.Debug("engine created",
		zap.String("backend", e.backend.Name()),
		zap.String("strategy", e.strategy.Name()))
	return e
}

// State returns the current pipeline state
func (e *Engine) State() State { return e.state }

// Config returns the active parameters; nil before SetSpectrum. Changes take
// effect from the next Process or Run.
func (e *Engine) Config() *config.EngineConfig { return e.cfg }

// Files returns the artifact paths of the current spectrum
func (e *Engine) Files() config.Files {
	if e.cfg == nil {
		return config.Files{}
	}
	return e.cfg.Files
}

// Results returns the current result set; nil before SetSpectrum
func (e *Engine) Results() *ResultSet { return e.results }

// Peaks returns the picked peaks; nil before PickPeaks
func (e *Engine) Peaks() *peaks.Peaks { return e.peaks }

// Spectrum returns a copy of the raw spectrum
func (e *Engine) Spectrum() *core.Spectrum {
	if e.spectrum == nil {
		return nil
	}
	return e.spectrum.Clone()
}

// SetSpectrum starts a new session for spec. Allowed from any state; all
// previous results are discarded.
func (e *Engine) SetSpectrum(spec *core.Spectrum, id, outputDir string) error {
	if spec == nil {
		return &core.ValidationError{Field: "Spectrum", Message: "spectrum is nil"}
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	cfg := e.base.Clone()
	if err := cfg.Initialize(id, outputDir); err != nil {
		return err
	}

	e.spectrum = spec.Clone()
	e.cfg = cfg
	e.results = &ResultSet{}
	e.rawMass = nil
	e.peaks = nil
	e.state = StateConfigured
	e.logger.Info("spectrum loaded",
		zap.String("spectrum", id),
		zap.Int("points", spec.Len()),
		zap.String("dir", cfg.Files.Dir))
	return nil
}

// Process preprocesses the spectrum and writes the solver input. A non-nil
// spec replaces the current spectrum.
func (e *Engine) Process(spec *core.Spectrum) error {
	if err := e.require("process", StateConfigured); err != nil {
		return err
	}
	start := time.Now()

	raw := e.spectrum
	if spec != nil {
		if err := spec.Validate(); err != nil {
			return err
		}
		raw = spec.Clone()
	}

	pre := e.cfg.Preprocess()
	lo, hi := pre.Bounds(raw)
	data := raw.Clone()
	if err := pre.Apply(data); err != nil {
		return err
	}
	if err := wtable.WriteXYFile(e.cfg.Files.Input, data.X, data.Y); err != nil {
		return err
	}

	e.spectrum = raw
	e.results = &ResultSet{Data: data}
	e.rawMass = nil
	e.peaks = nil
	e.state = StatePreprocessed
	e.logger.Info("spectrum processed",
		zap.String("stage", "process"),
		zap.Float64("minmz", lo),
		zap.Float64("maxmz", hi),
		zap.Int("points", data.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Run exports the configuration, invokes the solver and imports its
// outputs. On failure the previous results are kept.
func (e *Engine) Run(ctx context.Context, silent bool) error {
	if err := e.require("run", StatePreprocessed); err != nil {
		return err
	}
	logger := e.logger
	if silent {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	}
	if err := e.checkRanges(); err != nil {
		return err
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	start := time.Now()

	files := e.cfg.Files
	if err := os.MkdirAll(files.Dir, 0o755); err != nil {
		return &core.IOError{Op: "mkdir", Path: files.Dir, Err: err}
	}
	if err := e.cfg.Export(files.Conf); err != nil {
		return err
	}
	if err := clearOutputs(files); err != nil {
		return err
	}

	logger.Info("running solver", zap.String("stage", "run"), zap.String("backend", e.backend.Name()))
	if err := e.backend.Solve(ctx, files.Conf); err != nil {
		var serr *core.SolverError
		if !errors.As(err, &serr) {
			err = &core.SolverError{Stage: "solve", ExitCode: 1, Err: err}
		}
		logger.Warn("solver failed", zap.Error(err))
		return err
	}

	rs, err := importResults(files)
	if err != nil {
		return &core.SolverError{Stage: "import", ExitCode: 0, Err: err}
	}

	e.results = rs
	e.rawMass = append([]float64(nil), rs.Mass.Y...)
	e.peaks = nil
	e.state = StateSolved
	logger.Info("solver finished",
		zap.String("stage", "run"),
		zap.Int("masses", rs.Mass.Len()),
		zap.Ints("charges", rs.Charges),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// checkRanges rejects charge, mass and m/z ranges the solver cannot use
func (e *Engine) checkRanges() error {
	c := e.cfg
	switch {
	case c.StartZ < 1 || c.StartZ > c.EndZ:
		return &core.ValidationError{Field: "charge range", Message: fmt.Sprintf("%d..%d is empty", c.StartZ, c.EndZ)}
	case c.MassLB >= c.MassUB:
		return &core.ValidationError{Field: "mass range", Message: fmt.Sprintf("%g..%g is empty", c.MassLB, c.MassUB)}
	}
	data := e.results.Data
	if data == nil || data.Len() < 2 {
		return &core.ValidationError{Field: "mz range", Message: "processed spectrum is empty"}
	}
	if lo, hi := data.Bounds(); lo >= hi {
		return &core.ValidationError{Field: "mz range", Message: fmt.Sprintf("%g..%g is empty", lo, hi)}
	}
	return nil
}

// PickPeaks detects peaks in the mass distribution, normalizes them and the
// distribution, and computes per-peak charge tables and error estimates.
// Every call starts from the distribution as imported.
func (e *Engine) PickPeaks() error {
	if err := e.require("pick peaks", StateSolved); err != nil {
		return err
	}
	rs := e.results
	if len(rs.Charges) < 2 {
		return &core.PeakPickError{Param: "charges", Message: fmt.Sprintf("need at least 2 charge states, got %d", len(rs.Charges))}
	}
	if len(e.rawMass) == 0 || floats.Max(e.rawMass) <= 0 {
		return &core.PeakPickError{Param: "mass", Message: "mass distribution is empty or non-positive"}
	}

	cfg := e.cfg
	massAxis := rs.Mass.X
	mass := append([]float64(nil), e.rawMass...)

	detected := peaks.SimplePeakDetect(massAxis, mass, cfg.PeakWindowBins(), cfg.PeakThresh)
	pks := peaks.FromDetected(detected, cfg.MassBins)

	if pks.Len() > 0 {
		f, err := peaks.Factor(cfg.NormMode(), pks.Heights(), cfg.PeakNormValue)
		if err != nil {
			return err
		}
		pks.Scale(f)
		floats.Scale(f, mass)
	}

	if cfg.KendrickMass > 0 {
		pks.SetKendrick(cfg.KendrickMass)
	}
	for _, p := range pks.Items {
		p.ChargeTable = peaks.ChargeTable(p.Mass, rs.MZAxis, rs.MZGrid, rs.Charges, cfg.AdductMass)
	}
	peaks.FWHMError(pks.Items, massAxis, mass)
	peaks.MeanError(pks.Items, massAxis, rs.MassGrid, rs.Charges, cfg.PeakWindow)
	pks.Areas(massAxis, mass)

	if err := wtable.WriteXYFile(cfg.Files.Peaks, pks.Masses(), pks.Heights()); err != nil {
		return err
	}

	rs.Mass = &core.Spectrum{X: massAxis, Y: mass}
	rs.Composite = nil
	e.peaks = pks
	e.state = StatePeaksPicked
	e.logger.Info("peaks picked",
		zap.String("stage", "pick"),
		zap.Int("peaks", pks.Len()),
		zap.Int("window", cfg.PeakWindowBins()),
		zap.Stringer("norm", cfg.NormMode()))
	return nil
}

// ConvolvePeaks reconstructs each active peak's m/z spectrum from its charge
// table and sums them into the composite.
func (e *Engine) ConvolvePeaks() error {
	if err := e.require("convolve peaks", StatePeaksPicked); err != nil {
		return err
	}
	start := time.Now()
	prof := e.cfg.Profile()
	if prof.FWHM <= 0 {
		return &core.ConvolutionError{Param: "mzsig", Message: fmt.Sprintf("FWHM must be positive, got %g", prof.FWHM)}
	}

	x := e.results.MZAxis
	composite := make([]float64, len(x))
	convolved := make([][]float64, len(e.peaks.Items))
	for i, p := range e.peaks.Items {
		if p.Ignore {
			continue
		}
		sticks := make([]convolve.Stick, len(p.ChargeTable))
		for j, ci := range p.ChargeTable {
			sticks[j] = convolve.Stick{Position: ci.MZ, Index: ci.Index, Height: ci.Intensity}
		}
		out, err := convolve.Sticks(x, sticks, prof, e.strategy)
		if err != nil {
			return err
		}
		floats.Add(composite, out)
		convolved[i] = out
	}

	for i, p := range e.peaks.Items {
		p.Convolved = convolved[i]
	}
	e.results.Composite = composite
	e.state = StateConvolved
	e.logger.Info("peaks convolved",
		zap.String("stage", "convolve"),
		zap.String("strategy", e.strategy.Name()),
		zap.Int("peaks", len(e.peaks.Active())),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// ChargePeaks sums the m/z grid over m/z for each charge and normalizes the
// result with the configured peak normalization.
func (e *Engine) ChargePeaks() ([]peaks.ChargeState, error) {
	if err := e.require("charge peaks", StateSolved); err != nil {
		return nil, err
	}
	states := peaks.SumCharges(e.results.MZGrid, e.results.Charges)
	values := make([]float64, len(states))
	for i, cs := range states {
		values[i] = cs.Intensity
	}
	if _, err := peaks.Normalize(e.cfg.NormMode(), values, e.cfg.PeakNormValue); err != nil {
		return nil, err
	}
	for i := range states {
		states[i].Intensity = values[i]
	}
	return states, nil
}

// ChargePositions predicts where p appears in the m/z spectrum
func (e *Engine) ChargePositions(p *peaks.Peak, removeBelow float64) ([]peaks.ChargePosition, error) {
	if err := e.require("charge positions", StatePeaksPicked); err != nil {
		return nil, err
	}
	return peaks.CalculateChargePositions(peaks.ChargeStates(p.ChargeTable), p.Mass, e.results.MZAxis, e.cfg.AdductMass, removeBelow), nil
}
