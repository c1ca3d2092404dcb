package core

import (
	"fmt"
)

// ValidationError represents bad, empty or inverted input data or ranges.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// ConfigError represents an invalid engine parameter or artifact layout.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// StateError is returned when a pipeline step is called out of sequence.
type StateError struct {
	Op    string
	State string
	Want  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: engine is %s, requires %s", e.Op, e.State, e.Want)
}

// SolverError reports a failed or unlaunchable solver invocation.
// ExitCode is -1 when the process could not be started.
type SolverError struct {
	Stage    string
	ExitCode int
	Err      error
}

func (e *SolverError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("solver %s failed to launch: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("solver %s exited with code %d: %v", e.Stage, e.ExitCode, e.Err)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}

// PeakPickError reports a degenerate distribution or charge axis during peak picking.
type PeakPickError struct {
	Param   string
	Message string
}

func (e *PeakPickError) Error() string {
	return fmt.Sprintf("peak picking failed on %s: %s", e.Param, e.Message)
}

// ConvolutionError reports a kernel that cannot be applied to the spectrum.
type ConvolutionError struct {
	Param   string
	Message string
}

func (e *ConvolutionError) Error() string {
	return fmt.Sprintf("convolution failed on %s: %s", e.Param, e.Message)
}

// FitError reports optimizer non-convergence in a peak-shape fit.
type FitError struct {
	Status string
	Err    error
}

func (e *FitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("peak fit did not converge (status %s)", e.Status)
	}
	return fmt.Sprintf("peak fit did not converge (status %s): %v", e.Status, e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}

// IOError wraps a failed artifact read or write.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
