// Package solver runs the charge deconvolution solver against a run's
// configuration file. The solver reads the input spectrum named in the
// configuration and writes its mass, m/z grid and mass grid artifacts next to
// the configured output prefix.
package solver

import "context"

// Backend solves one exported configuration
type Backend interface {
	// Name identifies the backend in logs
	Name() string

	// Solve blocks until the solver finished with confPath. A failure is
	// returned as *core.SolverError.
	Solve(ctx context.Context, confPath string) error
}
