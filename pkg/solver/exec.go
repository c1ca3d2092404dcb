package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) (exitCode int, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), err
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

var defaultExec = &osExecutor{}

// Exec runs an external solver binary as "<Path> <conf> [Args...]". The
// zero value runs through os/exec.
type Exec struct {
	Path   string
	Args   []string  // optional control arguments
	Output io.Writer // receives solver stdout, may be nil

	exec executor
}

// NewExec creates a subprocess backend for the solver at path
func NewExec(path string, args ...string) *Exec {
	return &Exec{Path: path, Args: args, exec: defaultExec}
}

// Name returns the binary path
func (e *Exec) Name() string { return "exec:" + e.Path }

// Solve runs the solver and waits for it. Cancelling ctx kills the process.
func (e *Exec) Solve(ctx context.Context, confPath string) error {
	runner := e.exec
	if runner == nil {
		runner = defaultExec
	}
	bin, err := runner.LookPath(e.Path)
	if err != nil {
		return &core.SolverError{Stage: "launch", ExitCode: -1, Err: err}
	}

	args := append([]string{confPath}, e.Args...)
	stdout := e.Output
	if stdout == nil {
		stdout = io.Discard
	}
	var stderr bytes.Buffer

	code, err := runner.Run(ctx, bin, args, stdout, &stderr)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		err = fmt.Errorf("%w: %s", err, msg)
	}
	stage := "solve"
	if code < 0 {
		stage = "launch"
	}
	return &core.SolverError{Stage: stage, ExitCode: code, Err: err}
}
