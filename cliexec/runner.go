// Package cliexec provides the process-execution capability consumed by the
// analyzer and validator: run a binary with arguments under a bounded
// timeout and capture stdout, stderr, and the exit code.
package cliexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single CLI introspection run.
const DefaultTimeout = 10 * time.Second

// Result captures the output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stdout, falling back to stderr when stdout is empty.
// Many CLIs print their help text to stderr.
func (r *Result) Output() string {
	if r.Stdout != "" {
		return r.Stdout
	}
	return r.Stderr
}

// Runner runs a child process and captures its output. Implementations must
// honor context cancellation.
type Runner interface {
	Run(ctx context.Context, path string, args ...string) (*Result, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	// Timeout bounds each run; zero means DefaultTimeout.
	Timeout time.Duration
	// Dir is the working directory for spawned processes (optional).
	Dir string
}

// Run executes path with args. A nonzero exit still returns a Result with
// the exit code filled in and a nil error; the caller decides whether the
// captured output is usable. Errors are reserved for the process not
// running at all (not found, timeout, cancellation).
func (e *ExecRunner) Run(ctx context.Context, path string, args ...string) (*Result, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = e.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("running %s: %w", path, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("running %s: %w", path, err)
	}

	return result, nil
}

// Available reports whether the binary can be found on PATH (or at an
// absolute path).
func Available(path string) bool {
	_, err := exec.LookPath(path)
	return err == nil
}
