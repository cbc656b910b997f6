package cliexec

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" || !Available("sh") {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	skipWithoutShell(t)
	r := &ExecRunner{}
	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunNonZeroExit(t *testing.T) {
	skipWithoutShell(t)
	r := &ExecRunner{}
	res, err := r.Run(context.Background(), "sh", "-c", "echo usage >&2; exit 2")
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, "usage\n", res.Output())
}

func TestRunTimeout(t *testing.T) {
	skipWithoutShell(t)
	r := &ExecRunner{Timeout: 50 * time.Millisecond}
	_, err := r.Run(context.Background(), "sh", "-c", "sleep 5")
	assert.Error(t, err)
}

func TestRunMissingBinary(t *testing.T) {
	r := &ExecRunner{}
	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	assert.Error(t, err)
}

func TestOutputFallsBackToStderr(t *testing.T) {
	res := &Result{Stderr: "help text"}
	assert.Equal(t, "help text", res.Output())
	res.Stdout = "stdout wins"
	assert.Equal(t, "stdout wins", res.Output())
}
