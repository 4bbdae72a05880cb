package client

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// stubRunner records the command it was asked to run and returns canned
// output. onRun, when set, runs first so tests can inspect or create the
// temp files the clients pass as arguments.
type stubRunner struct {
	stdout   []byte
	stderr   []byte
	err      error
	lastName string
	lastArgs []string
	onRun    func(name string, args []string)
}

func (r *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.lastName = name
	r.lastArgs = args
	if r.onRun != nil {
		r.onRun(name, args)
	}
	return r.stdout, r.stderr, r.err
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	r := NewExecRunner(zap.NewNop().Sugar())

	stdout, stderr, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")

	assert.NoError(t, err)
	assert.Equal(t, "out\n", string(stdout))
	assert.Equal(t, "err\n", string(stderr))
}

func TestExecRunnerReportsExitError(t *testing.T) {
	r := NewExecRunner(zap.NewNop().Sugar())

	_, _, err := r.Run(context.Background(), "sh", "-c", "exit 3")

	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, strings.Repeat("x", 10)+"...(truncated)", truncate(strings.Repeat("x", 25), 10))
}
