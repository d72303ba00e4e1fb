package runstate

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRun(t *testing.T) (*Run, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := logging.NewLogger(logging.INFO, logging.FormatConsole)
	l.SetOutput(&buf)
	return New(l), &buf
}

func TestExitCodeDefaultsToZero(t *testing.T) {
	r, buf := newRun(t)
	assert.Equal(t, 0, r.ExitCode())
	assert.False(t, r.Failed())
	assert.Empty(t, buf.String())
}

func TestFailSetsExitCodeOnce(t *testing.T) {
	r, buf := newRun(t)

	require.True(t, r.Fail(clierr.Fatal("first", 4)))
	assert.False(t, r.Fail(errors.New("second")))
	assert.False(t, r.Fail(clierr.Fatal("third", 9)))

	assert.Equal(t, 4, r.ExitCode())
	assert.Equal(t, "[error] first\n", buf.String())
}

func TestFailUnexpectedIsOne(t *testing.T) {
	r, buf := newRun(t)
	r.Fail(errors.New("disk on fire"))
	assert.Equal(t, 1, r.ExitCode())
	assert.True(t, strings.Contains(buf.String(), "disk on fire"))
}

func TestFailNilIsIgnored(t *testing.T) {
	r, _ := newRun(t)
	assert.False(t, r.Fail(nil))
	assert.Equal(t, 0, r.ExitCode())
}

func TestFailNilFatalPointerIsUnexpected(t *testing.T) {
	r, buf := newRun(t)
	var fe *clierr.FatalError
	var err error = fe

	require.NotPanics(t, func() { assert.True(t, r.Fail(err)) })
	assert.Equal(t, clierr.ExitFailure, r.ExitCode())
	assert.Equal(t, "[error] unknown error\n", buf.String())
}

func TestTransitions(t *testing.T) {
	r, _ := newRun(t)
	var seen []State
	r.OnStateChange(func(s State) { seen = append(seen, s) })

	assert.Equal(t, Loading, r.State())
	r.Transition(Running)
	r.Transition(Running)
	r.Transition(Terminated)
	r.Transition(Running)

	assert.Equal(t, Terminated, r.State())
	assert.Equal(t, []State{Running, Terminated}, seen)
	assert.Equal(t, "terminated", Terminated.String())
}
