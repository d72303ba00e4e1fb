package action

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/internal/runstate"
	"github.com/psantana5/capctl/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	errs []error
}

func (r *recorder) Fail(err error) bool {
	r.errs = append(r.errs, err)
	return len(r.errs) == 1
}

func runWrapped(t *testing.T, rep Reporter, h Handler, args ...string) {
	t.Helper()
	cmd := &cobra.Command{Use: "x", Run: Wrap(rep, h), SilenceErrors: true, SilenceUsage: true}
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
}

func TestWrapSuccessReportsNothing(t *testing.T) {
	rep := &recorder{}
	var got []string
	runWrapped(t, rep, func(ctx context.Context, args []string) error {
		got = args
		return nil
	}, "a", "b")

	assert.Empty(t, rep.errs)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestWrapReportsOriginalError(t *testing.T) {
	rep := &recorder{}
	sentinel := errors.New("gradle exploded")
	runWrapped(t, rep, func(context.Context, []string) error { return sentinel })

	require.Len(t, rep.errs, 1)
	assert.Same(t, sentinel, rep.errs[0])
}

func TestWrapRecoversPanics(t *testing.T) {
	tests := []struct {
		name  string
		value any
		code  int
	}{
		{"string", "bad state", 1},
		{"nil error value", (error)(nil), 1},
		{"fatal", clierr.Fatal("stop now", 3), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &recorder{}
			runWrapped(t, rep, func(context.Context, []string) error { panic(tt.value) })
			require.Len(t, rep.errs, 1)
			assert.Equal(t, tt.code, clierr.ExitCode(rep.errs[0]))
		})
	}
}

func TestWrapSetsExitCodeOnRun(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"fatal keeps code", clierr.Fatal("Unknown command: foo", 1), 1},
		{"fatal custom code", clierr.Fatal("signing failed", 12), 12},
		{"unexpected", errors.New("nil pointer somewhere"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := logging.NewLogger(logging.INFO, logging.FormatConsole)
			l.SetOutput(&buf)
			run := runstate.New(l)

			runWrapped(t, run, func(context.Context, []string) error { return tt.err })

			assert.Equal(t, tt.code, run.ExitCode())
			assert.Equal(t, 1, strings.Count(buf.String(), "[error]"))
			assert.Contains(t, buf.String(), tt.err.Error())
		})
	}
}

func TestNestedWrappersReportOnce(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewLogger(logging.INFO, logging.FormatConsole)
	l.SetOutput(&buf)
	run := runstate.New(l)

	inner := Wrap(run, func(context.Context, []string) error { return clierr.Fatal("inner failure", 6) })
	outer := func(ctx context.Context, args []string) error {
		inner(&cobra.Command{}, args)
		return errors.New("outer failure")
	}
	runWrapped(t, run, outer)

	assert.Equal(t, 6, run.ExitCode())
	assert.Equal(t, 1, strings.Count(buf.String(), "[error]"))
	assert.NotContains(t, buf.String(), "outer failure")
}
