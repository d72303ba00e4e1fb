package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/internal/config"
	"github.com/psantana5/capctl/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	events []Event
	err    error
}

func (c *captureSink) Emit(_ context.Context, e Event) error {
	c.events = append(c.events, e)
	return c.err
}

func (c *captureSink) phases() []Phase {
	out := make([]Phase, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Phase)
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		CLI: config.CLI{Name: "capctl", Version: "1.2.3"},
		App: config.App{AppID: "com.example.app"},
	}
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestActionSuccessEmitsAttemptedThenSucceeded(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, nil, WithClock(fixedClock()), WithMachineID("m1"))

	var order []string
	sink2 := SinkFunc(func(ctx context.Context, e Event) error {
		order = append(order, string(e.Phase))
		return sink.Emit(ctx, e)
	})
	rec.sink = sink2

	h := rec.Action(testConfig(), "build", func(ctx context.Context, args []string) error {
		order = append(order, "task")
		return nil
	})
	require.NoError(t, h(context.Background(), []string{"android"}))

	assert.Equal(t, []string{"attempted", "task", "succeeded"}, order)
	require.Len(t, sink.events, 2)
	assert.Equal(t, sink.events[0].ID, sink.events[1].ID)
	assert.Equal(t, "build", sink.events[1].Command)
	assert.Equal(t, "1.2.3", sink.events[1].CLIVersion)
	assert.Equal(t, "com.example.app", sink.events[1].AppID)
	assert.Equal(t, "m1", sink.events[1].Machine)
	assert.Equal(t, time.Second, sink.events[1].Duration)
	assert.NotEmpty(t, sink.events[0].Session)
}

func TestActionFailurePreservesError(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, nil)
	sentinel := clierr.Fatal("keystore missing", 5)

	h := rec.Action(testConfig(), "build", func(context.Context, []string) error { return sentinel })
	err := h(context.Background(), nil)

	assert.Same(t, sentinel, err)
	assert.Equal(t, []Phase{PhaseAttempted, PhaseFailed}, sink.phases())
	assert.Equal(t, "keystore missing", sink.events[1].Error)
	assert.Equal(t, 5, sink.events[1].ExitCode)
}

func TestActionPanicIsReraisedAfterFailedObservation(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, nil)

	h := rec.Action(testConfig(), "build", func(context.Context, []string) error { panic("corrupt state") })

	assert.PanicsWithValue(t, "corrupt state", func() { _ = h(context.Background(), nil) })
	assert.Equal(t, []Phase{PhaseAttempted, PhaseFailed}, sink.phases())
	assert.Equal(t, "corrupt state", sink.events[1].Error)
}

func TestSinkFailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.DEBUG, logging.FormatConsole)
	logger.SetOutput(&buf)

	sink := &captureSink{err: errors.New("collector unreachable")}
	rec := NewRecorder(sink, logger)

	h := rec.Action(testConfig(), "build", func(context.Context, []string) error { return nil })
	require.NoError(t, h(context.Background(), nil))

	assert.Len(t, sink.events, 2)
	assert.Equal(t, 2, strings.Count(buf.String(), "[debug] telemetry emit failed"))
	assert.NotContains(t, buf.String(), "[error]")
}

func TestSinkPanicIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.DEBUG, logging.FormatConsole)
	logger.SetOutput(&buf)

	rec := NewRecorder(SinkFunc(func(context.Context, Event) error { panic("sink bug") }), logger)
	sentinel := errors.New("task failed")

	h := rec.Action(testConfig(), "build", func(context.Context, []string) error { return sentinel })
	assert.Same(t, sentinel, h(context.Background(), nil))
	assert.Contains(t, buf.String(), "telemetry sink panicked: sink bug")
}

func TestForward(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, nil, WithMachineID("m2"))

	rec.Forward(context.Background(), "sync", map[string]any{"platform": "ios"})

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, PhaseForwarded, e.Phase)
	assert.Equal(t, "sync", e.Command)
	assert.Equal(t, "ios", e.Data["platform"])
	assert.Equal(t, "m2", e.Machine)
	assert.False(t, e.Time.IsZero())
}

func TestMultiJoinsErrors(t *testing.T) {
	a := &captureSink{err: errors.New("a down")}
	b := &captureSink{}
	err := Multi(a, b).Emit(context.Background(), Event{Phase: PhaseAttempted})

	assert.ErrorContains(t, err, "a down")
	assert.Len(t, b.events, 1)
	assert.IsType(t, Noop{}, Multi())
	assert.Same(t, b, Multi(b))
}

func TestMachineIDIsStable(t *testing.T) {
	id := MachineID()
	assert.Len(t, id, 32)
	assert.Equal(t, id, MachineID())
}
