package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFatalIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"default code", Fatal("no platform"), ExitFailure},
		{"explicit code", Fatal("bad config", ExitConfig), ExitConfig},
		{"formatted", Fatalf(42, "Unknown command: %s", "foo"), 42},
		{"wrapped with context", fmt.Errorf("build: %w", Fatal("missing keystore", 7)), 7},
		{"wrap keeps cause", Wrap(errors.New("eof"), 9, "read failed"), 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsFatal(tt.err))
			assert.Equal(t, tt.code, ExitCode(tt.err))
		})
	}
}

func TestUnexpectedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"plain", errors.New("boom")},
		{"wrapped", fmt.Errorf("outer: %w", errors.New("inner"))},
		{"panic string", FromPanic("kaboom")},
		{"panic nil", FromPanic(nil)},
		{"nil fatal pointer", nilFatal()},
		{"wrapped nil fatal pointer", fmt.Errorf("build: %w", nilFatal())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, IsFatal(tt.err))
			assert.Equal(t, ExitFailure, ExitCode(tt.err))
		})
	}
}

// nilFatal mimics a handler that declares a *FatalError result and returns
// it without ever assigning one.
func nilFatal() error {
	var fe *FatalError
	return fe
}

func TestExitCodeNil(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.False(t, IsFatal(nil))
}

func TestFromPanicKeepsFatal(t *testing.T) {
	err := FromPanic(Fatal("stop", 5))
	assert.True(t, IsFatal(err))
	assert.Equal(t, 5, ExitCode(err))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(cause, ExitConfig, "cannot read config")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cannot read config", err.Error())
}

type stringer struct{}

func (stringer) String() string { return "stringer value" }

type emptyErr struct{}

func (emptyErr) Error() string { return "" }

func TestDescribe(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "unknown error"},
		{"", "unknown error"},
		{"plain string", "plain string"},
		{errors.New("boom"), "boom"},
		{emptyErr{}, "clierr.emptyErr"},
		{stringer{}, "stringer value"},
		{42, "42"},
		{FromPanic("deep"), "deep"},
		{FromPanic(nil), "unknown error"},
		{nilFatal(), "unknown error"},
		{(*PanicError)(nil), "unknown error"},
		{FromPanic(nilFatal()), "unknown error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.in))
	}
}
