// Package clierr separates intentional, user-facing failures from everything
// else and maps both onto process exit codes.
package clierr

import (
	"errors"
	"fmt"
)

// Exit codes returned by capctl.
const (
	// ExitOK indicates the command completed successfully.
	ExitOK = 0

	// ExitFailure is the default for unexpected failures and for Fatal without an explicit code.
	ExitFailure = 1

	// ExitUsage is available to task handlers that reject their input.
	ExitUsage = 2

	// ExitConfig indicates the configuration could not be loaded.
	ExitConfig = 3
)

// FatalError is a failure raised on purpose to stop the command with a
// specific message and exit code.
type FatalError struct {
	Message  string
	ExitCode int
	Err      error
}

// Error implements error interface
func (e *FatalError) Error() string {
	if e == nil {
		return "unknown error"
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *FatalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Fatal constructs a fatal error. The exit code defaults to ExitFailure.
func Fatal(message string, exitCode ...int) error {
	code := ExitFailure
	if len(exitCode) > 0 {
		code = exitCode[0]
	}
	return &FatalError{Message: message, ExitCode: code}
}

// Fatalf constructs a fatal error with a formatted message.
func Fatalf(exitCode int, format string, args ...any) error {
	return &FatalError{Message: fmt.Sprintf(format, args...), ExitCode: exitCode}
}

// Wrap turns err into a fatal error carrying message and exitCode while
// keeping err reachable through errors.Is/As.
func Wrap(err error, exitCode int, message string) error {
	return &FatalError{Message: message, ExitCode: exitCode, Err: err}
}

// IsFatal reports whether err, or anything it wraps, was produced by Fatal.
// A nil *FatalError stored in an error interface is not fatal.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe) && fe != nil
}

// ExitCode maps err onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var fe *FatalError
	if errors.As(err, &fe) && fe != nil {
		return fe.ExitCode
	}
	return ExitFailure
}

// PanicError carries a value recovered from a panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return Describe(e.Value)
}

// FromPanic converts a recovered value into an error. A panicked error keeps
// its identity, so a panicked *FatalError is still fatal.
func FromPanic(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return &PanicError{Value: v}
}

// Describe renders any failure value as a single display line.
func Describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "unknown error"
	case *PanicError:
		if x == nil {
			return "unknown error"
		}
		return Describe(x.Value)
	case *FatalError:
		if x == nil {
			return "unknown error"
		}
		if x.Message == "" {
			return fmt.Sprintf("%T", x)
		}
		return x.Message
	case error:
		if msg := x.Error(); msg != "" {
			return msg
		}
		return fmt.Sprintf("%T", x)
	case string:
		if x == "" {
			return "unknown error"
		}
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
