package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/psantana5/capctl/pkg/logging"
)

// Runner executes one external tool
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs tools as child processes with their output forwarded
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *logging.Logger
	// Redact lists argument values never written to logs, e.g. passwords.
	Redact []string
}

// Run starts name in dir and waits for it. A non-zero exit is reported with
// the tool's exit code.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()

	if r.Logger != nil {
		r.Logger.Debug(fmt.Sprintf("running %s %s", name, r.redact(args)), map[string]interface{}{"dir": dir})
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ToolError{Tool: name, ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

func (r *ExecRunner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *ExecRunner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

func (r *ExecRunner) redact(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a
		for _, secret := range r.Redact {
			if secret != "" && strings.Contains(a, secret) {
				out[i] = strings.ReplaceAll(a, secret, "****")
			}
		}
	}
	return strings.Join(out, " ")
}

// ToolError reports an external tool that exited non-zero
type ToolError struct {
	Tool     string
	ExitCode int
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}
