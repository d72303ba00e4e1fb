package action

import (
	"context"

	"github.com/psantana5/capctl/internal/clierr"
	"github.com/spf13/cobra"
)

// Handler is the shape of every command body
type Handler func(ctx context.Context, args []string) error

// Reporter decides the exit code for a failure and logs it
type Reporter interface {
	Fail(err error) bool
}

// Invoke runs h and converts a panic into an error
func Invoke(ctx context.Context, h Handler, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = clierr.FromPanic(r)
		}
	}()
	return h(ctx, args)
}

// Wrap adapts h into a cobra Run func. Any failure of h is classified and
// reported through rep here and is not returned to cobra, so it is reported
// exactly once and the process is left to exit normally.
func Wrap(rep Reporter, h Handler) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := Invoke(ctx, h, args); err != nil {
			rep.Fail(err)
		}
	}
}
