// Package history keeps a local record of capctl command outcomes.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Entry is one finished command invocation
type Entry struct {
	ID         string        `json:"id"`
	Session    string        `json:"session"`
	Command    string        `json:"command"`
	Outcome    string        `json:"outcome"`
	Error      string        `json:"error,omitempty"`
	CLIVersion string        `json:"cli_version"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Store persists entries
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Open picks a backend from the DSN: postgres:// and postgresql:// URLs go to
// PostgreSQL, anything else (optionally prefixed with sqlite://) is a SQLite path.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "":
		return nil, fmt.Errorf("history DSN is required")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn)
	default:
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	}
}
