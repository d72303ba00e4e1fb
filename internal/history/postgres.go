package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const (
	postgresInsertSQL = `INSERT INTO capctl_invocations (id, session, command, outcome, error, cli_version, started_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	postgresRecentSQL = `SELECT id, session, command, outcome, COALESCE(error, ''), cli_version, started_at, duration_ms
		 FROM capctl_invocations ORDER BY started_at DESC LIMIT $1`
)

// PostgresStore keeps history in a shared PostgreSQL database, e.g. for a
// team's CI runners
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to dsn and ensures the schema exists
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS capctl_invocations (
		id TEXT PRIMARY KEY,
		session TEXT NOT NULL,
		command TEXT NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT,
		cli_version TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		duration_ms BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_capctl_invocations_started_at ON capctl_invocations(started_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record stores one entry
func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, postgresInsertSQL,
		e.ID, e.Session, e.Command, e.Outcome, e.Error, e.CLIVersion, e.StartedAt.UTC(), e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record invocation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, postgresRecentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.Session, &e.Command, &e.Outcome, &e.Error, &e.CLIVersion, &e.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
