package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "history", "capctl.db")

	store, err := Open(ctx, "sqlite://"+dbPath)
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, outcome := range []string{"succeeded", "failed", "succeeded"} {
		err := store.Record(ctx, Entry{
			ID:         string(rune('a' + i)),
			Session:    "s1",
			Command:    "build",
			Outcome:    outcome,
			CLIVersion: "1.0.0",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			Duration:   1500 * time.Millisecond,
		})
		require.NoError(t, err)
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, "failed", entries[1].Outcome)
	assert.Equal(t, 1500*time.Millisecond, entries[0].Duration)
	assert.True(t, entries[0].StartedAt.Equal(base.Add(2*time.Minute)))

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestSQLiteDuplicateIDFails(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer store.Close()

	e := Entry{ID: "x", Session: "s", Command: "build", Outcome: "failed", CLIVersion: "1", StartedAt: time.Now()}
	require.NoError(t, store.Record(ctx, e))
	assert.Error(t, store.Record(ctx, e))
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
