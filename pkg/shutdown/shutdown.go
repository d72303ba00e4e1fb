package shutdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/psantana5/capctl/pkg/logging"
)

type entry struct {
	name string
	fn   func(context.Context) error
}

// Manager releases run resources at process end
type Manager struct {
	mu      sync.Mutex
	entries []entry
	timeout time.Duration
	logger  *logging.Logger
	once    sync.Once
}

// New creates a new shutdown manager
func New(timeout time.Duration, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a shutdown function
// Functions are called in reverse order (LIFO)
func (m *Manager) Register(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry{name: name, fn: fn})
}

// Shutdown executes all registered shutdown functions. Only the first call has
// any effect; failures are logged and never returned.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		entries := m.entries
		m.entries = nil
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			if err := m.run(ctx, e); err != nil {
				m.logger.Debug(fmt.Sprintf("shutdown of %s failed: %v", e.name, err))
			}
		}
	})
}

func (m *Manager) run(ctx context.Context, e entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.fn(ctx)
}

// CloseResource creates a shutdown function for io.Closer
func CloseResource(closer interface{ Close() error }, name string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", name, err)
		}
		return nil
	}
}
