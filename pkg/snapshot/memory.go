package snapshot

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory. Expired entries are
// removed by a background janitor.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*stored
	closed    bool
	done      chan struct{}
	now       func() time.Time
}

type stored struct {
	data      []byte
	expiresAt time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often expired snapshots are removed.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.cleanupInterval = d
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) {
		c.now = now
	}
}

// NewMemoryStore creates an in-memory store and starts its janitor.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	cfg := &memoryConfig{
		cleanupInterval: time.Minute,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &MemoryStore{
		snapshots: make(map[string]*stored),
		done:      make(chan struct{}),
		now:       cfg.now,
	}
	go m.janitor(cfg.cleanupInterval)
	return m
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.snapshots[id] = &stored{
		data:      append([]byte(nil), data...),
		expiresAt: expiresAt,
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	s, ok := m.snapshots[id]
	if !ok || m.expired(s) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.snapshots, id)
	return nil
}

// Close stops the janitor and drops every snapshot.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.snapshots = nil
	return nil
}

// Count returns the number of stored snapshots, expired ones included.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

func (m *MemoryStore) expired(s *stored) bool {
	return !s.expiresAt.IsZero() && m.now().After(s.expiresAt)
}

func (m *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.done:
			return
		}
	}
}

// cleanup removes expired snapshots and returns how many it removed.
func (m *MemoryStore) cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0
	}
	n := 0
	for id, s := range m.snapshots {
		if m.expired(s) {
			delete(m.snapshots, id)
			n++
		}
	}
	return n
}
