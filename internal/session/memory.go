package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxSweepInterval = 30 * time.Minute

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewMemoryStore creates an empty store whose sessions expire ttl after
// their last save. Expired sessions are swept in the background until Close.
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	interval := ttl
	if interval <= 0 || interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	return newMemoryStore(ttl, interval, time.Now, logger)
}

func newMemoryStore(ttl, sweepInterval time.Duration, now func() time.Time, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MemoryStore{
		sessions:  make(map[string]memoryEntry),
		ttl:       ttl,
		now:       now,
		logger:    logger,
		stopSweep: make(chan struct{}),
	}
	go m.sweepLoop(sweepInterval)
	return m
}

func (m *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stopSweep:
			return
		}
	}
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = memoryEntry{session: s, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.sessions, id)
		return Session{}, ErrNotFound
	}
	return entry.session, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep drops every expired session and reports how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("swept expired sessions",
			zap.String("op", "session.MemoryStore.Sweep"),
			zap.Int("removed", removed),
		)
	}
	return removed
}

// Len returns the number of sessions held, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the background sweep. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stopSweep) })
	return nil
}
