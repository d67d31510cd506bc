package session

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process Store used by default and in tests. Sessions live
// for the process lifetime unless an idle TTL is configured.
type Memory struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	lastSeen map[int64]time.Time
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory constructs an in-memory store. ttl <= 0 disables idle expiry,
// matching the original behavior of never evicting sessions.
func NewMemory(ttl time.Duration) *Memory {
	m := &Memory{
		sessions: make(map[int64]*Session),
		lastSeen: make(map[int64]time.Time),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go m.sweep()
	}
	return m
}

// GetOrCreate returns the user's session, creating a defaulted one on first
// contact.
func (m *Memory) GetOrCreate(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{UserID: userID}
		m.sessions[userID] = sess
	}
	m.lastSeen[userID] = time.Now()
	return sess, nil
}

// Save is a no-op for the memory backend: callers mutate the stored pointer
// under the per-user lock. It still refreshes the idle timestamp.
func (m *Memory) Save(_ context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	m.mu.Lock()
	m.lastSeen[sess.UserID] = time.Now()
	m.mu.Unlock()
	return nil
}

// Reset restores the session to defaults in place, preserving the entry.
func (m *Memory) Reset(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{UserID: userID}
		m.sessions[userID] = sess
	}
	sess.Reset()
	m.lastSeen[userID] = time.Now()
	return nil
}

// Len reports the number of live sessions.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

// Close stops the idle sweeper if one is running.
func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) sweep() {
	interval := m.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for id, seen := range m.lastSeen {
				if now.Sub(seen) > m.ttl {
					delete(m.sessions, id)
					delete(m.lastSeen, id)
				}
			}
			m.mu.Unlock()
		}
	}
}
