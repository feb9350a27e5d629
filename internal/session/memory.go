package session

import (
	"context"
	"sync"
	"time"

	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/types"
)

type memoryContext struct {
	entries      []Entry
	lastActivity time.Time
}

// MemoryStore is a process-local Store used when Redis is not configured.
// Expired contexts are dropped lazily on access.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*memoryContext
	cfg   func() config.ContextConfig
	now   func() time.Time
}

func NewMemoryStore(cfg func() config.ContextConfig) *MemoryStore {
	return &MemoryStore{users: make(map[string]*memoryContext), cfg: cfg, now: time.Now}
}

func (s *MemoryStore) Append(_ context.Context, userID, role, content string) error {
	maxMessages, _, ttl := limits(s.cfg())
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(now, ttl)

	c, ok := s.users[userID]
	if !ok {
		c = &memoryContext{}
		s.users[userID] = c
	}
	c.entries = append(c.entries, Entry{Role: role, Content: content, Timestamp: now})
	if len(c.entries) > maxMessages {
		c.entries = append([]Entry(nil), c.entries[len(c.entries)-maxMessages:]...)
	}
	c.lastActivity = now
	return nil
}

func (s *MemoryStore) History(_ context.Context, userID string, n int) ([]types.Message, error) {
	_, history, ttl := limits(s.cfg())
	if n <= 0 {
		n = history
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(s.now(), ttl)

	c, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	entries := c.entries
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return toMessages(entries), nil
}

func (s *MemoryStore) Reset(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Stats(context.Context) (Stats, error) {
	_, _, ttl := limits(s.cfg())
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(now, ttl)

	st := Stats{TotalUsers: len(s.users)}
	for _, c := range s.users {
		if now.Sub(c.lastActivity) <= activeWindow {
			st.ActiveUsers++
		}
	}
	return st, nil
}

// expire must be called with mu held.
func (s *MemoryStore) expire(now time.Time, ttl time.Duration) {
	for id, c := range s.users {
		if now.Sub(c.lastActivity) > ttl {
			delete(s.users, id)
		}
	}
}
