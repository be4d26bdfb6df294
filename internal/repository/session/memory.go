package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/xpanvictor/intervox/internal/domains/interview"
)

type memEntry struct {
	data    []byte
	expires time.Time
}

// MemoryInterviewRepo is the single process stand-in for redis, with the
// same copy and expiry semantics.
type MemoryInterviewRepo struct {
	mu      sync.Mutex
	entries map[string]memEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryInterviewRepo(ttl time.Duration) *MemoryInterviewRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryInterviewRepo{entries: map[string]memEntry{}, ttl: ttl, now: time.Now}
}

func (m *MemoryInterviewRepo) Create(_ context.Context, iv *interview.Interview) error {
	data, err := json.Marshal(iv)
	if err != nil {
		return fmt.Errorf("failed to marshal interview: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[iv.ID] = memEntry{data: data, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryInterviewRepo) Get(_ context.Context, id string) (*interview.Interview, error) {
	m.mu.Lock()
	e, ok := m.liveLocked(id)
	m.mu.Unlock()
	if !ok {
		return nil, interview.ErrNotFound
	}
	var iv interview.Interview
	if err := json.Unmarshal(e.data, &iv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interview %s: %w", id, err)
	}
	return &iv, nil
}

func (m *MemoryInterviewRepo) Update(_ context.Context, iv *interview.Interview) error {
	data, err := json.Marshal(iv)
	if err != nil {
		return fmt.Errorf("failed to marshal interview: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.liveLocked(iv.ID); !ok {
		return interview.ErrNotFound
	}
	m.entries[iv.ID] = memEntry{data: data, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryInterviewRepo) liveLocked(id string) (memEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return memEntry{}, false
	}
	if m.now().After(e.expires) {
		delete(m.entries, id)
		return memEntry{}, false
	}
	return e, true
}
