package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pedalsmith/fitlink"
)

type entry struct {
	summary fitlink.Summary
	expires time.Time
}

// Memory is an in-process Store with per-document expiry. Expired documents
// are dropped lazily on the next read touching them.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]entry

	// now is swappable so expiry behavior is testable without sleeping.
	now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]entry),
		now:  time.Now,
	}
}

func (m *Memory) Search(_ context.Context, q Query) ([]fitlink.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var out []fitlink.Summary
	for key, e := range m.docs {
		if now.After(e.expires) {
			delete(m.docs, key)
			continue
		}
		if q.matches(e.summary) {
			out = append(out, e.summary)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *Memory) Get(_ context.Context, key string) (fitlink.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.docs[key]
	if !ok {
		return fitlink.Summary{}, ErrNotFound
	}
	if m.now().After(e.expires) {
		delete(m.docs, key)
		return fitlink.Summary{}, ErrNotFound
	}
	return e.summary, nil
}

func (m *Memory) Set(_ context.Context, key string, s fitlink.Summary, ttl time.Duration) (string, error) {
	if key == "" {
		key = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = entry{summary: s, expires: m.now().Add(ttl)}
	return key, nil
}

// Len reports the number of documents currently held, including any not yet
// reaped.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
