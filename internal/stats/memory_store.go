package stats

import (
	"context"
	"sync"

	"github.com/avvvet/intentbot/internal/models"
)

// MemoryStore keeps counters in process memory. Used when Redis is not configured.
type MemoryStore struct {
	mu       sync.Mutex
	outcomes map[string]int64
	tags     map[string]int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		outcomes: make(map[string]int64),
		tags:     make(map[string]int64),
	}
}

func (m *MemoryStore) Record(_ context.Context, outcome models.Outcome, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes[string(outcome)]++
	if tag != "" {
		m.tags[tag]++
	}
	return nil
}

func (m *MemoryStore) Snapshot(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := newSnapshot()
	for k, v := range m.outcomes {
		s.Outcomes[k] = v
	}
	for k, v := range m.tags {
		s.Tags[k] = v
	}
	return s, nil
}

func (m *MemoryStore) Close() error { return nil }
