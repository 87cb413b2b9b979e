// Package stats counts request outcomes and predicted tags. No message text
// is ever stored.
package stats

import (
	"context"

	"github.com/avvvet/intentbot/internal/models"
)

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Outcomes map[string]int64 `json:"outcomes"`
	Tags     map[string]int64 `json:"tags"`
}

// Store defines the interface for counter storage
// This allows us to swap between Redis and in-memory
type Store interface {
	// Record counts one reply. tag is empty unless outcome is matched.
	Record(ctx context.Context, outcome models.Outcome, tag string) error

	// Snapshot returns the current counters
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Close releases the underlying connection, if any
	Close() error
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Outcomes: make(map[string]int64),
		Tags:     make(map[string]int64),
	}
}
