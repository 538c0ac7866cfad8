package series

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is one loaded table together with its version
type Snapshot struct {
	Table    *Table
	Version  uint64
	LoadedAt time.Time
}

// Store publishes the current Snapshot. Swaps are atomic: a reader that has
// loaded a snapshot keeps computing against it even after a newer one is
// stored.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	version uint64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Current returns the latest snapshot, or nil before the first Swap
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Swap replaces the current table and returns the new snapshot
func (s *Store) Swap(table *Table) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	snap := &Snapshot{
		Table:    table,
		Version:  s.version,
		LoadedAt: time.Now(),
	}
	s.current.Store(snap)
	return snap
}
