package dataset

import (
	"sync/atomic"
	"time"
)

// Store publishes the current Snapshot. Readers never block writers.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Current returns the published snapshot, or nil before the first load.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace builds a snapshot from c and publishes it with the next version.
// On error the previously published snapshot stays in place.
func (s *Store) Replace(c *Collections, source string) (*Snapshot, error) {
	snap, err := NewSnapshot(c)
	if err != nil {
		return nil, err
	}
	snap.Source = source
	snap.LoadedAt = s.now()
	snap.Version = s.version.Add(1)
	s.current.Store(snap)
	return snap, nil
}
