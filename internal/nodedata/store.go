package nodedata

import (
	"sync"
	"time"
)

// StoreSnapshot is a copy of the Store's state at one point in time.
type StoreSnapshot struct {
	Node   NodeData
	Loaded bool // false until the first successful fetch

	// Posting is true while an update is in flight
	Posting bool

	UpdatedAt           time.Time // time of the last successful fetch
	LastFetchError      error     // nil after a successful fetch
	ConsecutiveFailures int       // fetch failures since the last success
}

// Store holds the last fetched NodeData and the submission-in-flight flag.
// The zero value is an empty, idle store ready for use.
//
// Only the Fetcher replaces the node and only the Submitter toggles the
// flag; both go through unexported methods.
type Store struct {
	mu       sync.RWMutex
	snapshot StoreSnapshot
	changed  chan struct{}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() StoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot
}

// Node returns the stored node data and whether any fetch has succeeded.
func (s *Store) Node() (NodeData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Node, s.snapshot.Loaded
}

// IsPosting reports whether an update is in flight.
func (s *Store) IsPosting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Posting
}

// Changed returns a channel that is closed at the next state change.
// Call it again after each wakeup to wait for the following change.
func (s *Store) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.changed == nil {
		s.changed = make(chan struct{})
	}
	return s.changed
}

func (s *Store) notifyLocked() {
	if s.changed != nil {
		close(s.changed)
		s.changed = nil
	}
}

// replace swaps in a freshly fetched node.
func (s *Store) replace(node NodeData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Node = node
	s.snapshot.Loaded = true
	s.snapshot.UpdatedAt = time.Now()
	s.snapshot.LastFetchError = nil
	s.snapshot.ConsecutiveFailures = 0
	s.notifyLocked()
}

// recordFetchError keeps the node but notes the failure.
func (s *Store) recordFetchError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastFetchError = err
	s.snapshot.ConsecutiveFailures++
	s.notifyLocked()
}

// beginSubmit marks an update in flight and returns the node it must be
// merged against. It refuses when an update is already in flight or nothing
// has been loaded yet.
func (s *Store) beginSubmit() (NodeData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot.Posting || !s.snapshot.Loaded {
		return NodeData{}, false
	}
	s.snapshot.Posting = true
	s.notifyLocked()
	return s.snapshot.Node, true
}

// endSubmit clears the in-flight flag.
func (s *Store) endSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Posting = false
	s.notifyLocked()
}
