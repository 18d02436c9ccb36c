// Package result keeps completed analysis results and the rolling run
// history in memory. Results are immutable after installation and are
// evicted oldest-first once the store reaches its capacity.
package result

import (
	"sync"
	"time"

	"github.com/flowsight/flowsight/pkg/analytics/view"
)

const defaultCapacity = 16

// Record is a stored analysis result plus its intake metadata.
type Record struct {
	Result    *view.Result
	Filename  string
	CreatedAt time.Time
}

// Store is an in-memory, capacity-bounded result store keyed by result ID.
type Store struct {
	mu       sync.RWMutex
	capacity int
	records  map[string]*Record
	order    []string
}

// NewStore creates a store that retains at most capacity results.
// If capacity <= 0, a small default is used.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{
		capacity: capacity,
		records:  make(map[string]*Record, capacity),
	}
}

// Put installs a record under its result ID, evicting the oldest record
// when the store is full. Re-putting an existing ID replaces it in place.
func (s *Store) Put(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rec.Result.ID
	if _, ok := s.records[id]; !ok {
		if len(s.order) >= s.capacity {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.records, oldest)
		}
		s.order = append(s.order, id)
	}
	s.records[id] = rec
}

// Get returns the record for id, or false when unknown or evicted.
func (s *Store) Get(id string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Len reports the number of retained records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
