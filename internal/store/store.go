// Package store contains the in-memory storage engine of the node.
//
// The store is volatile: there is no WAL, no snapshotting to disk, and no
// versioning. A key exists from its first successful SET and is overwritten,
// never deleted, by later SETs. Last writer wins.
//
// Concurrency: a single exclusive mutex guards the map. Readers take the
// same lock as writers, so every read observes a consistent entry. The
// workload is low-contention with small values; one mutex keeps correctness
// trivial and is nowhere near the bottleneck.
package store

import "sync"

// Store is a thread-safe map from string keys to string values.
type Store struct {
	mu   sync.Mutex
	data map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Put stores or overwrites a key.
func (s *Store) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Get returns the value for a key and whether it exists.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Snapshot copies the current contents. The copy is detached from the live
// map; callers may mutate it freely.
func (s *Store) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}
