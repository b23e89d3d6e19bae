package store

import (
	"sync"

	"github.com/i474232898/bom-weather/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory map of station cache entries.
// Entries live for the lifetime of the store; saving a code replaces its entry.
type MemoryStore struct {
	mu sync.RWMutex

	// key: station code
	data map[weather.StationCode]weather.CacheEntry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[weather.StationCode]weather.CacheEntry),
	}
}

// Load returns the entry for code, if any.
func (s *MemoryStore) Load(code weather.StationCode) (weather.CacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[code]
	return entry, ok
}

// Save stores entry for code, replacing whatever was there.
func (s *MemoryStore) Save(code weather.StationCode, entry weather.CacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[code] = entry
}

// All returns a copy of every entry.
func (s *MemoryStore) All() map[weather.StationCode]weather.CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[weather.StationCode]weather.CacheEntry, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Len returns the number of cached stations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
