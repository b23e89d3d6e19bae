package weather

import (
	"context"
)

// Fetcher abstracts a single upstream request for a station (e.g. the BoM JSON feed).
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, code StationCode) (StationRecord, error)
}

// Store holds at most one CacheEntry per station code.
// A store belongs to a single Client; entries are replaced, never merged or removed.
type Store interface {
	Load(code StationCode) (CacheEntry, bool)
	Save(code StationCode, entry CacheEntry)
	All() map[StationCode]CacheEntry
}
