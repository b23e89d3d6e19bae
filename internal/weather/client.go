package weather

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultCacheAge is how long a fetched station record is served before it is refreshed.
const DefaultCacheAge = 600 * time.Second

// Client caches station records per code and refreshes them once they are older than the TTL.
// Refreshes for the same code are serialized; different codes refresh independently.
type Client struct {
	fetcher Fetcher
	store   Store
	ttl     time.Duration
	now     func() time.Time
	loc     *time.Location

	// locks only holds codes with a GetStation call in flight.
	mu    sync.Mutex
	locks map[StationCode]*codeLock
}

type codeLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithLocation sets the zone used for timestamps that carry none.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// NewClient creates a Client. A ttl <= 0 makes every entry stale, so each call fetches.
func NewClient(fetcher Fetcher, store Store, ttl time.Duration, opts ...Option) *Client {
	c := &Client{
		fetcher: fetcher,
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		loc:     time.UTC,
		locks:   make(map[StationCode]*codeLock),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured cache age.
func (c *Client) TTL() time.Duration {
	return c.ttl
}

// GetStation returns the record for code, fetching it when there is no entry,
// the entry is older than the TTL, or forceRefresh is set.
// A failed fetch leaves the cached entry as it was and returns the error.
func (c *Client) GetStation(ctx context.Context, code StationCode, forceRefresh bool) (StationRecord, error) {
	l := c.acquire(code)
	defer c.release(code, l)

	entry, ok := c.store.Load(code)
	if ok && !forceRefresh && !c.expired(entry) {
		slog.DebugContext(ctx, "station cache hit", "code", code, "age", c.now().Sub(entry.FetchedAt))
		return entry.Record, nil
	}

	slog.DebugContext(ctx, "fetching station", "code", code, "provider", c.fetcher.Name(), "cached", ok, "force", forceRefresh)

	record, err := c.fetcher.Fetch(ctx, code)
	if err != nil {
		return nil, err
	}

	c.store.Save(code, CacheEntry{FetchedAt: c.now(), Record: record})
	return record, nil
}

// GetStationTable returns the station's observations as rows, in upstream order.
func (c *Client) GetStationTable(ctx context.Context, code StationCode, forceRefresh bool) ([]ObservationRow, error) {
	record, err := c.GetStation(ctx, code, forceRefresh)
	if err != nil {
		return nil, err
	}
	return StationTable(record, c.loc)
}

// GetLastUpdate returns the most recent observation, the first row of the table.
func (c *Client) GetLastUpdate(ctx context.Context, code StationCode, forceRefresh bool) (ObservationRow, error) {
	rows, err := c.GetStationTable(ctx, code, forceRefresh)
	if err != nil {
		return ObservationRow{}, err
	}
	return LastUpdate(rows)
}

// Entries reports every cached station, sorted by code. It never fetches.
func (c *Client) Entries() []EntryStatus {
	now := c.now()
	all := c.store.All()

	statuses := make([]EntryStatus, 0, len(all))
	for code, entry := range all {
		state := EntryFresh
		if c.expired(entry) {
			state = EntryStale
		}
		statuses = append(statuses, EntryStatus{
			Code:      code,
			FetchedAt: entry.FetchedAt,
			Age:       now.Sub(entry.FetchedAt),
			State:     state,
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Code < statuses[j].Code
	})
	return statuses
}

func (c *Client) expired(entry CacheEntry) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(entry.FetchedAt) > c.ttl
}

func (c *Client) acquire(code StationCode) *codeLock {
	c.mu.Lock()
	l, ok := c.locks[code]
	if !ok {
		l = &codeLock{}
		c.locks[code] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return l
}

func (c *Client) release(code StationCode, l *codeLock) {
	l.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(c.locks, code)
	}
}
