package weather

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StationCode identifies a BoM observation station, e.g. "IDW60901.94608".
// The part before the dot is the product, the part after it the station number.
type StationCode string

// Parts splits the code into its product and station identifiers.
func (c StationCode) Parts() (product, station string, err error) {
	parts := strings.Split(string(c), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidStationCode, string(c))
	}
	return parts[0], parts[1], nil
}

// Validate reports whether the code has both of its parts.
func (c StationCode) Validate() error {
	_, _, err := c.Parts()
	return err
}

// StationRecord is the decoded JSON document returned for one station.
// Numbers are kept as json.Number so fields pass through unmodified.
type StationRecord map[string]any

// ObservationRow is one timestamped observation within a station's series.
type ObservationRow struct {
	Time   time.Time      `json:"local_date_time_full"`
	Fields map[string]any `json:"fields"`
}

// Float returns the named field as a float64.
func (r ObservationRow) Float(name string) (float64, bool) {
	switch v := r.Fields[name].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// String returns the named field as a string. Numbers are formatted as received.
func (r ObservationRow) String(name string) (string, bool) {
	switch v := r.Fields[name].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// CacheEntry is the cached payload for one station code.
type CacheEntry struct {
	FetchedAt time.Time
	Record    StationRecord
}

// EntryState is the freshness of a cache entry at a point in time.
type EntryState string

const (
	EntryFresh EntryState = "fresh"
	EntryStale EntryState = "stale"
)

// EntryStatus describes one cached station without exposing its payload.
type EntryStatus struct {
	Code      StationCode   `json:"code"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Age       time.Duration `json:"ageNs"`
	State     EntryState    `json:"state"`
}
