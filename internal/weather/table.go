package weather

import (
	"fmt"
	"strings"
	"time"
)

const timestampField = "local_date_time_full"

// timestampLayouts are tried in order. Slash dates are day-first, as BoM publishes them.
var timestampLayouts = []string{
	"20060102150405",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

// StationTable turns observations.data into rows, in the order the upstream sent them.
// BoM lists the most recent observation first; the order is not re-checked here.
// Timestamps without a zone are read in loc (UTC when nil).
func StationTable(record StationRecord, loc *time.Location) ([]ObservationRow, error) {
	if loc == nil {
		loc = time.UTC
	}

	observations, ok := record["observations"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing observations", ErrMalformedRecord)
	}
	data, ok := observations["data"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing observations.data", ErrMalformedRecord)
	}

	rows := make([]ObservationRow, 0, len(data))
	for i, item := range data {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: observations.data[%d] is not an object", ErrMalformedRecord, i)
		}

		raw, ok := obj[timestampField].(string)
		if !ok {
			return nil, fmt.Errorf("%w: observations.data[%d] has no %s", ErrMalformedRecord, i, timestampField)
		}
		ts, err := ParseTimestamp(raw, loc)
		if err != nil {
			return nil, fmt.Errorf("observations.data[%d]: %w", i, err)
		}

		fields := make(map[string]any, len(obj))
		for k, v := range obj {
			if k == timestampField {
				continue
			}
			fields[k] = v
		}

		rows = append(rows, ObservationRow{Time: ts, Fields: fields})
	}

	return rows, nil
}

// LastUpdate returns the first row of a table.
func LastUpdate(rows []ObservationRow) (ObservationRow, error) {
	if len(rows) == 0 {
		return ObservationRow{}, ErrEmptyRecord
	}
	return rows[0], nil
}

// ParseTimestamp parses the textual date-times found in station records.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampParse, s)
}
