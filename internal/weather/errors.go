package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStationCode is returned when a station code is not "<product>.<station>".
	ErrInvalidStationCode = errors.New("invalid station code")
	// ErrNetwork is returned when the upstream request fails or answers with a non-2xx status.
	ErrNetwork = errors.New("network error")
	// ErrDecode is returned when the response body is not a JSON object.
	ErrDecode = errors.New("decode error")
	// ErrMalformedRecord is returned when observations.data is missing or has the wrong shape.
	ErrMalformedRecord = errors.New("malformed station record")
	// ErrTimestampParse is returned when a row's local_date_time_full cannot be parsed.
	ErrTimestampParse = errors.New("timestamp parse error")
	// ErrEmptyRecord is returned when a station has no observation rows.
	ErrEmptyRecord = errors.New("station record has no observations")
)

// StatusError carries the status of a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
