package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/matryer/is"

	"github.com/i474232898/bom-weather/internal/store"
	"github.com/i474232898/bom-weather/internal/weather"
)

type stubFetcher struct {
	calls  atomic.Int32
	record weather.StationRecord
	err    error
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) Fetch(ctx context.Context, code weather.StationCode) (weather.StationRecord, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func perthRecord() weather.StationRecord {
	return weather.StationRecord{
		"observations": map[string]any{
			"data": []any{
				map[string]any{"local_date_time_full": "20200101123000", "air_temp": json.Number("31.4")},
				map[string]any{"local_date_time_full": "20200101120000", "air_temp": json.Number("30.9")},
			},
		},
	}
}

func setupApp(fetcher weather.Fetcher) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	client := weather.NewClient(fetcher, store.NewMemoryStore(), 10*time.Minute)
	RegisterRoutes(app, client)
	return app
}

func doGet(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("response is not a JSON object: %s", body)
	}
	return resp.StatusCode, out
}

func TestGetStationLatest(t *testing.T) {
	is := is.New(t)
	app := setupApp(&stubFetcher{record: perthRecord()})

	status, body := doGet(t, app, "/api/v1/stations/IDW60901.94608/latest")
	is.Equal(status, http.StatusOK)
	is.Equal(body["local_date_time_full"], "2020-01-01T12:30:00Z")

	fields := body["fields"].(map[string]any)
	is.Equal(fields["air_temp"], 31.4)
}

func TestGetStationObservations(t *testing.T) {
	is := is.New(t)
	app := setupApp(&stubFetcher{record: perthRecord()})

	status, body := doGet(t, app, "/api/v1/stations/IDW60901.94608/observations")
	is.Equal(status, http.StatusOK)
	is.Equal(body["station"], "IDW60901.94608")
	is.Equal(body["count"], 2.0)
}

func TestGetStationRefreshQuery(t *testing.T) {
	is := is.New(t)
	fetcher := &stubFetcher{record: perthRecord()}
	app := setupApp(fetcher)

	for _, target := range []string{
		"/api/v1/stations/IDW60901.94608",
		"/api/v1/stations/IDW60901.94608",
		"/api/v1/stations/IDW60901.94608?refresh=true",
	} {
		status, _ := doGet(t, app, target)
		is.Equal(status, http.StatusOK)
	}

	is.Equal(fetcher.calls.Load(), int32(2)) // one cache hit, one forced refresh
}

func TestGetStationInvalidCode(t *testing.T) {
	is := is.New(t)
	fetcher := &stubFetcher{record: perthRecord()}
	app := setupApp(fetcher)

	status, body := doGet(t, app, "/api/v1/stations/IDW60901/latest")
	is.Equal(status, http.StatusBadRequest)
	is.Equal(body["error"], true)
	is.Equal(fetcher.calls.Load(), int32(0))
}

func TestGetStationErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		record weather.StationRecord
		err    error
		want   int
	}{
		{"network", nil, fmt.Errorf("%w: refused", weather.ErrNetwork), http.StatusBadGateway},
		{"decode", nil, fmt.Errorf("%w: not json", weather.ErrDecode), http.StatusBadGateway},
		{"malformed", weather.StationRecord{"observations": map[string]any{}}, nil, http.StatusBadGateway},
		{"empty", weather.StationRecord{"observations": map[string]any{"data": []any{}}}, nil, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			app := setupApp(&stubFetcher{record: tc.record, err: tc.err})

			status, body := doGet(t, app, "/api/v1/stations/IDW60901.94608/latest")
			is.Equal(status, tc.want)
			is.Equal(body["error"], true)
		})
	}
}

func TestGetCacheEntries(t *testing.T) {
	is := is.New(t)
	app := setupApp(&stubFetcher{record: perthRecord()})

	status, _ := doGet(t, app, "/api/v1/stations/IDW60901.94608")
	is.Equal(status, http.StatusOK)

	status, body := doGet(t, app, "/api/v1/cache")
	is.Equal(status, http.StatusOK)
	is.Equal(body["ttlSeconds"], 600.0)

	entries := body["entries"].([]any)
	is.Equal(len(entries), 1)
	entry := entries[0].(map[string]any)
	is.Equal(entry["code"], "IDW60901.94608")
	is.Equal(entry["state"], "fresh")
}

func TestGetStationKeepsEachCodeAcrossRequests(t *testing.T) {
	is := is.New(t)
	fetcher := &stubFetcher{record: perthRecord()}
	app := setupApp(fetcher)

	codes := []string{"IDW60901.94608", "IDN60901.94767"}
	for _, code := range codes {
		status, _ := doGet(t, app, "/api/v1/stations/"+code)
		is.Equal(status, http.StatusOK)
	}

	status, body := doGet(t, app, "/api/v1/cache")
	is.Equal(status, http.StatusOK)

	entries := body["entries"].([]any)
	is.Equal(len(entries), 2)
	is.Equal(entries[0].(map[string]any)["code"], "IDN60901.94767")
	is.Equal(entries[1].(map[string]any)["code"], "IDW60901.94608")

	for _, code := range codes {
		status, _ := doGet(t, app, "/api/v1/stations/"+code+"/latest")
		is.Equal(status, http.StatusOK)
	}
	is.Equal(fetcher.calls.Load(), int32(2)) // repeats are cache hits
}
