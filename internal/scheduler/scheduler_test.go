package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/i474232898/bom-weather/internal/weather"
)

type recordingGetter struct {
	mu     sync.Mutex
	calls  map[weather.StationCode]int
	forced bool
	fail   map[weather.StationCode]bool
}

func (g *recordingGetter) GetStation(ctx context.Context, code weather.StationCode, forceRefresh bool) (weather.StationRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls == nil {
		g.calls = map[weather.StationCode]int{}
	}
	g.calls[code]++
	g.forced = g.forced || forceRefresh

	if g.fail[code] {
		return nil, errors.New("upstream down")
	}
	return weather.StationRecord{}, nil
}

func TestRefreshWarmsEveryStation(t *testing.T) {
	is := is.New(t)
	getter := &recordingGetter{fail: map[weather.StationCode]bool{"IDN60901.94767": true}}
	stations := []weather.StationCode{"IDW60901.94608", "IDN60901.94767", "IDV60901.95936"}

	s := New(stations, time.Minute, 2, getter)
	n := s.Refresh(context.Background())

	is.Equal(n, 2) // one station fails, the others still refresh
	is.Equal(len(getter.calls), 3)
	for _, code := range stations {
		is.Equal(getter.calls[code], 1)
	}
	is.True(!getter.forced) // warm-ups respect the cache TTL
}

func TestStartWithoutStationsIsNoop(t *testing.T) {
	is := is.New(t)
	getter := &recordingGetter{}

	s := New(nil, time.Minute, 1, getter)
	is.NoErr(s.Start())
	s.Stop()

	is.Equal(len(getter.calls), 0)
}

func TestStartRunsImmediately(t *testing.T) {
	is := is.New(t)
	getter := &recordingGetter{}

	s := New([]weather.StationCode{"IDW60901.94608"}, time.Hour, 1, getter)
	is.NoErr(s.Start())
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		getter.mu.Lock()
		n := getter.calls["IDW60901.94608"]
		getter.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("scheduler did not refresh the station after start")
}
