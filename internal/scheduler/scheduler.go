package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/bom-weather/internal/weather"
)

// StationGetter is the part of weather.Client the scheduler needs.
type StationGetter interface {
	GetStation(ctx context.Context, code weather.StationCode, forceRefresh bool) (weather.StationRecord, error)
}

// Scheduler periodically warms the station cache for configured stations.
// Warm-ups go through the normal cache decision, so fresh entries are not refetched.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	client      StationGetter
	stations    []weather.StationCode
	interval    time.Duration
	concurrency int
	timeout     time.Duration
}

// New creates a new Scheduler.
func New(stations []weather.StationCode, interval time.Duration, concurrency int, client StationGetter) *Scheduler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scheduler{
		scheduler:   gocron.NewScheduler(time.UTC),
		client:      client,
		stations:    stations,
		interval:    interval,
		concurrency: concurrency,
		timeout:     30 * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.stations) == 0 {
		slog.Info("scheduler: no stations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = weather.DefaultCacheAge
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		s.Refresh(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Refresh warms every configured station once and returns how many succeeded.
// Failures are logged; one station failing does not stop the others.
func (s *Scheduler) Refresh(ctx context.Context) int {
	runID := uuid.NewString()
	slog.InfoContext(ctx, "scheduler: running station refresh job", "run", runID, "stations", len(s.stations))

	var ok atomic.Int32
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, code := range s.stations {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if _, err := s.client.GetStation(ctx, code, false); err != nil {
				slog.WarnContext(ctx, "scheduler: refresh failed", "run", runID, "code", code, "err", err)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	n := int(ok.Load())
	slog.InfoContext(ctx, "scheduler: completed station refresh job", "run", runID, "ok", n, "failed", len(s.stations)-n)
	return n
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
