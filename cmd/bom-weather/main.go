package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/bom-weather/internal/api/http"
	"github.com/i474232898/bom-weather/internal/config"
	"github.com/i474232898/bom-weather/internal/logging"
	"github.com/i474232898/bom-weather/internal/scheduler"
	"github.com/i474232898/bom-weather/internal/store"
	"github.com/i474232898/bom-weather/internal/weather"
	"github.com/i474232898/bom-weather/internal/weather/providers"
)

const serviceName = "bom-weather"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, *cfg, version(), serviceName)
	slog.SetDefault(log)

	// Shared HTTP client for outbound BoM calls.
	httpClient := providers.NewHTTPClient(cfg.HTTPTimeout)
	bom := providers.NewBoMProvider(httpClient, cfg.BoMBaseURL)

	// The store belongs to this client only.
	client := weather.NewClient(bom, store.NewMemoryStore(), cfg.CacheAge, weather.WithLocation(cfg.StationTimezone))

	sched := scheduler.New(cfg.Stations, cfg.RefreshInterval, cfg.RefreshConcurrency, client)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	httpapi.RegisterRoutes(app, client)

	go func() {
		log.Info("starting http server", "port", cfg.Port, "cacheAge", cfg.CacheAge, "stations", len(cfg.Stations))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "err", err)
	}
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	infoMap := map[string]string{}
	for _, s := range buildInfo.Settings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if sha == "" {
		return "dev"
	}
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}
	return sha
}
