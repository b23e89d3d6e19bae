package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/bom-weather/internal/common"
	"github.com/i474232898/bom-weather/internal/weather"
)

type AppConfig struct {
	// CacheAge is how long a fetched station stays fresh (<= 0 = always refresh).
	CacheAge time.Duration

	BoMBaseURL  string
	HTTPTimeout time.Duration

	// Stations warmed by the scheduler.
	Stations []weather.StationCode

	// RefreshInterval controls how often the scheduler warms Stations.
	RefreshInterval    time.Duration
	RefreshConcurrency int

	// StationTimezone is used to read local_date_time_full.
	StationTimezone *time.Location

	Port     string
	LogLevel slog.Level
	AppEnv   string
}

// Load reads configuration from environment with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	cfg := &AppConfig{}

	cacheAge, err := strconv.Atoi(getenvDefault("CACHE_AGE_SECONDS", strconv.Itoa(int(weather.DefaultCacheAge/time.Second))))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_AGE_SECONDS: %w", err)
	}
	cfg.CacheAge = time.Duration(cacheAge) * time.Second
	cfg.BoMBaseURL = getenvDefault("BOM_BASE_URL", "http://www.bom.gov.au/fwo")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	interval, err := time.ParseDuration(getenvDefault("REFRESH_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: must be positive, got %s", interval)
	}
	cfg.RefreshInterval = interval
	cfg.RefreshConcurrency = getenvInt("REFRESH_CONCURRENCY", 4)

	stations, err := loadStations()
	if err != nil {
		return nil, err
	}
	cfg.Stations = stations

	loc, err := time.LoadLocation(getenvDefault("STATION_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATION_TIMEZONE: %w", err)
	}
	cfg.StationTimezone = loc

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppEnv = getenvDefault("APP_ENV", "production")

	var level slog.Level
	if err := level.UnmarshalText([]byte(getenvDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

func loadStations() ([]weather.StationCode, error) {
	var codes []weather.StationCode
	for _, s := range common.SplitList(os.Getenv("STATIONS")) {
		code := weather.StationCode(s)
		if err := code.Validate(); err != nil {
			return nil, fmt.Errorf("invalid STATIONS: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
