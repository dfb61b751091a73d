// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okvee/aria2mon/internal/aria2"
	"github.com/okvee/aria2mon/internal/sensor"
)

const (
	defaultName            = "Aria2c"
	defaultListenAddr      = ":9290"
	defaultPollInterval    = 30 * time.Second
	defaultRefreshInterval = time.Second
	defaultHistorySize     = 1024
)

// Config is the full service configuration. Built once at startup and
// treated as immutable afterwards.
type Config struct {
	Aria2 aria2.Config

	// Name prefixes every sensor's display name.
	Name string
	// Sensors is the monitored subset; defaults to every kind.
	Sensors []sensor.Kind

	PollInterval time.Duration
	// RefreshInterval is the minimum spacing between liveness probes.
	RefreshInterval time.Duration

	ListenAddr  string
	APIToken    string
	HistorySize int

	LogFile  string
	LogLevel slog.Level
}

// FromEnv builds a Config from ARIA2MON_* environment variables.
// ARIA2MON_HOST is required; everything else has a default.
func FromEnv() (Config, error) {
	cfg := Config{
		Name:            defaultName,
		Sensors:         sensor.Kinds(),
		PollInterval:    defaultPollInterval,
		RefreshInterval: defaultRefreshInterval,
		ListenAddr:      defaultListenAddr,
		HistorySize:     defaultHistorySize,
		APIToken:        os.Getenv("ARIA2MON_API_TOKEN"),
		LogFile:         os.Getenv("ARIA2MON_LOG_FILE"),
	}

	cfg.Aria2.Host = os.Getenv("ARIA2MON_HOST")
	if cfg.Aria2.Host == "" {
		return Config{}, fmt.Errorf("config: ARIA2MON_HOST is required")
	}
	cfg.Aria2.Secret = os.Getenv("ARIA2MON_SECRET")

	if v := os.Getenv("ARIA2MON_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid ARIA2MON_PORT %q", v)
		}
		cfg.Aria2.Port = port
	}

	if v := os.Getenv("ARIA2MON_NAME"); v != "" {
		cfg.Name = v
	}

	if v := os.Getenv("ARIA2MON_SENSORS"); v != "" {
		kinds := make([]sensor.Kind, 0, 4)
		for _, part := range strings.Split(v, ",") {
			k, err := sensor.Parse(strings.TrimSpace(part))
			if err != nil {
				return Config{}, fmt.Errorf("config: %w", err)
			}
			kinds = append(kinds, k)
		}
		cfg.Sensors = kinds
	}

	var err error
	if cfg.PollInterval, err = durationEnv("ARIA2MON_POLL_INTERVAL", defaultPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.RefreshInterval, err = durationEnv("ARIA2MON_REFRESH_INTERVAL", defaultRefreshInterval); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("ARIA2MON_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("ARIA2MON_HISTORY_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("config: invalid ARIA2MON_HISTORY_SIZE %q", v)
		}
		cfg.HistorySize = n
	}

	switch strings.ToLower(os.Getenv("ARIA2MON_LOG_LEVEL")) {
	case "", "info":
		cfg.LogLevel = slog.LevelInfo
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return Config{}, fmt.Errorf("config: invalid ARIA2MON_LOG_LEVEL %q", os.Getenv("ARIA2MON_LOG_LEVEL"))
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: invalid %s %q", key, v)
	}
	return d, nil
}
