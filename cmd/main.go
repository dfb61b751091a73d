package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	v1 "github.com/okvee/aria2mon/api/v1"
	"github.com/okvee/aria2mon/internal/aria2"
	"github.com/okvee/aria2mon/internal/config"
	"github.com/okvee/aria2mon/internal/metrics"
	"github.com/okvee/aria2mon/internal/poller"
	"github.com/okvee/aria2mon/internal/repo"
	"github.com/okvee/aria2mon/internal/router"
	"github.com/okvee/aria2mon/internal/sensor"
	"github.com/okvee/aria2mon/internal/throttle"
)

func newLogger(cfg config.Config) *slog.Logger {
	var w io.Writer = os.Stdout
	if cfg.LogFile != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

// watchNotifications streams aria2 websocket events; each one invalidates
// the refresher so the next poll probes immediately. Best effort: if the
// daemon has no websocket endpoint we just log and move on.
func watchNotifications(ctx context.Context, logger *slog.Logger, client *aria2.Client, refresher *throttle.Refresher) {
	ch, err := client.Notifications(ctx)
	if err != nil {
		logger.Warn("aria2 notifications unavailable", "err", err)
		return
	}
	logger.Info("subscribed to aria2 notifications")
	for n := range ch {
		metrics.Notifications.WithLabelValues(n.Method).Inc()
		refresher.Invalidate()
	}
	logger.Warn("aria2 notification stream closed")
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	metrics.Register()

	client, err := aria2.New(cfg.Aria2)
	if err != nil {
		return err
	}
	client.SetLogger(logger)

	// Startup probe: an unreachable daemon aborts setup before anything
	// is registered.
	probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	ver, err := client.Version(probeCtx)
	cancel()
	if err != nil {
		logger.Error("connection to aria2 failed",
			"host", cfg.Aria2.Host, "port", cfg.Aria2.Port, "err", err)
		return fmt.Errorf("connect to aria2 at %s: %w", client.BaseURL(), err)
	}
	logger.Info("connected to aria2", "version", ver, "url", client.BaseURL().String())

	refresher := throttle.New(cfg.RefreshInterval, client.Version)

	sensors := make([]*sensor.Sensor, 0, len(cfg.Sensors))
	for _, kind := range cfg.Sensors {
		sensors = append(sensors, sensor.New(kind, cfg.Name, client, refresher, logger))
	}

	var store repo.SampleRepo
	if os.Getenv("POSTGRES_HOST") != "" {
		pg, err := repo.NewPostgresSampleRepoFromEnv()
		if err != nil {
			logger.Error("postgres unavailable, falling back to in-memory history", "err", err)
			store = repo.NewInMemorySampleRepo(cfg.HistorySize)
		} else {
			defer func() { _ = pg.Close() }()
			store = pg
			logger.Info("recording history to postgres")
		}
	} else {
		store = repo.NewInMemorySampleRepo(cfg.HistorySize)
	}

	p := poller.New(logger, cfg.PollInterval, sensors, client, store)
	p.Run()
	defer p.Stop()

	notifyCtx, stopNotify := context.WithCancel(context.Background())
	defer stopNotify()
	go watchNotifications(notifyCtx, logger, client, refresher)

	handler := v1.NewStatusHandler(logger, sensors, store)
	r := router.New(logger, handler, refresher, cfg.APIToken)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting aria2mon", "addr", server.Addr, "sensors", len(sensors))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		logger.Info("received terminate, graceful shutdown", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "aria2mon:", err)
		os.Exit(1)
	}
}
