// Package sensor exposes aria2 status metrics as named read-only values,
// one sensor per metric, refreshed by an external scheduler.
package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/okvee/aria2mon/internal/aria2"
)

// Kind selects which metric a sensor reads from the daemon.
type Kind string

const (
	KindActive          Kind = "active"
	KindDownloadSpeed   Kind = "download_speed"
	KindUploadSpeed     Kind = "upload_speed"
	KindUnfinishedTasks Kind = "unfinished_tasks"
)

// Kinds returns every supported sensor kind in display order.
func Kinds() []Kind {
	return []Kind{KindActive, KindDownloadSpeed, KindUploadSpeed, KindUnfinishedTasks}
}

// Parse maps a config key to a Kind.
func Parse(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindActive, KindDownloadSpeed, KindUploadSpeed, KindUnfinishedTasks:
		return k, nil
	}
	return "", fmt.Errorf("unknown sensor kind %q", s)
}

// Label returns the human-readable part of the sensor name.
func (k Kind) Label() string {
	switch k {
	case KindActive:
		return "Active"
	case KindDownloadSpeed:
		return "Down Speed"
	case KindUploadSpeed:
		return "Up Speed"
	case KindUnfinishedTasks:
		return "Unfinished Tasks"
	}
	return string(k)
}

// Unit returns the unit of measurement for values of this kind.
func (k Kind) Unit() string {
	switch k {
	case KindDownloadSpeed, KindUploadSpeed:
		return "MB/s"
	default:
		return "Tasks"
	}
}

// StatSource supplies the global transfer statistics a sensor reads.
type StatSource interface {
	GlobalStat(ctx context.Context) (aria2.GlobalStat, error)
}

// Refresher is the shared throttled liveness probe triggered before each
// read. Its result is ignored; it only primes the connection.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Sensor is one named metric. Its state starts out absent and afterwards
// always holds the last successfully read value.
type Sensor struct {
	kind       Kind
	clientName string
	src        StatSource
	refresher  Refresher
	log        *slog.Logger

	mu    sync.RWMutex
	state *float64
}

// New creates a sensor of the given kind reading from src. All sensors of
// one daemon share the same src and refresher.
func New(kind Kind, clientName string, src StatSource, refresher Refresher, log *slog.Logger) *Sensor {
	if log == nil {
		log = slog.Default()
	}
	return &Sensor{
		kind:       kind,
		clientName: clientName,
		src:        src,
		refresher:  refresher,
		log:        log.With("sensor", string(kind)),
	}
}

// Kind returns the sensor's metric kind.
func (s *Sensor) Kind() Kind { return s.kind }

// Name returns the display name, "{client name} {label}".
func (s *Sensor) Name() string {
	return s.clientName + " " + s.kind.Label()
}

// Unit returns the sensor's unit of measurement.
func (s *Sensor) Unit() string { return s.kind.Unit() }

// State returns the last read value. ok is false until the first
// successful update.
func (s *Sensor) State() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return 0, false
	}
	return *s.state, true
}

// Update triggers the shared throttled refresh, then reads this sensor's
// metric. Any failure keeps the previous state and is logged.
func (s *Sensor) Update(ctx context.Context) {
	if s.refresher != nil {
		if _, err := s.refresher.Refresh(ctx); err != nil {
			s.log.Error("aria2 refresh failed", "err", err)
		}
	}

	stat, err := s.src.GlobalStat(ctx)
	if err != nil {
		s.log.Error("read global stat failed", "err", err)
		return
	}

	var v float64
	switch s.kind {
	case KindDownloadSpeed:
		v = megabytesPerSecond(stat.DownloadSpeed)
	case KindUploadSpeed:
		v = megabytesPerSecond(stat.UploadSpeed)
	case KindActive:
		v = float64(stat.NumActive)
	case KindUnfinishedTasks:
		v = float64(stat.Unfinished())
	}

	s.mu.Lock()
	s.state = &v
	s.mu.Unlock()
}

// megabytesPerSecond converts a raw bytes/sec reading to MB/s, rounded to
// two decimals below 0.1 MB/s and one decimal above.
func megabytesPerSecond(bytesPerSec int64) float64 {
	mb := float64(bytesPerSec) / (1 << 20)
	if mb < 0.1 {
		return math.Round(mb*100) / 100
	}
	return math.Round(mb*10) / 10
}
