// Package poller drives the sensors on a fixed schedule, standing in for
// the host framework's update scheduler.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okvee/aria2mon/internal/aria2"
	"github.com/okvee/aria2mon/internal/data"
	"github.com/okvee/aria2mon/internal/metrics"
	"github.com/okvee/aria2mon/internal/repo"
	"github.com/okvee/aria2mon/internal/sensor"
)

// StatSource supplies the snapshot recorded into the history repo.
type StatSource interface {
	GlobalStat(ctx context.Context) (aria2.GlobalStat, error)
}

// Poller updates every sensor sequentially each interval, mirrors their
// states into the gauges and records one sample per cycle.
type Poller struct {
	log      *slog.Logger
	interval time.Duration
	sensors  []*sensor.Sensor
	src      StatSource
	repo     repo.SampleRepo

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a Poller. repo may be nil to disable history recording.
func New(log *slog.Logger, interval time.Duration, sensors []*sensor.Sensor, src StatSource, sampleRepo repo.SampleRepo) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		log:      log,
		interval: interval,
		sensors:  sensors,
		src:      src,
		repo:     sampleRepo,
	}
}

// Run starts the poll loop. The first cycle runs immediately.
func (p *Poller) Run() {
	p.stop = make(chan struct{})
	// Tag this run with a stable operation_id for correlation.
	opID := uuid.NewString()
	p.log = p.log.With("operation_id", opID)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		p.cycle(context.Background())
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.cycle(context.Background())
			}
		}
	}()
}

// Stop terminates the poll loop and waits for the current cycle.
func (p *Poller) Stop() {
	if p.stop != nil {
		close(p.stop)
		p.wg.Wait()
	}
}

func (p *Poller) cycle(ctx context.Context) {
	for _, s := range p.sensors {
		s.Update(ctx)
		if v, ok := s.State(); ok {
			metrics.SensorState.WithLabelValues(string(s.Kind())).Set(v)
		}
	}
	p.record(ctx)
	metrics.PollCycles.Inc()
}

func (p *Poller) record(ctx context.Context) {
	if p.repo == nil {
		return
	}
	stat, err := p.src.GlobalStat(ctx)
	if err != nil {
		p.log.Error("record sample failed", "err", err)
		return
	}
	s := data.Sample{
		ID:            uuid.NewString(),
		TakenAt:       time.Now().UTC(),
		DownloadSpeed: stat.DownloadSpeed,
		UploadSpeed:   stat.UploadSpeed,
		NumActive:     stat.NumActive,
		NumWaiting:    stat.NumWaiting,
		NumStopped:    stat.NumStopped,
	}
	if err := p.repo.Add(ctx, s); err != nil {
		p.log.Error("store sample failed", "err", err)
	}
}
