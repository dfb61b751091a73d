package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/okvee/aria2mon/internal/aria2"
	"github.com/okvee/aria2mon/internal/metrics"
	"github.com/okvee/aria2mon/internal/repo"
	"github.com/okvee/aria2mon/internal/sensor"
)

type fakeSource struct {
	stat aria2.GlobalStat
	err  error
}

func (f *fakeSource) GlobalStat(ctx context.Context) (aria2.GlobalStat, error) {
	return f.stat, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCycleUpdatesSensorsAndGauges(t *testing.T) {
	src := &fakeSource{stat: aria2.GlobalStat{DownloadSpeed: 2097152, NumActive: 2, NumWaiting: 1}}
	sensors := []*sensor.Sensor{
		sensor.New(sensor.KindDownloadSpeed, "Aria2c", src, nil, discard()),
		sensor.New(sensor.KindUnfinishedTasks, "Aria2c", src, nil, discard()),
	}
	store := repo.NewInMemorySampleRepo(8)
	p := New(discard(), time.Minute, sensors, src, store)

	p.cycle(context.Background())

	if v, ok := sensors[0].State(); !ok || v != 2.0 {
		t.Fatalf("download speed state = (%v, %v), want (2.0, true)", v, ok)
	}
	if got := testutil.ToFloat64(metrics.SensorState.WithLabelValues("download_speed")); got != 2.0 {
		t.Fatalf("sensor_state gauge = %v, want 2.0", got)
	}
	if got := testutil.ToFloat64(metrics.SensorState.WithLabelValues("unfinished_tasks")); got != 3 {
		t.Fatalf("unfinished gauge = %v, want 3", got)
	}

	samples, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("samples = %d, want 1 per cycle", len(samples))
	}
	if samples[0].DownloadSpeed != 2097152 || samples[0].Unfinished() != 3 {
		t.Fatalf("unexpected sample: %+v", samples[0])
	}
	if samples[0].ID == "" || samples[0].TakenAt.IsZero() {
		t.Fatalf("sample missing identity: %+v", samples[0])
	}
}

func TestCycleRecordFailureIsNonFatal(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	sensors := []*sensor.Sensor{sensor.New(sensor.KindActive, "Aria2c", src, nil, discard())}
	store := repo.NewInMemorySampleRepo(8)
	p := New(discard(), time.Minute, sensors, src, store)

	p.cycle(context.Background())

	samples, _ := store.Recent(context.Background(), 10)
	if len(samples) != 0 {
		t.Fatalf("samples = %d, want none when the daemon is down", len(samples))
	}
}

func TestCycleWithoutRepo(t *testing.T) {
	src := &fakeSource{stat: aria2.GlobalStat{NumActive: 1}}
	sensors := []*sensor.Sensor{sensor.New(sensor.KindActive, "Aria2c", src, nil, discard())}
	p := New(discard(), time.Minute, sensors, src, nil)

	// Must not panic with history disabled.
	p.cycle(context.Background())
	if v, ok := sensors[0].State(); !ok || v != 1 {
		t.Fatalf("state = (%v, %v), want (1, true)", v, ok)
	}
}

func TestRunStop(t *testing.T) {
	src := &fakeSource{stat: aria2.GlobalStat{NumActive: 1}}
	sensors := []*sensor.Sensor{sensor.New(sensor.KindActive, "Aria2c", src, nil, discard())}
	p := New(discard(), 10*time.Millisecond, sensors, src, nil)

	p.Run()
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := sensors[0].State(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sensor never updated")
		}
		time.Sleep(time.Millisecond)
	}
	p.Stop()
}
