package sensor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/okvee/aria2mon/internal/aria2"
)

type fakeSource struct {
	stat  aria2.GlobalStat
	err   error
	calls int
}

func (f *fakeSource) GlobalStat(ctx context.Context) (aria2.GlobalStat, error) {
	f.calls++
	return f.stat, f.err
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (string, error) {
	f.calls++
	return "1.36.0", f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSpeedRounding(t *testing.T) {
	tests := []struct {
		name        string
		bytesPerSec int64
		want        float64
	}{
		{name: "below threshold two decimals", bytesPerSec: 52428, want: 0.05},
		{name: "above threshold one decimal", bytesPerSec: 2097152, want: 2.0},
		{name: "zero", bytesPerSec: 0, want: 0},
		{name: "just under 0.1", bytesPerSec: 104857, want: 0.1},
		{name: "mid range", bytesPerSec: 1572864, want: 1.5},
		{name: "rounds up one decimal", bytesPerSec: 1620378, want: 1.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := megabytesPerSecond(tc.bytesPerSec); got != tc.want {
				t.Fatalf("megabytesPerSecond(%d) = %v, want %v", tc.bytesPerSec, got, tc.want)
			}
		})
	}
}

func TestUpdatePerKind(t *testing.T) {
	stat := aria2.GlobalStat{
		DownloadSpeed: 2097152,
		UploadSpeed:   52428,
		NumActive:     2,
		NumWaiting:    3,
	}
	tests := []struct {
		kind Kind
		want float64
	}{
		{KindDownloadSpeed, 2.0},
		{KindUploadSpeed, 0.05},
		{KindActive, 2},
		{KindUnfinishedTasks, 5},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			src := &fakeSource{stat: stat}
			s := New(tc.kind, "Aria2c", src, &fakeRefresher{}, discard())
			s.Update(context.Background())
			got, ok := s.State()
			if !ok {
				t.Fatal("state missing after update")
			}
			if got != tc.want {
				t.Fatalf("state = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestUpdateTriggersRefresh(t *testing.T) {
	src := &fakeSource{}
	ref := &fakeRefresher{}
	s := New(KindActive, "Aria2c", src, ref, discard())

	s.Update(context.Background())
	s.Update(context.Background())
	if ref.calls != 2 {
		t.Fatalf("refresher calls = %d, want 2", ref.calls)
	}
}

func TestUpdateKeepsStateOnReadFailure(t *testing.T) {
	src := &fakeSource{stat: aria2.GlobalStat{NumActive: 4}}
	s := New(KindActive, "Aria2c", src, &fakeRefresher{}, discard())

	s.Update(context.Background())
	if got, ok := s.State(); !ok || got != 4 {
		t.Fatalf("state = (%v, %v), want (4, true)", got, ok)
	}

	src.err = errors.New("connection refused")
	s.Update(context.Background())
	if got, ok := s.State(); !ok || got != 4 {
		t.Fatalf("state after failure = (%v, %v), want last value kept", got, ok)
	}
}

func TestUpdateRefreshFailureStillReads(t *testing.T) {
	src := &fakeSource{stat: aria2.GlobalStat{NumActive: 1}}
	ref := &fakeRefresher{err: errors.New("connection refused")}
	s := New(KindActive, "Aria2c", src, ref, discard())

	s.Update(context.Background())
	if got, ok := s.State(); !ok || got != 1 {
		t.Fatalf("state = (%v, %v), refresh failure must not block the read", got, ok)
	}
	if src.calls != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls)
	}
}

func TestStateAbsentBeforeFirstUpdate(t *testing.T) {
	s := New(KindDownloadSpeed, "Aria2c", &fakeSource{}, &fakeRefresher{}, discard())
	if _, ok := s.State(); ok {
		t.Fatal("state should be absent before first update")
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindActive, "Aria2c Active"},
		{KindDownloadSpeed, "Aria2c Down Speed"},
		{KindUploadSpeed, "Aria2c Up Speed"},
		{KindUnfinishedTasks, "Aria2c Unfinished Tasks"},
	}
	for _, tc := range tests {
		s := New(tc.kind, "Aria2c", &fakeSource{}, nil, discard())
		if got := s.Name(); got != tc.want {
			t.Fatalf("Name() = %q, want %q", got, tc.want)
		}
	}
}

func TestUnits(t *testing.T) {
	if KindDownloadSpeed.Unit() != "MB/s" || KindUploadSpeed.Unit() != "MB/s" {
		t.Fatal("speed sensors must report MB/s")
	}
	if KindActive.Unit() != "Tasks" || KindUnfinishedTasks.Unit() != "Tasks" {
		t.Fatal("count sensors must report Tasks")
	}
}

func TestParse(t *testing.T) {
	for _, k := range Kinds() {
		got, err := Parse(string(k))
		if err != nil || got != k {
			t.Fatalf("Parse(%q) = (%v, %v)", k, got, err)
		}
	}
	if _, err := Parse("disk_usage"); err == nil {
		t.Fatal("want error for unknown kind")
	}
}
