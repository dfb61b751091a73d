package repo

import (
	"context"
	"sync"

	"github.com/okvee/aria2mon/internal/data"
)

const defaultCapacity = 1024

// InMemorySampleRepo keeps the most recent samples in a bounded ring.
// It is the fallback when no database is configured.
type InMemorySampleRepo struct {
	mu      sync.RWMutex
	samples data.Samples
	cap     int
}

// NewInMemorySampleRepo creates a ring holding at most capacity samples.
// A non-positive capacity selects the default.
func NewInMemorySampleRepo(capacity int) *InMemorySampleRepo {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &InMemorySampleRepo{samples: make(data.Samples, 0, capacity), cap: capacity}
}

var _ SampleRepo = (*InMemorySampleRepo)(nil)

func (r *InMemorySampleRepo) Add(ctx context.Context, s data.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	if len(r.samples) > r.cap {
		r.samples = r.samples[len(r.samples)-r.cap:]
	}
	return nil
}

func (r *InMemorySampleRepo) Recent(ctx context.Context, limit int) (data.Samples, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.samples) {
		limit = len(r.samples)
	}
	out := make(data.Samples, 0, limit)
	for i := len(r.samples) - 1; i >= len(r.samples)-limit; i-- {
		out = append(out, r.samples[i])
	}
	return out, nil
}
