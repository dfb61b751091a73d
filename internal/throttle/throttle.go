// Package throttle spaces out repeated invocations of an operation,
// memoizing the last result for callers inside the minimum interval.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Func is the operation being throttled.
type Func func(ctx context.Context) (string, error)

// Refresher wraps fn behind a minimum interval: however many callers ask for
// a refresh inside one window, at most one invocation reaches fn. All
// sensors share a single Refresher, handed to them at construction.
type Refresher struct {
	interval time.Duration
	fn       Func
	now      func() time.Time

	mu     sync.Mutex
	last   time.Time // last actual invocation, successful or not
	cached string
	primed bool
}

// New creates a Refresher invoking fn at most once per interval.
func New(interval time.Duration, fn Func) *Refresher {
	return &Refresher{interval: interval, fn: fn, now: time.Now}
}

// Refresh invokes the wrapped operation, or returns the memoized result when
// called again inside the minimum interval. A failed invocation still opens
// a new window, matching one probe per interval against a down daemon.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() && r.now().Sub(r.last) < r.interval {
		return r.cached, nil
	}

	r.last = r.now()
	v, err := r.fn(ctx)
	if err != nil {
		return r.cached, err
	}
	r.cached = v
	r.primed = true
	return v, nil
}

// Invalidate clears the window so the next Refresh hits the operation.
func (r *Refresher) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = time.Time{}
}

// Cached returns the last successful result, if any.
func (r *Refresher) Cached() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached, r.primed
}
