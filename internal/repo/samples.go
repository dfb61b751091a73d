// Package repo stores the history of polled stat samples.
package repo

import (
	"context"

	"github.com/okvee/aria2mon/internal/data"
)

// SampleRepo records poll samples and serves recent history.
type SampleRepo interface {
	Add(ctx context.Context, s data.Sample) error
	// Recent returns up to limit samples, newest first.
	Recent(ctx context.Context, limit int) (data.Samples, error)
}
