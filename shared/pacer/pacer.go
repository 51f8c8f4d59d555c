// Package pacer spaces consecutive upstream requests by a fixed interval.
package pacer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the gap kept between two items of a batch
const DefaultInterval = 250 * time.Millisecond

type Pacer struct {
	limiter *rate.Limiter
}

// New returns a pacer allowing one item per interval. Interval <= 0 disables spacing.
func New(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next item may start or ctx is done.
// The first call returns immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
