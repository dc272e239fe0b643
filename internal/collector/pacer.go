package collector

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces out requests to a remote source. The first Wait returns
// immediately; later ones wait until every has elapsed since the previous.
type pacer struct {
	limiter *rate.Limiter
}

func newPacer(every time.Duration) *pacer {
	if every <= 0 {
		return &pacer{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &pacer{limiter: rate.NewLimiter(rate.Every(every), 1)}
}

func (p *pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
