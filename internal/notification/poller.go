package notification

import (
	"context"
	"errors"
	"time"

	"storefront-core/internal/apierr"
	"storefront-core/internal/logger"
	"storefront-core/internal/metrics"

	"go.uber.org/zap"
)

// Poller feeds the first page of notifications into an Aggregator on a fixed
// interval. It is the consistency backstop for the push channel.
type Poller struct {
	agg      *Aggregator
	client   Client
	interval time.Duration
	pageSize int
	metrics  *metrics.Registry
	now      func() time.Time
}

func NewPoller(agg *Aggregator, client Client, interval time.Duration, pageSize int, m *metrics.Registry) *Poller {
	if m == nil {
		m = &metrics.Registry{}
	}
	return &Poller{
		agg:      agg,
		client:   client,
		interval: interval,
		pageSize: pageSize,
		metrics:  m,
		now:      time.Now,
	}
}

func (p *Poller) PollOnce(ctx context.Context) error {
	started := p.now()
	page, err := p.client.List(ctx, 1, p.pageSize)
	if err != nil {
		p.metrics.PollFailures.Inc()
		logger.FromCtx(ctx).Warn("notification poll failed",
			zap.String("layer", "notification"),
			zap.String("method", "PollOnce"),
			zap.Error(err),
		)
		return err
	}

	p.agg.ApplySnapshot(page.Items, started)
	p.metrics.PollSnapshots.Inc()
	return nil
}

// Run polls immediately and then every interval until ctx is done. It stops
// early, returning the error, once the session is no longer authenticated.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.PollOnce(ctx); errors.Is(err, apierr.ErrUnauthenticated) {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
