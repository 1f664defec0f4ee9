package graph

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/resilience"
)

// ResilientPort rate-limits, retries and circuit-breaks the queries it
// forwards. Only opening a cursor is protected; errors while streaming rows
// surface through Cursor.Err.
type ResilientPort struct {
	next    Port
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewResilientPort(next Port, cfg config.GraphConfig, m *metrics.Metrics) *ResilientPort {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &ResilientPort{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		breaker: resilience.NewCircuitBreaker("graph", resilience.CircuitBreakerConfig{
			FailureThreshold:    cfg.BreakerFailures,
			ResetTimeout:        cfg.BreakerCoolDown,
			HalfOpenMaxRequests: cfg.BreakerHalfOpens,
		}),
		retry: resilience.RetryConfig{
			MaxAttempts:  cfg.RetryAttempts + 1,
			InitialDelay: cfg.RetryDelay,
		},
		metrics: m,
		logger:  slog.Default().With("component", "graph-port"),
	}
}

func (p *ResilientPort) Execute(ctx context.Context, query string) (Cursor, error) {
	shape := ShapeFrom(ctx)
	var cursor Cursor
	err := resilience.Retry(ctx, "graph-query", p.retry, func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return resilience.Permanent(err)
		}
		err := p.breaker.Execute(func() error {
			c, err := p.next.Execute(ctx, query)
			if err != nil {
				return err
			}
			cursor = c
			return nil
		})
		if errors.Is(err, resilience.ErrCircuitOpen) || ctx.Err() != nil {
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		p.metrics.ObserveQuery(string(shape), "error")
		p.logger.Warn("graph query failed",
			"shape", shape,
			"breaker", p.breaker.State(),
			"error", err,
		)
		return nil, err
	}
	p.metrics.ObserveQuery(string(shape), "ok")
	return cursor, nil
}

// BreakerState exposes the circuit state for health reporting.
func (p *ResilientPort) BreakerState() string {
	return p.breaker.State()
}
