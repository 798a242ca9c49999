package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/agroregistry/internal/reliability/circuitbreaker"
)

// guardedCache wraps a ViewCache with a circuit breaker so a sick
// Redis does not slow every dashboard request: while the circuit is
// open, lookups miss and writes are skipped, and the view is served
// straight from Postgres.
type guardedCache struct {
	inner   ViewCache
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewGuardedCache wraps cache with fast-fail behavior.
func NewGuardedCache(inner ViewCache, breaker *circuitbreaker.CircuitBreaker, logger *slog.Logger) ViewCache {
	if logger == nil {
		logger = slog.Default()
	}
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("view cache circuit state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &guardedCache{inner: inner, breaker: breaker, logger: logger}
}

func (g *guardedCache) Get(ctx context.Context, key string) (string, bool, error) {
	if !g.breaker.AllowRequest() {
		return "", false, nil
	}
	value, ok, err := g.inner.Get(ctx, key)
	if err != nil {
		g.breaker.RecordFailure()
		return "", false, err
	}
	g.breaker.RecordSuccess()
	return value, ok, nil
}

func (g *guardedCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !g.breaker.AllowRequest() {
		return nil
	}
	if err := g.inner.Set(ctx, key, value, ttl); err != nil {
		g.breaker.RecordFailure()
		return err
	}
	g.breaker.RecordSuccess()
	return nil
}
