// Package marketdata provides a read-through cache of quotes and
// instrument metadata keyed by symbol.
package marketdata

import (
	"context"
	"sync"
	"time"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/models"
	"mt5-guard/internal/venue"
)

// Cache holds the last-known quote and instrument per symbol, refreshed
// from the gateway on demand. Concurrent refreshes are idempotent; at
// worst a quote is fetched twice.
type Cache struct {
	gateway  venue.Gateway
	quoteTTL time.Duration
	now      func() time.Time

	mu          sync.RWMutex
	quotes      map[string]models.Quote
	instruments map[string]models.Instrument
}

// Option configures a Cache.
type Option func(*Cache)

// WithQuoteTTL sets the maximum age a cached quote is served without a
// refresh.
func WithQuoteTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.quoteTTL = ttl }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a cache over the given gateway.
func NewCache(gw venue.Gateway, opts ...Option) *Cache {
	c := &Cache{
		gateway:     gw,
		quoteTTL:    2 * time.Second,
		now:         time.Now,
		quotes:      make(map[string]models.Quote),
		instruments: make(map[string]models.Instrument),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote returns the cached quote when fresh enough, refreshing from the
// gateway otherwise.
func (c *Cache) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	c.mu.RLock()
	q, ok := c.quotes[symbol]
	c.mu.RUnlock()
	if ok && c.now().Sub(q.Time) <= c.quoteTTL {
		return &q, nil
	}

	fresh, err := c.gateway.GetQuote(ctx, symbol)
	if err != nil {
		// Serve the stale quote only when the venue briefly flaked, never
		// when the symbol is unknown.
		if ok && errors.IsTransient(err) {
			return &q, nil
		}
		return nil, errors.Wrapf(err, "refreshing quote for %s", symbol)
	}

	c.Put(*fresh)
	return fresh, nil
}

// Instrument returns cached instrument metadata, fetching once per symbol.
// Instrument properties change rarely; Invalidate forces a refetch.
func (c *Cache) Instrument(ctx context.Context, symbol string) (*models.Instrument, error) {
	c.mu.RLock()
	inst, ok := c.instruments[symbol]
	c.mu.RUnlock()
	if ok {
		return &inst, nil
	}

	fresh, err := c.gateway.GetInstrument(ctx, symbol)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching instrument %s", symbol)
	}

	c.mu.Lock()
	c.instruments[symbol] = *fresh
	c.mu.Unlock()
	return fresh, nil
}

// Put stores a quote pushed from outside the read path, e.g. a streaming
// feed. Older quotes never overwrite newer ones.
func (c *Cache) Put(q models.Quote) {
	if q.Time.IsZero() {
		q.Time = c.now()
	}
	c.mu.Lock()
	if have, ok := c.quotes[q.Symbol]; !ok || !q.Time.Before(have.Time) {
		c.quotes[q.Symbol] = q
	}
	c.mu.Unlock()
}

// Invalidate drops cached state for a symbol.
func (c *Cache) Invalidate(symbol string) {
	c.mu.Lock()
	delete(c.quotes, symbol)
	delete(c.instruments, symbol)
	c.mu.Unlock()
}
