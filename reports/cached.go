package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/cache"
	"github.com/Madhav-Gupta-28/olist-insights/metrics"
	"github.com/Madhav-Gupta-28/olist-insights/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "olist:report:"

// Cached memoizes another Source. Entries are keyed by query slug and, when
// available, the store fingerprint, so a reload of the data invalidates
// them. Cache failures are logged and fall through to the wrapped source.
type Cached struct {
	next        Source
	backend     cache.Backend
	fingerprint store.Fingerprinter
	ttl         time.Duration
	logger      *zap.Logger
}

func NewCached(next Source, backend cache.Backend, fp store.Fingerprinter, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, backend: backend, fingerprint: fp, ttl: ttl, logger: logger}
}

func (c *Cached) Catalog() Catalog { return c.next.Catalog() }

func (c *Cached) key(ctx context.Context, q *Query) (string, error) {
	key := cacheKeyPrefix + q.Slug
	if c.fingerprint == nil {
		return key, nil
	}
	fp, err := c.fingerprint.Fingerprint(ctx)
	if err != nil {
		return "", fmt.Errorf("fingerprint store: %w", err)
	}
	return key + ":" + fp, nil
}

func (c *Cached) Run(ctx context.Context, id string) (*Table, error) {
	q, err := c.Catalog().Find(id)
	if err != nil {
		return nil, err
	}
	key, err := c.key(ctx, q)
	if err != nil {
		return nil, err
	}

	raw, ok, err := c.backend.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("Report cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		var t Table
		if err := bson.Unmarshal(raw, &t); err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			normalizeRows(&t)
			return &t, nil
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	t, err := c.next.Run(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := bson.Marshal(t); err != nil {
		c.logger.Warn("Report cache encode failed", zap.String("key", key), zap.Error(err))
	} else if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("Report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return t, nil
}
