package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/metrics"
	"github.com/Madhav-Gupta-28/olist-insights/store"
	"go.uber.org/zap"
)

// Source produces report tables. Runner and Cached implement it.
type Source interface {
	Catalog() Catalog
	Run(ctx context.Context, id string) (*Table, error)
}

// Runner executes catalog queries against a store, one call at a time per
// caller. Failures of the store are returned as is, wrapped with the query.
type Runner struct {
	store   store.Store
	catalog Catalog
	logger  *zap.Logger
}

func NewRunner(s store.Store, catalog Catalog, logger *zap.Logger) *Runner {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{store: s, catalog: catalog, logger: logger}
}

func (r *Runner) Catalog() Catalog { return r.catalog }

func (r *Runner) Run(ctx context.Context, id string) (*Table, error) {
	q, err := r.catalog.Find(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	docs, err := r.store.Aggregate(ctx, q.Collection, q.Pipeline)
	elapsed := time.Since(start)
	metrics.QueryDuration.WithLabelValues(q.Slug).Observe(elapsed.Seconds())
	if err != nil {
		metrics.QueryErrors.WithLabelValues(q.Slug).Inc()
		r.logger.Error("Report query failed", zap.String("query", q.Slug), zap.Error(err))
		return nil, fmt.Errorf("run %s: %w", q.Slug, err)
	}

	table, err := Shape(q, docs)
	if err != nil {
		metrics.QueryErrors.WithLabelValues(q.Slug).Inc()
		r.logger.Error("Report result rejected", zap.String("query", q.Slug), zap.Error(err))
		return nil, err
	}

	metrics.QueryRows.WithLabelValues(q.Slug).Set(float64(len(table.Rows)))
	r.logger.Debug("Report query finished",
		zap.String("query", q.Slug),
		zap.Int("rows", len(table.Rows)),
		zap.Duration("took", elapsed))
	return table, nil
}
