package reports

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Warm runs every catalog query once, at most limit at a time, so a cached
// source answers the first menu selections from cache. Queries are
// read-only and independent, which makes the order irrelevant.
func Warm(ctx context.Context, src Source, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, q := range src.Catalog() {
		slug := q.Slug
		g.Go(func() error {
			_, err := src.Run(ctx, slug)
			return err
		})
	}
	return g.Wait()
}
