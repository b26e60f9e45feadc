// Package store runs aggregation pipelines against a document store.
package store

import (
	"context"

	"github.com/Madhav-Gupta-28/olist-insights/pipeline"
	"go.mongodb.org/mongo-driver/bson"
)

// Store executes a pipeline over one base collection and returns the raw
// result documents.
type Store interface {
	Aggregate(ctx context.Context, collection string, p pipeline.Pipeline) ([]bson.M, error)
}

// Fingerprinter is implemented by stores that can cheaply tell whether
// their content changed. Equal fingerprints mean cached results are valid.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (string, error)
}

// Source lists collections and their documents, for exports.
type Source interface {
	CollectionNames(ctx context.Context) ([]string, error)
	Documents(ctx context.Context, collection string) ([]bson.M, error)
}
