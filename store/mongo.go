package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Madhav-Gupta-28/olist-insights/models"
	"github.com/Madhav-Gupta-28/olist-insights/pipeline"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore runs pipelines on a MongoDB database. The driver's own
// timeouts and retries apply; nothing is retried here.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Aggregate(ctx context.Context, collection string, p pipeline.Pipeline) ([]bson.M, error) {
	opts := options.Aggregate().SetAllowDiskUse(true)
	cursor, err := s.db.Collection(collection).Aggregate(ctx, p.Mongo(), opts)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	results := []bson.M{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode %s results: %w", collection, err)
	}
	return results, nil
}

// Fingerprint joins the estimated document counts of the report
// collections. The data is loaded once and never updated in place, so counts
// change whenever a load adds documents.
func (s *MongoStore) Fingerprint(ctx context.Context) (string, error) {
	parts := make([]string, 0, len(models.Collections))
	for _, name := range models.Collections {
		n, err := s.db.Collection(name).EstimatedDocumentCount(ctx)
		if err != nil {
			return "", fmt.Errorf("count %s: %w", name, err)
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, n))
	}
	return strings.Join(parts, ","), nil
}

func (s *MongoStore) CollectionNames(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MongoStore) Documents(ctx context.Context, collection string) ([]bson.M, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := []bson.M{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return docs, nil
}
