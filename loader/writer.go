package loader

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Writer receives batches of documents. store.MemoryStore satisfies it.
type Writer interface {
	InsertMany(ctx context.Context, collection string, docs []interface{}) error
}

// MongoWriter inserts batches with ordered bulk inserts.
type MongoWriter struct {
	db *mongo.Database
}

func NewMongoWriter(db *mongo.Database) *MongoWriter {
	return &MongoWriter{db: db}
}

func (w *MongoWriter) InsertMany(ctx context.Context, collection string, docs []interface{}) error {
	_, err := w.db.Collection(collection).InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

// insertedBefore reports how many documents of a failed ordered batch were
// written before the first error.
func insertedBefore(err error) int {
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
		return bwe.WriteErrors[0].Index
	}
	return 0
}
