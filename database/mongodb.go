package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DB is the shared database handle, opened once per process.
var DB *mongo.Database

const connectTimeout = 10 * time.Second

// ConnectDB opens the client and pings the server before returning.
func ConnectDB(ctx context.Context, uri, name string, logger *zap.Logger) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("olist-insights"))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	// Ping the database
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	DB = client.Database(name)
	logger.Info("Connected to MongoDB", zap.String("database", name))
	return DB, nil
}

// Disconnect closes the shared client, if any.
func Disconnect(ctx context.Context) error {
	if DB == nil {
		return nil
	}
	err := DB.Client().Disconnect(ctx)
	DB = nil
	return err
}
