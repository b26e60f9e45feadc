package database

import (
	"context"
	"fmt"

	"github.com/Madhav-Gupta-28/olist-insights/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Indexes the report pipelines benefit from. Joins go through _id on the
// foreign side, which MongoDB always indexes.
var Indexes = map[string][]mongo.IndexModel{
	models.CollectionOrders: {
		{Keys: bson.D{{Key: "customer_id", Value: 1}}, Options: options.Index().SetName("customer_id_1")},
		{Keys: bson.D{{Key: "order_purchase_timestamp", Value: 1}}, Options: options.Index().SetName("order_purchase_timestamp_1")},
		{Keys: bson.D{{Key: "order_items.product_id", Value: 1}}, Options: options.Index().SetName("order_items_product_id_1")},
		{Keys: bson.D{{Key: "order_items.seller_id", Value: 1}}, Options: options.Index().SetName("order_items_seller_id_1")},
	},
	models.CollectionCustomers: {
		{Keys: bson.D{{Key: "customer_unique_id", Value: 1}}, Options: options.Index().SetName("customer_unique_id_1")},
		{Keys: bson.D{{Key: "customer_state", Value: 1}}, Options: options.Index().SetName("customer_state_1")},
	},
	models.CollectionProducts: {
		{Keys: bson.D{{Key: "product_category_name_english", Value: 1}}, Options: options.Index().SetName("product_category_name_english_1")},
	},
}

// EnsureIndexes creates the indexes above. Creating an existing index is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, name := range models.Collections {
		idx := Indexes[name]
		if len(idx) == 0 {
			continue
		}
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
