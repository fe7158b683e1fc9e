package repository

import (
	"context"
	"fmt"
	"time"

	"pfw-commerce/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository returns an ActivityRepository over the
// product_activity collection.
func NewMongoActivityRepository(db *mongo.Database) ActivityRepository {
	return &mongoActivityRepository{collection: db.Collection("product_activity")}
}

func (m *mongoActivityRepository) Record(ctx context.Context, productID primitive.ObjectID, eventType string) error {
	event := models.ProductActivity{
		ProductID: productID,
		EventType: eventType,
		CreatedAt: time.Now(),
	}
	if _, err := m.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// TopProducts scores recent activity per product: a cart add counts three
// times a view.
func (m *mongoActivityRepository) TopProducts(ctx context.Context, since time.Time, limit int) ([]ProductScore, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$product_id"},
			{Key: "score", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$event_type", models.ActivityCartAdd}}},
				3,
				1,
			}}}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate activity: %w", err)
	}
	defer cursor.Close(ctx)

	var scores []ProductScore
	for cursor.Next(ctx) {
		var score ProductScore
		if err := cursor.Decode(&score); err != nil {
			return nil, fmt.Errorf("failed to decode score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("activity cursor error: %w", err)
	}
	return scores, nil
}

// EnsureActivityIndexes creates the aggregation index used by TopProducts.
func EnsureActivityIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("product_activity").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "product_id", Value: 1},
			{Key: "event_type", Value: 1},
			{Key: "created_at", Value: 1},
		},
		Options: options.Index(),
	})
	if err != nil {
		return fmt.Errorf("failed to create activity indexes: %w", err)
	}
	return nil
}
