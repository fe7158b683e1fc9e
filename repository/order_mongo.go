package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pfw-commerce/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOrderRepository struct {
	client *mongo.Client
	orders *mongo.Collection
	carts  *mongo.Collection
}

// NewMongoOrderRepository returns an OrderRepository backed by the orders
// collection. It also holds the carts collection because order creation and
// the cart clear commit in one transaction.
func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		client: db.Client(),
		orders: db.Collection("orders"),
		carts:  db.Collection("carts"),
	}
}

// CreateOrder inserts the order and empties the user's cart atomically.
// A unique-index collision on the order number surfaces as ErrDuplicate so
// the caller can regenerate and retry.
func (m *mongoOrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := m.orders.InsertOne(sc, order); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, ErrDuplicate
			}
			return nil, fmt.Errorf("failed to insert order: %w", err)
		}

		clear := bson.M{
			"$set": bson.M{
				"items":      []models.CartLine{},
				"updated_at": time.Now(),
			},
		}
		if _, err := m.carts.UpdateOne(sc, bson.M{"user_id": order.UserID}, clear); err != nil {
			return nil, fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("order transaction failed: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.orders.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	for cursor.Next(ctx) {
		var order models.Order
		if err := cursor.Decode(&order); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("order cursor error: %w", err)
	}
	return orders, nil
}

func (m *mongoOrderRepository) FindByID(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	// Scoping by user_id makes foreign orders indistinguishable from
	// missing ones.
	err := m.orders.FindOne(ctx, bson.M{"_id": orderID, "user_id": userID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

func (m *mongoOrderRepository) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status string) error {
	res, err := m.orders.UpdateOne(ctx, bson.M{"_id": orderID}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureOrderIndexes creates the unique order-number index that backs
// collision detection, plus the per-user listing index.
func EnsureOrderIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	if _, err := db.Collection("orders").Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}
