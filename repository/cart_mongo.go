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

// mongoCartRepository stores one cart document per user. All mutations are
// single-document atomic operators, which mongo serializes per document:
// that is what keeps concurrent adds to the same line from losing updates.
type mongoCartRepository struct {
	collection *mongo.Collection
}

// NewMongoCartRepository returns a CartRepository backed by the carts
// collection.
func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{collection: db.Collection("carts")}
}

func (m *mongoCartRepository) GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

func (m *mongoCartRepository) AddLine(ctx context.Context, userID, productID primitive.ObjectID, variantID *primitive.ObjectID, quantity, maxStock int) (*models.CartLine, error) {
	now := time.Now()

	// Make sure the cart document exists. The document is never deleted
	// afterwards; clearing only empties the items array.
	ensure := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"items":      []models.CartLine{},
			"created_at": now,
		},
		"$set": bson.M{"updated_at": now},
	}
	if _, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userID}, ensure, options.Update().SetUpsert(true)); err != nil {
		return nil, fmt.Errorf("failed to ensure cart: %w", err)
	}

	if quantity > maxStock {
		quantity = maxStock
	}

	line := models.CartLine{
		ID:        primitive.NewObjectID(),
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		AddedAt:   now,
	}

	// Push the line only if no line for this (product, variant) pair exists
	// yet. The filter is re-evaluated under the document lock, so of two
	// concurrent first adds exactly one pushes and the other falls through
	// to the merge below.
	lineMatch := bson.M{"product_id": productID, "variant_id": variantID}
	pushFilter := bson.M{
		"user_id": userID,
		"items":   bson.M{"$not": bson.M{"$elemMatch": lineMatch}},
	}
	push := bson.M{
		"$push": bson.M{"items": line},
		"$set":  bson.M{"updated_at": now},
	}
	res, err := m.collection.UpdateOne(ctx, pushFilter, push)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}
	if res.MatchedCount == 1 {
		return &line, nil
	}

	// The line already exists: merge and clamp in one pipeline update, so
	// the stored quantity is never above maxStock at any point a reader
	// could observe. Interleavings still end at min(sum of deltas, maxStock).
	merge := bson.A{
		bson.M{"$set": bson.M{
			"items": bson.M{"$map": bson.M{
				"input": "$items",
				"as":    "it",
				"in": bson.M{"$cond": bson.A{
					bson.M{"$and": bson.A{
						bson.M{"$eq": bson.A{"$$it.product_id", productID}},
						bson.M{"$eq": bson.A{"$$it.variant_id", variantID}},
					}},
					bson.M{"$mergeObjects": bson.A{"$$it", bson.M{
						"quantity": bson.M{"$min": bson.A{
							bson.M{"$add": bson.A{"$$it.quantity", quantity}},
							maxStock,
						}},
					}}},
					"$$it",
				}},
			}},
			"updated_at": now,
		}},
	}
	if _, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userID}, merge); err != nil {
		return nil, fmt.Errorf("failed to merge cart line: %w", err)
	}

	cart, err := m.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	merged := cart.LineFor(productID, variantID)
	if merged == nil {
		return nil, ErrNotFound
	}
	return merged, nil
}

func (m *mongoCartRepository) FindLine(ctx context.Context, userID, lineID primitive.ObjectID) (*models.CartLine, error) {
	cart, err := m.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	line := cart.Line(lineID)
	if line == nil {
		return nil, ErrNotFound
	}
	return line, nil
}

func (m *mongoCartRepository) UpdateLineQuantity(ctx context.Context, userID, lineID primitive.ObjectID, quantity int) error {
	filter := bson.M{
		"user_id":   userID,
		"items._id": lineID,
	}
	update := bson.M{
		"$set": bson.M{
			"items.$[e].quantity": quantity,
			"updated_at":          time.Now(),
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"e._id": lineID}},
	})

	res, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoCartRepository) RemoveLine(ctx context.Context, userID, lineID primitive.ObjectID) error {
	// The line id is part of the filter: a cart that does not contain it
	// must not match, otherwise the $set alone would count as a
	// modification and a no-op removal would report success.
	filter := bson.M{
		"user_id":   userID,
		"items._id": lineID,
	}
	update := bson.M{
		"$pull": bson.M{"items": bson.M{"_id": lineID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoCartRepository) ClearLines(ctx context.Context, userID primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"items":      []models.CartLine{},
			"updated_at": time.Now(),
		},
	}
	// No cart document is fine: clearing an absent cart is a no-op.
	if _, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// EnsureCartIndexes creates the unique per-user index on carts.
func EnsureCartIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("carts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
