package repository

import (
	"context"
	"errors"
	"fmt"

	"pfw-commerce/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCatalogRepository struct {
	products   *mongo.Collection
	variants   *mongo.Collection
	categories *mongo.Collection
}

// NewMongoCatalogRepository returns a CatalogRepository over the products,
// variants and categories collections.
func NewMongoCatalogRepository(db *mongo.Database) CatalogRepository {
	return &mongoCatalogRepository{
		products:   db.Collection("products"),
		variants:   db.Collection("variants"),
		categories: db.Collection("categories"),
	}
}

func (m *mongoCatalogRepository) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := m.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (m *mongoCatalogRepository) GetVariant(ctx context.Context, id primitive.ObjectID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := m.variants.FindOne(ctx, bson.M{"_id": id}).Decode(&variant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return &variant, nil
}

func (m *mongoCatalogRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["is_active"] = true
	}
	if filter.CategorySlug != "" {
		var category models.Category
		err := m.categories.FindOne(ctx, bson.M{"slug": filter.CategorySlug}).Decode(&category)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to resolve category slug: %w", err)
		}
		query["category_id"] = category.ID
	}
	if filter.SubCategorySlug != "" {
		var sub models.SubCategory
		err := m.categories.Database().Collection("subcategories").
			FindOne(ctx, bson.M{"slug": filter.SubCategorySlug}).Decode(&sub)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to resolve subcategory slug: %w", err)
		}
		query["sub_category_id"] = sub.ID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.products.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("product cursor error: %w", err)
	}
	return products, nil
}

func (m *mongoCatalogRepository) ListVariants(ctx context.Context, productID primitive.ObjectID) ([]models.ProductVariant, error) {
	cursor, err := m.variants.Find(ctx, bson.M{"product_id": productID})
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer cursor.Close(ctx)

	var variants []models.ProductVariant
	for cursor.Next(ctx) {
		var variant models.ProductVariant
		if err := cursor.Decode(&variant); err != nil {
			return nil, fmt.Errorf("failed to decode variant: %w", err)
		}
		variants = append(variants, variant)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("variant cursor error: %w", err)
	}
	return variants, nil
}

func (m *mongoCatalogRepository) GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	products := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	cursor, err := m.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get products by ids: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products[product.ID] = product
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("product cursor error: %w", err)
	}
	return products, nil
}

func (m *mongoCatalogRepository) GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var category models.Category
	err := m.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (m *mongoCatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := m.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var categories []models.Category
	for cursor.Next(ctx) {
		var category models.Category
		if err := cursor.Decode(&category); err != nil {
			return nil, fmt.Errorf("failed to decode category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("category cursor error: %w", err)
	}
	return categories, nil
}

func (m *mongoCatalogRepository) InsertProduct(ctx context.Context, product *models.Product) error {
	res, err := m.products.InsertOne(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = id
	}
	return nil
}

func (m *mongoCatalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	res, err := m.products.UpdateOne(ctx, bson.M{"_id": product.ID}, bson.M{"$set": product})
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoCatalogRepository) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoCatalogRepository) InsertVariant(ctx context.Context, variant *models.ProductVariant) error {
	res, err := m.variants.InsertOne(ctx, variant)
	if err != nil {
		return fmt.Errorf("failed to insert variant: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		variant.ID = id
	}
	return nil
}

// EnsureCatalogIndexes creates the slug and variant lookup indexes.
func EnsureCatalogIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection("products").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	if _, err := db.Collection("variants").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "product_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create variant indexes: %w", err)
	}
	if _, err := db.Collection("categories").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create category indexes: %w", err)
	}
	return nil
}
