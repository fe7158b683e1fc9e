package services

import (
	"context"
	"strings"
	"time"

	"pfw-commerce/models"
	"pfw-commerce/repository"
	"pfw-commerce/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trending window and size.
const (
	trendingWindow = 7 * 24 * time.Hour
	trendingLimit  = 10
)

// CatalogService serves product browsing and the admin catalog operations.
type CatalogService struct {
	catalog  repository.CatalogRepository
	activity repository.ActivityRepository
	log      *logrus.Logger
}

func NewCatalogService(catalog repository.CatalogRepository, activity repository.ActivityRepository, log *logrus.Logger) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		activity: activity,
		log:      log,
	}
}

// ProductDetail is a product with its variants.
type ProductDetail struct {
	Product  models.Product          `json:"product"`
	Variants []models.ProductVariant `json:"variants"`
}

// ListProducts returns active products, optionally filtered by category or
// subcategory slug.
func (s *CatalogService) ListProducts(ctx context.Context, categorySlug, subCategorySlug string) ([]models.Product, error) {
	products, err := s.catalog.ListProducts(ctx, repository.ProductFilter{
		CategorySlug:    categorySlug,
		SubCategorySlug: subCategorySlug,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProductDetail returns a product with its variants and records a view
// event for trending.
func (s *CatalogService) GetProductDetail(ctx context.Context, id primitive.ObjectID) (*ProductDetail, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	variants, err := s.catalog.ListVariants(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if variants == nil {
		variants = []models.ProductVariant{}
	}

	s.recordView(id)

	return &ProductDetail{Product: *product, Variants: variants}, nil
}

// ListCategories returns all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// TrendingProduct is a product with its activity score.
type TrendingProduct struct {
	Product models.Product `json:"product"`
	Score   int            `json:"score"`
}

// Trending returns the highest-scoring products of the last week, ordered by
// score: a cart add weighs three views.
func (s *CatalogService) Trending(ctx context.Context) ([]TrendingProduct, error) {
	scores, err := s.activity.TopProducts(ctx, time.Now().Add(-trendingWindow), trendingLimit)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	ids := make([]primitive.ObjectID, 0, len(scores))
	for _, score := range scores {
		ids = append(ids, score.ProductID)
	}
	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	trending := make([]TrendingProduct, 0, len(scores))
	for _, score := range scores {
		product, ok := products[score.ProductID]
		if !ok || !product.IsActive {
			continue
		}
		trending = append(trending, TrendingProduct{Product: product, Score: score.Score})
	}
	return trending, nil
}

// CreateProduct inserts a product, deriving the slug from the title.
func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	if strings.TrimSpace(product.Title) == "" {
		return invalidArgument("title is required")
	}
	if product.Slug == "" {
		product.Slug = utils.Slugify(product.Title)
	}
	if product.StockType == "" {
		product.StockType = models.StockTypeMain
	}
	product.CreatedAt = time.Now()
	return mapRepoErr(s.catalog.InsertProduct(ctx, product))
}

// UpdateProduct overwrites a product.
func (s *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if product.Slug == "" && product.Title != "" {
		product.Slug = utils.Slugify(product.Title)
	}
	return mapRepoErr(s.catalog.UpdateProduct(ctx, product))
}

// DeleteProduct removes a product from the catalog. Existing orders keep
// their item snapshots; existing cart lines for it become unpurchasable and
// are skipped on read.
func (s *CatalogService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return mapRepoErr(s.catalog.DeleteProduct(ctx, id))
}

// CreateVariant attaches a variant to an existing product.
func (s *CatalogService) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	if _, err := s.catalog.GetProduct(ctx, variant.ProductID); err != nil {
		return mapRepoErr(err)
	}
	return mapRepoErr(s.catalog.InsertVariant(ctx, variant))
}

func (s *CatalogService) recordView(productID primitive.ObjectID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.activity.Record(ctx, productID, models.ActivityView); err != nil {
			s.log.Warnf("record view activity: %v", err)
		}
	}()
}
