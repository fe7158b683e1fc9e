package services

import (
	"context"
	"testing"

	"pfw-commerce/models"
	"pfw-commerce/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestCatalogService() (*CatalogService, *mockCatalog, *mockActivity) {
	catalog := newMockCatalog()
	activity := &mockActivity{}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewCatalogService(catalog, activity, log), catalog, activity
}

func TestTrendingKeepsScoreOrder(t *testing.T) {
	svc, catalog, activity := newTestCatalogService()
	first := catalog.addProduct(models.Product{Title: "First", MRP: "1.00", IsActive: true})
	second := catalog.addProduct(models.Product{Title: "Second", MRP: "1.00", IsActive: true})
	third := catalog.addProduct(models.Product{Title: "Third", MRP: "1.00", IsActive: true})

	activity.scores = []repository.ProductScore{
		{ProductID: second.ID, Score: 9},
		{ProductID: third.ID, Score: 5},
		{ProductID: first.ID, Score: 2},
	}

	trending, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, trending, 3)
	assert.Equal(t, "Second", trending[0].Product.Title)
	assert.Equal(t, 9, trending[0].Score)
	assert.Equal(t, "Third", trending[1].Product.Title)
	assert.Equal(t, "First", trending[2].Product.Title)
}

func TestTrendingSkipsInactiveAndDeleted(t *testing.T) {
	svc, catalog, activity := newTestCatalogService()
	live := catalog.addProduct(models.Product{Title: "Live", MRP: "1.00", IsActive: true})
	hidden := catalog.addProduct(models.Product{Title: "Hidden", MRP: "1.00", IsActive: false})

	activity.scores = []repository.ProductScore{
		{ProductID: hidden.ID, Score: 9},
		{ProductID: primitive.NewObjectID(), Score: 7}, // deleted since scoring
		{ProductID: live.ID, Score: 3},
	}

	trending, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, trending, 1)
	assert.Equal(t, "Live", trending[0].Product.Title)
}

func TestCreateProductSlugsTitle(t *testing.T) {
	svc, catalog, _ := newTestCatalogService()

	product := &models.Product{Title: "Blue Cotton T-Shirt", MRP: "19.99"}
	require.NoError(t, svc.CreateProduct(context.Background(), product))
	assert.Equal(t, "blue-cotton-t-shirt", product.Slug)
	assert.Equal(t, models.StockTypeMain, product.StockType)

	stored, err := catalog.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "blue-cotton-t-shirt", stored.Slug)
}

func TestCreateProductRequiresTitle(t *testing.T) {
	svc, _, _ := newTestCatalogService()
	err := svc.CreateProduct(context.Background(), &models.Product{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateVariantUnknownProduct(t *testing.T) {
	svc, _, _ := newTestCatalogService()
	err := svc.CreateVariant(context.Background(), &models.ProductVariant{ProductID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProductDetailRecordsView(t *testing.T) {
	svc, catalog, activity := newTestCatalogService()
	product := catalog.addProduct(models.Product{Title: "Mug", MRP: "5.00", IsActive: true})
	catalog.addVariant(models.ProductVariant{ProductID: product.ID, SizeName: "S", Stock: 1})

	detail, err := svc.GetProductDetail(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", detail.Product.Title)
	require.Len(t, detail.Variants, 1)

	assert.Eventually(t, func() bool {
		activity.mu.Lock()
		defer activity.mu.Unlock()
		return len(activity.events) == 1 && activity.events[0].EventType == models.ActivityView
	}, eventuallyTimeout, eventuallyTick)
}
