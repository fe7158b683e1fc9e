package services

import (
	"context"
	"sync"
	"testing"

	"pfw-commerce/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestCartService() (*CartService, *mockCartRepo, *mockCatalog, *mockActivity, *mockCache) {
	carts := newMockCartRepo()
	catalog := newMockCatalog()
	activity := &mockActivity{}
	cartCache := &mockCache{}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewCartService(carts, catalog, activity, cartCache, log), carts, catalog, activity, cartCache
}

func TestAddItemCreatesLine(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Mug", MRP: "12.50", Stock: 10, StockType: models.StockTypeMain})
	userID := primitive.NewObjectID()

	line, err := svc.AddItem(context.Background(), userID, product.ID, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, "37.50", line.Total)
	require.NotNil(t, line.Product)
	assert.Equal(t, "Mug", line.Product.Title)
}

func TestAddItemMergesAndClamps(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", Stock: 5, StockType: models.StockTypeMain})
	userID := primitive.NewObjectID()

	line, err := svc.AddItem(context.Background(), userID, product.ID, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)

	// Adding 4 more would exceed stock=5; the add path clamps silently.
	line, err = svc.AddItem(context.Background(), userID, product.ID, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, "40.00", line.Total)

	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)
}

func TestAddItemVariantStock(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Shirt", MRP: "20.00", Stock: 100, StockType: models.StockTypeVariants})
	variant := catalog.addVariant(models.ProductVariant{ProductID: product.ID, SizeName: "M", MRP: "22.00", Stock: 2})
	userID := primitive.NewObjectID()

	// The variant's stock, not the product's, is the ceiling.
	line, err := svc.AddItem(context.Background(), userID, product.ID, &variant.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	require.NotNil(t, line.Variant)
	assert.Equal(t, "M", line.Variant.SizeName)
}

func TestAddItemSeparateLinesPerVariant(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Shirt", MRP: "20.00", Stock: 10})
	variant := catalog.addVariant(models.ProductVariant{ProductID: product.ID, SizeName: "L", Stock: 10, MRP: "21.00"})
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, product.ID, nil, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), userID, product.ID, &variant.ID, 1)
	require.NoError(t, err)

	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _, _, _, _ := newTestCartService()
	_, err := svc.AddItem(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), nil, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddItemInvalidQuantity(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Mug", MRP: "5.00", Stock: 5})

	_, err := svc.AddItem(context.Background(), primitive.NewObjectID(), product.ID, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddItemRecordsActivity(t *testing.T) {
	svc, _, catalog, activity, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Mug", MRP: "5.00", Stock: 5})
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, product.ID, nil, 1)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		activity.mu.Lock()
		defer activity.mu.Unlock()
		return len(activity.events) == 1 && activity.events[0].EventType == models.ActivityCartAdd
	}, eventuallyTimeout, eventuallyTick)
}

func TestUpdateItemRejectsOverStock(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", Stock: 5})
	userID := primitive.NewObjectID()

	line, err := svc.AddItem(context.Background(), userID, product.ID, nil, 3)
	require.NoError(t, err)

	// Explicit updates are rejected, not clamped.
	_, err = svc.UpdateItem(context.Background(), userID, line.ID, 6)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Contains(t, err.Error(), "5")

	// The stored quantity is untouched.
	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestUpdateItemInvalidQuantity(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", Stock: 5})
	userID := primitive.NewObjectID()

	line, err := svc.AddItem(context.Background(), userID, product.ID, nil, 2)
	require.NoError(t, err)

	_, err = svc.UpdateItem(context.Background(), userID, line.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateItemSuccess(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", SlashedPrice: "6.00", Stock: 5})
	userID := primitive.NewObjectID()

	line, err := svc.AddItem(context.Background(), userID, product.ID, nil, 1)
	require.NoError(t, err)

	updated, err := svc.UpdateItem(context.Background(), userID, line.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, "24.00", updated.Total)
}

func TestUpdateItemForeignLineIsNotFound(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", Stock: 5})
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	line, err := svc.AddItem(context.Background(), owner, product.ID, nil, 1)
	require.NoError(t, err)

	_, err = svc.UpdateItem(context.Background(), stranger, line.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveItemForeignLineIsNotFound(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", Stock: 5})
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	line, err := svc.AddItem(context.Background(), owner, product.ID, nil, 1)
	require.NoError(t, err)

	// A remove that removes nothing must not report success, even when the
	// line id exists in someone else's cart.
	assert.ErrorIs(t, svc.RemoveItem(context.Background(), stranger, line.ID), ErrNotFound)

	view, err := svc.GetCart(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
}

func TestRemoveItem(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", Stock: 5})
	userID := primitive.NewObjectID()

	line, err := svc.AddItem(context.Background(), userID, product.ID, nil, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(context.Background(), userID, line.ID))
	assert.ErrorIs(t, svc.RemoveItem(context.Background(), userID, line.ID), ErrNotFound)
}

func TestClearCartIdempotent(t *testing.T) {
	svc, _, _, _, _ := newTestCartService()
	// No cart document exists yet; clearing must still succeed.
	assert.NoError(t, svc.ClearCart(context.Background(), primitive.NewObjectID()))
}

func TestGetCartEmpty(t *testing.T) {
	svc, _, _, _, _ := newTestCartService()

	view, err := svc.GetCart(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.Total)
	assert.Equal(t, 0, view.Count)
}

func TestGetCartTotals(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	mug := catalog.addProduct(models.Product{Title: "Mug", MRP: "12.50", Stock: 10})
	hat := catalog.addProduct(models.Product{Title: "Cap", MRP: "10.00", SlashedPrice: "8.00", Stock: 10})
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, mug.ID, nil, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), userID, hat.ID, nil, 3)
	require.NoError(t, err)

	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count)
	// 2 x 12.50 + 3 x 8.00
	assert.Equal(t, "49.00", view.Total)
}

func TestGetCartSkipsDeletedProducts(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	mug := catalog.addProduct(models.Product{Title: "Mug", MRP: "12.50", Stock: 10})
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, mug.ID, nil, 1)
	require.NoError(t, err)
	require.NoError(t, catalog.DeleteProduct(context.Background(), mug.ID))

	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.Total)
}

func TestConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", Stock: 10})
	userID := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), userID, product.ID, nil, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestConcurrentAddsClampAtStock(t *testing.T) {
	svc, _, catalog, _, _ := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", Stock: 5})
	userID := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), userID, product.ID, nil, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestGetCartServesCachedView(t *testing.T) {
	carts := newMockCartRepo()
	catalog := newMockCatalog()
	rc := newRecordingCache()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewCartService(carts, catalog, &mockActivity{}, rc, log)

	product := catalog.addProduct(models.Product{Title: "Mug", MRP: "12.50", Stock: 10})
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, product.ID, nil, 2)
	require.NoError(t, err)

	first, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", first.Total)
	assert.Equal(t, 1, rc.sets)

	// A catalog change alone does not invalidate the cart entry, so the
	// second read proves the cached view is served, not reassembled.
	catalog.setPrice(product.ID, "99.00", "")

	second, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", second.Total)
	assert.Equal(t, 1, rc.hits)
	assert.Equal(t, 1, rc.sets)
}

func TestGetCartCachesBeforeReturning(t *testing.T) {
	carts := newMockCartRepo()
	catalog := newMockCatalog()
	rc := newRecordingCache()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewCartService(carts, catalog, &mockActivity{}, rc, log)

	product := catalog.addProduct(models.Product{Title: "Mug", MRP: "12.50", Stock: 10})
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, product.ID, nil, 1)
	require.NoError(t, err)

	// The entry exists as soon as the read returns; a mutation after the
	// read deletes it, and the next read reassembles the new state instead
	// of ever seeing the old view resurface.
	_, err = svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	rc.mu.Lock()
	_, cached := rc.entries[userID.Hex()]
	rc.mu.Unlock()
	assert.True(t, cached)

	_, err = svc.AddItem(context.Background(), userID, product.ID, nil, 1)
	require.NoError(t, err)

	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 2, rc.sets)
}

func TestMutationsInvalidateCache(t *testing.T) {
	svc, _, catalog, _, cartCache := newTestCartService()
	product := catalog.addProduct(models.Product{Title: "Cap", MRP: "8.00", Stock: 5})
	userID := primitive.NewObjectID()

	line, err := svc.AddItem(context.Background(), userID, product.ID, nil, 1)
	require.NoError(t, err)
	_, err = svc.UpdateItem(context.Background(), userID, line.ID, 2)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveItem(context.Background(), userID, line.ID))
	require.NoError(t, svc.ClearCart(context.Background(), userID))

	cartCache.mu.Lock()
	defer cartCache.mu.Unlock()
	assert.Equal(t, 4, cartCache.deletes)
}
