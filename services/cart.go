package services

import (
	"context"
	"errors"
	"time"

	"pfw-commerce/cache"
	"pfw-commerce/models"
	"pfw-commerce/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

// CartService implements the cart operations. Every operation is scoped to
// the calling user; lines belonging to other users are reported as not
// found, never as forbidden, so foreign carts stay invisible.
type CartService struct {
	carts    repository.CartRepository
	catalog  repository.CatalogRepository
	activity repository.ActivityRepository
	cache    cache.CartCache
	sfg      singleflight.Group // collapses concurrent cache misses per user
	log      *logrus.Logger
}

func NewCartService(carts repository.CartRepository, catalog repository.CatalogRepository, activity repository.ActivityRepository, cartCache cache.CartCache, log *logrus.Logger) *CartService {
	return &CartService{
		carts:    carts,
		catalog:  catalog,
		activity: activity,
		cache:    cartCache,
		log:      log,
	}
}

// AddItem merges the requested quantity into the line for (product, variant),
// creating cart and line as needed. Requests that would exceed available
// stock are clamped to it, not rejected; the returned line shows the stored
// quantity. This deliberately differs from UpdateItem, which rejects.
func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, variantID *primitive.ObjectID, quantity int) (*models.CartLineView, error) {
	if quantity < 1 {
		return nil, invalidArgument("quantity must be at least 1")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	var variant *models.ProductVariant
	if variantID != nil {
		variant, err = s.catalog.GetVariant(ctx, *variantID)
		if err != nil {
			return nil, mapRepoErr(err)
		}
	}

	line, err := s.carts.AddLine(ctx, userID, productID, variantID, quantity, availableStock(product, variant))
	if err != nil {
		s.log.WithField("user_id", userID.Hex()).Errorf("add cart line: %v", err)
		return nil, mapRepoErr(err)
	}

	s.recordActivity(productID, models.ActivityCartAdd)
	s.invalidateCache(userID)

	price := ResolvePrice(product, variant)
	view := &models.CartLineView{
		ID:       line.ID,
		Product:  s.productSnapshot(ctx, product, price),
		Quantity: line.Quantity,
		Total:    price.Mul(decimal.NewFromInt(int64(line.Quantity))).StringFixed(2),
	}
	if variant != nil {
		view.Variant = variantSnapshot(variant)
	}
	return view, nil
}

// UpdateItem overwrites a line's quantity. Unlike AddItem it rejects a
// quantity above the available stock instead of clamping: the user named an
// exact number, so silently storing a different one would mislead them.
func (s *CartService) UpdateItem(ctx context.Context, userID, lineID primitive.ObjectID, quantity int) (*models.CartLineView, error) {
	if quantity < 1 {
		return nil, invalidArgument("quantity must be at least 1")
	}

	line, err := s.carts.FindLine(ctx, userID, lineID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	product, err := s.catalog.GetProduct(ctx, line.ProductID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	var variant *models.ProductVariant
	if line.VariantID != nil {
		variant, err = s.catalog.GetVariant(ctx, *line.VariantID)
		if err != nil {
			return nil, mapRepoErr(err)
		}
	}

	if stock := availableStock(product, variant); quantity > stock {
		return nil, outOfStock(stock)
	}

	if err := s.carts.UpdateLineQuantity(ctx, userID, lineID, quantity); err != nil {
		s.log.WithField("user_id", userID.Hex()).Errorf("update cart line: %v", err)
		return nil, mapRepoErr(err)
	}
	s.invalidateCache(userID)

	price := ResolvePrice(product, variant)
	return &models.CartLineView{
		ID:       lineID,
		Quantity: quantity,
		Total:    price.Mul(decimal.NewFromInt(int64(quantity))).StringFixed(2),
	}, nil
}

// RemoveItem deletes a line from the caller's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, lineID primitive.ObjectID) error {
	if err := s.carts.RemoveLine(ctx, userID, lineID); err != nil {
		return mapRepoErr(err)
	}
	s.invalidateCache(userID)
	return nil
}

// ClearCart empties the caller's cart. Clearing an empty or absent cart
// succeeds.
func (s *CartService) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.carts.ClearLines(ctx, userID); err != nil {
		s.log.WithField("user_id", userID.Hex()).Errorf("clear cart: %v", err)
		return mapRepoErr(err)
	}
	s.invalidateCache(userID)
	return nil
}

// GetCart returns the cart with product/variant snapshots and freshly
// resolved prices. A user with no cart document gets an empty view, not an
// error.
func (s *CartService) GetCart(ctx context.Context, userID primitive.ObjectID) (*models.CartView, error) {
	v, err, _ := s.sfg.Do(userID.Hex(), func() (interface{}, error) {
		view, err := s.cache.Get(ctx, userID.Hex())
		if err == nil {
			return view, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warnf("cart cache get: %v", err)
		}

		view, err = s.assembleCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		// Written before the view is returned: a mutation that commits
		// after this read can only invalidate an entry that already
		// exists, never race a deferred write and be undone by it.
		if err := s.cache.Set(ctx, userID.Hex(), view); err != nil {
			s.log.Warnf("cart cache set: %v", err)
		}

		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CartView), nil
}

func (s *CartService) assembleCart(ctx context.Context, userID primitive.ObjectID) (*models.CartView, error) {
	view := &models.CartView{
		Items: []models.CartLineView{},
		Total: decimal.Zero.StringFixed(2),
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return view, nil
	}
	if err != nil {
		s.log.WithField("user_id", userID.Hex()).Errorf("get cart: %v", err)
		return nil, mapRepoErr(err)
	}

	total := decimal.Zero
	for i := range cart.Items {
		line := &cart.Items[i]

		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			// Product removed from the catalog since it was added;
			// the line is unpurchasable, skip it.
			continue
		}
		if err != nil {
			return nil, mapRepoErr(err)
		}
		var variant *models.ProductVariant
		if line.VariantID != nil {
			variant, err = s.catalog.GetVariant(ctx, *line.VariantID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, mapRepoErr(err)
			}
		}

		price := ResolvePrice(product, variant)
		lineTotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)

		item := models.CartLineView{
			ID:       line.ID,
			Product:  s.productSnapshot(ctx, product, price),
			Quantity: line.Quantity,
			Total:    lineTotal.StringFixed(2),
		}
		if variant != nil {
			item.Variant = variantSnapshot(variant)
		}
		view.Items = append(view.Items, item)
	}

	view.Total = total.StringFixed(2)
	view.Count = len(view.Items)
	return view, nil
}

func (s *CartService) productSnapshot(ctx context.Context, product *models.Product, price decimal.Decimal) *models.ProductSnapshot {
	snap := &models.ProductSnapshot{
		ID:        product.ID,
		Title:     product.Title,
		Price:     price.StringFixed(2),
		Image:     product.Image,
		Stock:     product.Stock,
		StockType: product.StockType,
	}
	if product.CategoryID != nil {
		if category, err := s.catalog.GetCategory(ctx, *product.CategoryID); err == nil {
			snap.Category = &models.CategorySnapshot{Name: category.Name, Slug: category.Slug}
		}
	}
	return snap
}

func variantSnapshot(variant *models.ProductVariant) *models.VariantSnapshot {
	return &models.VariantSnapshot{
		ID:        variant.ID,
		SizeName:  variant.SizeName,
		ColorName: variant.ColorName,
		Stock:     variant.Stock,
	}
}

func (s *CartService) recordActivity(productID primitive.ObjectID, eventType string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.activity.Record(ctx, productID, eventType); err != nil {
			s.log.Warnf("record %s activity: %v", eventType, err)
		}
	}()
}

func (s *CartService) invalidateCache(userID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID.Hex()); err != nil {
		s.log.Warnf("cart cache invalidate: %v", err)
	}
}

// availableStock is the ceiling for a line's quantity: the variant's stock
// when the line has one, else the product's. Stock is never mutated here.
func availableStock(product *models.Product, variant *models.ProductVariant) int {
	if variant != nil {
		return variant.Stock
	}
	return product.Stock
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrConflict
	default:
		return err
	}
}
