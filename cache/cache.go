package cache

import (
	"context"
	"errors"

	"pfw-commerce/models"
)

// CartCache stores assembled cart views keyed by user. The cache only ever
// holds derived data; every cart mutation invalidates the entry.
type CartCache interface {
	Get(ctx context.Context, userID string) (*models.CartView, error)
	Set(ctx context.Context, userID string, view *models.CartView) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
