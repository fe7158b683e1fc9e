package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stock bookkeeping modes for a product.
const (
	StockTypeMain     = "main"     // stock tracked on the product itself
	StockTypeVariants = "variants" // stock tracked per variant
)

// Category groups products for browsing.
type Category struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name  string             `bson:"name" json:"name"`
	Slug  string             `bson:"slug" json:"slug"`
	Image string             `bson:"image,omitempty" json:"image,omitempty"`
}

// SubCategory is a second browsing level under a Category.
type SubCategory struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CategoryID primitive.ObjectID `bson:"category_id" json:"category_id"`
	Name       string             `bson:"name" json:"name"`
	Slug       string             `bson:"slug" json:"slug"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
}

// Product is a catalog entry. Monetary fields are decimal strings so that
// prices round-trip through the database and the API without float drift.
// SlashedPrice, when set, is the discounted price shown instead of MRP.
type Product struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Title         string              `bson:"title" json:"title"`
	Slug          string              `bson:"slug" json:"slug"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	MRP           string              `bson:"mrp" json:"mrp"`
	SlashedPrice  string              `bson:"slashed_price,omitempty" json:"slashed_price,omitempty"`
	Stock         int                 `bson:"stock" json:"stock"`
	StockType     string              `bson:"stock_type" json:"stock_type"`
	CategoryID    *primitive.ObjectID `bson:"category_id,omitempty" json:"category_id,omitempty"`
	SubCategoryID *primitive.ObjectID `bson:"sub_category_id,omitempty" json:"sub_category_id,omitempty"`
	Image         string              `bson:"image,omitempty" json:"image,omitempty"`
	IsActive      bool                `bson:"is_active" json:"is_active"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
}

// ProductVariant is a size/color combination with its own price and stock.
type ProductVariant struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID    primitive.ObjectID `bson:"product_id" json:"product_id"`
	SizeName     string             `bson:"size_name,omitempty" json:"size_name,omitempty"`
	ColorName    string             `bson:"color_name,omitempty" json:"color_name,omitempty"`
	MRP          string             `bson:"mrp,omitempty" json:"mrp,omitempty"`
	SlashedPrice string             `bson:"slashed_price,omitempty" json:"slashed_price,omitempty"`
	Stock        int                `bson:"stock" json:"stock"`
}

// Activity event types recorded against products.
const (
	ActivityView    = "view"
	ActivityCartAdd = "cart_add"
)

// ProductActivity is one view or cart-add event, used for trending.
type ProductActivity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	EventType string             `bson:"event_type" json:"event_type"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
