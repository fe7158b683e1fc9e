package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartLine is one (product, variant, quantity) entry in a cart. There is at
// most one line per (product, variant) pair; repeated adds merge into it.
type CartLine struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	ProductID primitive.ObjectID  `bson:"product_id" json:"product_id"`
	VariantID *primitive.ObjectID `bson:"variant_id" json:"variant_id,omitempty"`
	Quantity  int                 `bson:"quantity" json:"quantity"`
	AddedAt   time.Time           `bson:"added_at" json:"added_at"`
}

// Cart is a user's shopping cart, one document per user. The document is
// created lazily on first add and kept forever; clearing empties Items.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Items     []CartLine         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// LineFor returns the line matching the (product, variant) pair, or nil.
func (c *Cart) LineFor(productID primitive.ObjectID, variantID *primitive.ObjectID) *CartLine {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if sameVariant(c.Items[i].VariantID, variantID) {
			return &c.Items[i]
		}
	}
	return nil
}

// Line returns the line with the given id, or nil.
func (c *Cart) Line(lineID primitive.ObjectID) *CartLine {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			return &c.Items[i]
		}
	}
	return nil
}

func sameVariant(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CategorySnapshot is the slice of category detail shown on a cart line.
type CategorySnapshot struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductSnapshot is the product detail embedded in a cart line view.
type ProductSnapshot struct {
	ID        primitive.ObjectID `json:"id"`
	Title     string             `json:"title"`
	Price     string             `json:"price"`
	Image     string             `json:"image,omitempty"`
	Category  *CategorySnapshot  `json:"category,omitempty"`
	Stock     int                `json:"stock"`
	StockType string             `json:"stock_type"`
}

// VariantSnapshot is the variant detail embedded in a cart line view.
type VariantSnapshot struct {
	ID        primitive.ObjectID `json:"id"`
	SizeName  string             `json:"size_name,omitempty"`
	ColorName string             `json:"color_name,omitempty"`
	Stock     int                `json:"stock"`
}

// CartLineView is one cart line with resolved price and snapshots.
type CartLineView struct {
	ID       primitive.ObjectID `json:"id"`
	Product  *ProductSnapshot   `json:"product,omitempty"`
	Variant  *VariantSnapshot   `json:"variant,omitempty"`
	Quantity int                `json:"quantity"`
	Total    string             `json:"total"`
}

// CartView is the whole cart as returned to the caller. Total is a fixed
// two-decimal string; Count is the number of lines, not the quantity sum.
type CartView struct {
	Items []CartLineView `json:"items"`
	Total string         `json:"total"`
	Count int            `json:"count"`
}
