package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. An order starts out pending and moves forward through
// the fulfilment states, or to cancelled.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is one of the known status values.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a frozen copy of a cart line at purchase time. Price is the
// unit price resolved when the order was created; it is never re-derived
// from the live catalog, so historical orders keep their value.
type OrderItem struct {
	ProductID primitive.ObjectID  `bson:"product_id" json:"product_id"`
	VariantID *primitive.ObjectID `bson:"variant_id,omitempty" json:"variant_id,omitempty"`
	Title     string              `bson:"title" json:"title"`
	Image     string              `bson:"image,omitempty" json:"image,omitempty"`
	Quantity  int                 `bson:"quantity" json:"quantity"`
	Price     string              `bson:"price" json:"price"`
}

// Order is an immutable snapshot created from a non-empty cart. Only Status
// changes after creation. OrderNumber is unique (enforced by an index) and
// human-readable, e.g. PFW-A1B2C3.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	OrderNumber     string             `bson:"order_number" json:"order_number"`
	Status          string             `bson:"status" json:"status"`
	TotalAmount     string             `bson:"total_amount" json:"total_amount"`
	ShippingAddress string             `bson:"shipping_address" json:"shipping_address"`
	City            string             `bson:"city" json:"city"`
	PostalCode      string             `bson:"postal_code" json:"postal_code"`
	Phone           string             `bson:"phone" json:"phone"`
	Items           []OrderItem        `bson:"items" json:"items"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// OrderSummary is the list view of an order: no line items, just the count.
type OrderSummary struct {
	ID          primitive.ObjectID `json:"id"`
	OrderNumber string             `json:"order_number"`
	Total       string             `json:"total"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	ItemsCount  int                `json:"items_count"`
}
