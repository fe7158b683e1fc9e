package repository

import (
	"context"
	"errors"
	"time"

	"pfw-commerce/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("duplicate key")
)

// CartRepository persists per-user carts. Implementations must make AddLine
// safe under concurrent calls for the same (cart, product, variant): two
// simultaneous adds must both take effect, capped at maxStock.
type CartRepository interface {
	GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// AddLine merges quantity into the line for (productID, variantID),
	// creating the cart and/or line as needed. The stored quantity never
	// exceeds maxStock; overshoot is clamped, not rejected. Returns the
	// line as stored.
	AddLine(ctx context.Context, userID, productID primitive.ObjectID, variantID *primitive.ObjectID, quantity, maxStock int) (*models.CartLine, error)
	FindLine(ctx context.Context, userID, lineID primitive.ObjectID) (*models.CartLine, error)
	UpdateLineQuantity(ctx context.Context, userID, lineID primitive.ObjectID, quantity int) error
	RemoveLine(ctx context.Context, userID, lineID primitive.ObjectID) error
	// ClearLines empties the cart. It is idempotent and succeeds even when
	// no cart document exists.
	ClearLines(ctx context.Context, userID primitive.ObjectID) error
}

// OrderRepository persists orders. CreateOrder must commit the order insert
// and the cart clear atomically: either both happen or neither does.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	FindByID(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status string) error
}

// ProductFilter narrows ListProducts. Zero value lists all active products.
type ProductFilter struct {
	CategorySlug    string
	SubCategorySlug string
	IncludeInactive bool
}

// CatalogRepository reads and (for admins) writes the product catalog.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetVariant(ctx context.Context, id primitive.ObjectID) (*models.ProductVariant, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	ListVariants(ctx context.Context, productID primitive.ObjectID) ([]models.ProductVariant, error)
	GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)

	InsertProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	InsertVariant(ctx context.Context, variant *models.ProductVariant) error
}

// ProductScore is a trending aggregation row.
type ProductScore struct {
	ProductID primitive.ObjectID `bson:"_id"`
	Score     int                `bson:"score"`
}

// ActivityRepository records product view/cart-add events and aggregates
// them into trending scores.
type ActivityRepository interface {
	Record(ctx context.Context, productID primitive.ObjectID, eventType string) error
	TopProducts(ctx context.Context, since time.Time, limit int) ([]ProductScore, error)
}

// UserRepository persists accounts.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.User, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
	Insert(ctx context.Context, user *models.User) error
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
}
