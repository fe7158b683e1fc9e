package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"pfw-commerce/cache"
	"pfw-commerce/models"
	"pfw-commerce/repository"
	"pfw-commerce/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// orderNumberAttempts bounds regeneration on an order-number collision.
const orderNumberAttempts = 5

// ShippingDetails is the checkout input; every field is required.
type ShippingDetails struct {
	ShippingAddress string `json:"shipping_address"`
	City            string `json:"city"`
	PostalCode      string `json:"postal_code"`
	Phone           string `json:"phone"`
}

// OrderService converts carts into immutable orders and reads them back.
type OrderService struct {
	orders  repository.OrderRepository
	carts   repository.CartRepository
	catalog repository.CatalogRepository
	cache   cache.CartCache
	email   *utils.EmailService
	log     *logrus.Logger
}

func NewOrderService(orders repository.OrderRepository, carts repository.CartRepository, catalog repository.CatalogRepository, cartCache cache.CartCache, email *utils.EmailService, log *logrus.Logger) *OrderService {
	return &OrderService{
		orders:  orders,
		carts:   carts,
		catalog: catalog,
		cache:   cartCache,
		email:   email,
		log:     log,
	}
}

// CreateOrder snapshots the user's cart into an order. The price for each
// line is resolved exactly once and used both in the item snapshot and the
// order total, so the total always equals the sum of its items. The order
// insert and the cart clear commit atomically in the repository.
func (s *OrderService) CreateOrder(ctx context.Context, user *models.User, shipping ShippingDetails) (*models.Order, error) {
	if strings.TrimSpace(shipping.ShippingAddress) == "" ||
		strings.TrimSpace(shipping.City) == "" ||
		strings.TrimSpace(shipping.PostalCode) == "" ||
		strings.TrimSpace(shipping.Phone) == "" {
		return nil, invalidArgument("missing shipping details")
	}

	cart, err := s.carts.GetCart(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(cart.Items))
	for i := range cart.Items {
		line := &cart.Items[i]

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

		// One resolution per line, reused for both the item snapshot
		// and the running total. Re-resolving per use could drift.
		price := ResolvePrice(product, variant)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))

		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Title:     product.Title,
			Image:     product.Image,
			Quantity:  line.Quantity,
			Price:     price.StringFixed(2),
		})
	}

	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          user.ID,
		Status:          models.OrderStatusPending,
		TotalAmount:     total.StringFixed(2),
		ShippingAddress: shipping.ShippingAddress,
		City:            shipping.City,
		PostalCode:      shipping.PostalCode,
		Phone:           shipping.Phone,
		Items:           items,
		CreatedAt:       time.Now(),
	}

	// The order number is random, so a collision just means regenerate.
	// The unique index is the arbiter; bounded attempts keep a broken
	// index from looping forever.
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := utils.GenerateOrderNumber()
		if err != nil {
			return nil, err
		}
		order.OrderNumber = number

		err = s.orders.CreateOrder(ctx, order)
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.WithField("order_number", number).Warn("order number collision, regenerating")
			continue
		}
		if err != nil {
			s.log.WithField("user_id", user.ID.Hex()).Errorf("create order: %v", err)
			return nil, mapRepoErr(err)
		}

		s.invalidateCartCache(user.ID)
		s.sendConfirmation(user, order)
		return order, nil
	}
	return nil, ErrConflict
}

// GetMyOrders returns the caller's orders, newest first, as summaries.
func (s *OrderService) GetMyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.OrderSummary, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		s.log.WithField("user_id", userID.Hex()).Errorf("list orders: %v", err)
		return nil, mapRepoErr(err)
	}

	summaries := make([]models.OrderSummary, 0, len(orders))
	for i := range orders {
		summaries = append(summaries, models.OrderSummary{
			ID:          orders[i].ID,
			OrderNumber: orders[i].OrderNumber,
			Total:       orders[i].TotalAmount,
			Status:      orders[i].Status,
			CreatedAt:   orders[i].CreatedAt,
			ItemsCount:  len(orders[i].Items),
		})
	}
	return summaries, nil
}

// GetOrderDetail returns one of the caller's orders with its items.
func (s *OrderService) GetOrderDetail(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, userID, orderID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return order, nil
}

// UpdateStatus moves an order to a new status (admin operation).
func (s *OrderService) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status string) error {
	if !models.ValidOrderStatus(status) {
		return invalidArgument("unknown order status")
	}
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

func (s *OrderService) invalidateCartCache(userID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID.Hex()); err != nil {
		s.log.Warnf("cart cache invalidate: %v", err)
	}
}

func (s *OrderService) sendConfirmation(user *models.User, order *models.Order) {
	if s.email == nil {
		return
	}
	go func(email, name string, order models.Order) {
		if err := s.email.SendOrderConfirmationEmail(email, name, &order); err != nil {
			s.log.WithField("email", email).Warnf("order confirmation email: %v", err)
		}
	}(user.Email, user.Name, *order)
}
