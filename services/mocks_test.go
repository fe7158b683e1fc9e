package services

import (
	"context"
	"sync"
	"time"

	"pfw-commerce/cache"
	"pfw-commerce/models"
	"pfw-commerce/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	eventuallyTimeout = 2 * time.Second
	eventuallyTick    = 10 * time.Millisecond
)

// mockCartRepo mirrors the mongo implementation's semantics: one cart per
// user, line merge on add, quantity clamped to maxStock under a lock (the
// lock stands in for mongo's per-document serialization).
type mockCartRepo struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]*models.Cart
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[primitive.ObjectID]*models.Cart)}
}

func (m *mockCartRepo) GetCart(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyCart(cart), nil
}

func (m *mockCartRepo) AddLine(_ context.Context, userID, productID primitive.ObjectID, variantID *primitive.ObjectID, quantity, maxStock int) (*models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[userID]
	if !ok {
		cart = &models.Cart{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			CreatedAt: time.Now(),
		}
		m.carts[userID] = cart
	}

	line := cart.LineFor(productID, variantID)
	if line == nil {
		if quantity > maxStock {
			quantity = maxStock
		}
		cart.Items = append(cart.Items, models.CartLine{
			ID:        primitive.NewObjectID(),
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
		line = &cart.Items[len(cart.Items)-1]
	} else {
		line.Quantity += quantity
		if line.Quantity > maxStock {
			line.Quantity = maxStock
		}
	}
	cart.UpdatedAt = time.Now()

	result := *line
	return &result, nil
}

func (m *mockCartRepo) FindLine(_ context.Context, userID, lineID primitive.ObjectID) (*models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	line := cart.Line(lineID)
	if line == nil {
		return nil, repository.ErrNotFound
	}
	result := *line
	return &result, nil
}

func (m *mockCartRepo) UpdateLineQuantity(_ context.Context, userID, lineID primitive.ObjectID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return repository.ErrNotFound
	}
	line := cart.Line(lineID)
	if line == nil {
		return repository.ErrNotFound
	}
	line.Quantity = quantity
	return nil
}

func (m *mockCartRepo) RemoveLine(_ context.Context, userID, lineID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ID == lineID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockCartRepo) ClearLines(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cart, ok := m.carts[userID]; ok {
		cart.Items = nil
	}
	return nil
}

func copyCart(cart *models.Cart) *models.Cart {
	clone := *cart
	clone.Items = append([]models.CartLine(nil), cart.Items...)
	return &clone
}

// mockCatalog is an in-memory catalog.
type mockCatalog struct {
	mu         sync.Mutex
	products   map[primitive.ObjectID]*models.Product
	variants   map[primitive.ObjectID]*models.ProductVariant
	categories map[primitive.ObjectID]*models.Category
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		products:   make(map[primitive.ObjectID]*models.Product),
		variants:   make(map[primitive.ObjectID]*models.ProductVariant),
		categories: make(map[primitive.ObjectID]*models.Category),
	}
}

func (m *mockCatalog) addProduct(p models.Product) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.products[p.ID] = &p
	return &p
}

func (m *mockCatalog) addVariant(v models.ProductVariant) *models.ProductVariant {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	m.variants[v.ID] = &v
	return &v
}

func (m *mockCatalog) setPrice(id primitive.ObjectID, mrp, slashed string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id].MRP = mrp
	m.products[id].SlashedPrice = slashed
}

func (m *mockCatalog) GetProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockCatalog) GetVariant(_ context.Context, id primitive.ObjectID) (*models.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (m *mockCatalog) ListProducts(_ context.Context, _ repository.ProductFilter) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var products []models.Product
	for _, p := range m.products {
		if p.IsActive {
			products = append(products, *p)
		}
	}
	return products, nil
}

func (m *mockCatalog) ListVariants(_ context.Context, productID primitive.ObjectID) ([]models.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var variants []models.ProductVariant
	for _, v := range m.variants {
		if v.ProductID == productID {
			variants = append(variants, *v)
		}
	}
	return variants, nil
}

func (m *mockCatalog) GetProductsByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[primitive.ObjectID]models.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			result[id] = *p
		}
	}
	return result, nil
}

func (m *mockCatalog) GetCategory(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *mockCatalog) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var categories []models.Category
	for _, c := range m.categories {
		categories = append(categories, *c)
	}
	return categories, nil
}

func (m *mockCatalog) InsertProduct(_ context.Context, product *models.Product) error {
	stored := m.addProduct(*product)
	product.ID = stored.ID
	return nil
}

func (m *mockCatalog) UpdateProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *product
	m.products[product.ID] = &clone
	return nil
}

func (m *mockCatalog) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockCatalog) InsertVariant(_ context.Context, variant *models.ProductVariant) error {
	stored := m.addVariant(*variant)
	variant.ID = stored.ID
	return nil
}

// mockActivity records events.
type mockActivity struct {
	mu     sync.Mutex
	events []models.ProductActivity
	scores []repository.ProductScore
}

func (m *mockActivity) Record(_ context.Context, productID primitive.ObjectID, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, models.ProductActivity{
		ProductID: productID,
		EventType: eventType,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *mockActivity) TopProducts(_ context.Context, _ time.Time, limit int) ([]repository.ProductScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.scores) > limit {
		return m.scores[:limit], nil
	}
	return m.scores, nil
}

// mockCache always misses on Get, forcing every read through assembly; it
// records invalidations.
type mockCache struct {
	mu      sync.Mutex
	deletes int
}

func (m *mockCache) Get(context.Context, string) (*models.CartView, error) {
	return nil, cache.ErrCacheMiss
}

func (m *mockCache) Set(context.Context, string, *models.CartView) error {
	return nil
}

func (m *mockCache) Delete(context.Context, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	return nil
}

// recordingCache is a real in-memory cache: entries written by Set are served
// by Get until Delete removes them. Counters expose hit/write traffic.
type recordingCache struct {
	mu      sync.Mutex
	entries map[string]*models.CartView
	hits    int
	sets    int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]*models.CartView)}
}

func (r *recordingCache) Get(_ context.Context, userID string) (*models.CartView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	view, ok := r.entries[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	r.hits++
	return view, nil
}

func (r *recordingCache) Set(_ context.Context, userID string, view *models.CartView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = view
	r.sets++
	return nil
}

func (r *recordingCache) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
	return nil
}

// mockOrderRepo stores orders in memory. Like the mongo implementation it
// clears the cart in the same "transaction" as the insert, and it can be
// primed to report order-number collisions.
type mockOrderRepo struct {
	mu         sync.Mutex
	orders     []models.Order
	cartRepo   *mockCartRepo
	duplicates int // next N CreateOrder calls fail with ErrDuplicate
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.duplicates > 0 {
		m.duplicates--
		return repository.ErrDuplicate
	}
	clone := *order
	clone.Items = append([]models.OrderItem(nil), order.Items...)
	m.orders = append(m.orders, clone)
	if m.cartRepo != nil {
		_ = m.cartRepo.ClearLines(ctx, order.UserID)
	}
	return nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []models.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			orders = append(orders, m.orders[i])
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == orderID && m.orders[i].UserID == userID {
			clone := m.orders[i]
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, orderID primitive.ObjectID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			m.orders[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}
