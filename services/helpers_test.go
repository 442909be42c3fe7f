package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/services"
	"go-grocery/store"
	"go-grocery/store/memory"
	"go-grocery/utils"
)

type recordedEvent struct {
	kind     string
	order    models.Order
	previous models.OrderStatus
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) OrderPlaced(_ context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "placed", order: order})
	return nil
}

func (r *eventRecorder) OrderStatusChanged(_ context.Context, order models.Order, previous models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "status_changed", order: order, previous: previous})
	return nil
}

func (r *eventRecorder) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent{}, r.events...)
}

type mailRecorder struct {
	mu   sync.Mutex
	sent []string
}

func (m *mailRecorder) OrderPlaced(user models.User, _ models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, "placed:"+user.Email)
	return nil
}

func (m *mailRecorder) OrderStatusChanged(user models.User, order models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, string(order.Status)+":"+user.Email)
	return nil
}

type fixture struct {
	db       *memory.DB
	products *memory.Products
	carts    *memory.Carts
	orders   *memory.Orders
	users    *memory.Users
	events   *eventRecorder
	mail     *mailRecorder

	cart    *services.CartService
	order   *services.OrderService
	catalog *services.CatalogService
}

func prices() services.PriceCalculator {
	return services.PriceCalculator(utils.DefaultPricing())
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDB()
	f := &fixture{
		db:       db,
		products: memory.NewProducts(db),
		carts:    memory.NewCarts(db),
		orders:   memory.NewOrders(db),
		users:    memory.NewUsers(db),
		events:   &eventRecorder{},
		mail:     &mailRecorder{},
	}
	f.cart = services.NewCartService(f.carts, f.products, prices())
	f.catalog = services.NewCatalogService(f.products)
	f.order = f.orderService(f.db, f.products, f.orders, f.carts)
	return f
}

func (f *fixture) orderService(scope store.TxScope, products store.ProductStore, orders store.OrderStore, carts store.CartStore) *services.OrderService {
	return services.NewOrderService(services.OrderServiceDeps{
		Scope:    scope,
		Carts:    carts,
		Products: products,
		Orders:   orders,
		Users:    f.users,
		Prices:   prices(),
		Events:   f.events,
		Notifier: f.mail,
	})
}

func (f *fixture) addProduct(t *testing.T, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Price:     price,
		Category:  models.CategoryFruits,
		Unit:      models.UnitKg,
		Brand:     models.DefaultBrand,
		Stock:     stock,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.products.Create(context.Background(), &p))
	return p
}

func (f *fixture) addUser(t *testing.T, email string) models.User {
	t.Helper()
	u := models.User{ID: primitive.NewObjectID(), Name: "Shopper", Email: email, Role: models.RoleUser}
	require.NoError(t, f.users.Create(context.Background(), &u))
	return u
}

func (f *fixture) stock(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func address() models.Address {
	return models.Address{
		Street:  "12 Market Road",
		City:    "Pune",
		State:   "MH",
		ZipCode: "411001",
		Country: "India",
	}
}

func checkoutInput(userID primitive.ObjectID) services.PlaceOrderInput {
	return services.PlaceOrderInput{
		UserID:          userID,
		ShippingAddress: address(),
		PaymentMethod:   models.PaymentCashOnDelivery,
	}
}
