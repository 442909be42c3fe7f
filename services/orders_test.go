package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/services"
	"go-grocery/store"
)

var errWrite = errors.New("write failed")

type failingOrders struct {
	store.OrderStore
}

func (failingOrders) Create(context.Context, *models.Order) error { return errWrite }

type failingCartSave struct {
	store.CartStore
}

func (failingCartSave) Save(context.Context, *models.Cart) error { return errWrite }

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t, "shopper@example.com")
	apples := f.addProduct(t, "Fresh Apples", 120, 50)
	milk := f.addProduct(t, "Milk", 60, 100)

	_, err := f.cart.AddItem(ctx, user.ID, apples.ID, 2, nil)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, user.ID, milk.ID, 1, nil)
	require.NoError(t, err)

	order, err := f.order.PlaceOrder(ctx, checkoutInput(user.ID))
	require.NoError(t, err)
	f.order.Wait()

	assert.Equal(t, models.StatusPending, order.Status)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsDelivered)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Fresh Apples", order.Items[0].Name)
	assert.Equal(t, 300.0, order.ItemsPrice)
	assert.Equal(t, 50.0, order.ShippingPrice)
	assert.Equal(t, 30.0, order.TaxPrice)
	assert.Equal(t, 380.0, order.TotalPrice)

	assert.Equal(t, 48, f.stock(t, apples.ID))
	assert.Equal(t, 99, f.stock(t, milk.ID))

	cart, err := f.carts.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalPrice, stored.TotalPrice)

	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, "placed", events[0].kind)
	assert.Equal(t, []string{"placed:shopper@example.com"}, f.mail.sent)
}

func TestPlaceOrder_ClientTotalsAreAdvisory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	apples := f.addProduct(t, "Fresh Apples", 120, 50)
	_, err := f.cart.AddItem(ctx, userID, apples.ID, 5, nil)
	require.NoError(t, err)

	in := checkoutInput(userID)
	in.ClientTotals = &models.Totals{ItemsPrice: 1, TaxPrice: 1, ShippingPrice: 1, TotalPrice: 3}
	order, err := f.order.PlaceOrder(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, 660.0, order.TotalPrice)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()

	_, err := f.order.PlaceOrder(ctx, checkoutInput(userID))
	assert.ErrorIs(t, err, services.ErrEmptyCart)

	_, err = f.cart.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	_, err = f.order.PlaceOrder(ctx, checkoutInput(userID))
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestPlaceOrder_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := checkoutInput(primitive.NewObjectID())
	in.PaymentMethod = "bitcoin"
	_, err := f.order.PlaceOrder(ctx, in)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	in = checkoutInput(primitive.NewObjectID())
	in.ShippingAddress.City = ""
	_, err = f.order.PlaceOrder(ctx, in)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	for _, blank := range []func(a *models.Address){
		func(a *models.Address) { a.Street = "   " },
		func(a *models.Address) { a.City = "\t" },
		func(a *models.Address) { a.State = " \n " },
		func(a *models.Address) { a.ZipCode = "  " },
	} {
		in = checkoutInput(primitive.NewObjectID())
		blank(&in.ShippingAddress)
		_, err = f.order.PlaceOrder(ctx, in)
		assert.ErrorIs(t, err, services.ErrInvalidArgument)
	}
}

func TestPlaceOrder_TrimsShippingAddress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	apples := f.addProduct(t, "Fresh Apples", 120, 50)
	_, err := f.cart.AddItem(ctx, userID, apples.ID, 1, nil)
	require.NoError(t, err)

	in := checkoutInput(userID)
	in.ShippingAddress.Street = "  12 Market Road "
	in.ShippingAddress.City = "Pune\t"
	order, err := f.order.PlaceOrder(ctx, in)
	require.NoError(t, err)
	f.order.Wait()

	assert.Equal(t, address(), order.ShippingAddress)
}

func TestPlaceOrder_StockGoneSinceAdd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	apples := f.addProduct(t, "Fresh Apples", 120, 50)
	milk := f.addProduct(t, "Milk", 60, 5)

	_, err := f.cart.AddItem(ctx, userID, apples.ID, 2, nil)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, userID, milk.ID, 1, nil)
	require.NoError(t, err)

	require.NoError(t, f.products.SetStock(ctx, milk.ID, 0))

	_, err = f.order.PlaceOrder(ctx, checkoutInput(userID))
	require.ErrorIs(t, err, services.ErrInsufficientStock)
	var svcErr *services.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 0, svcErr.Available)

	n, err := f.orders.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 50, f.stock(t, apples.ID))

	cart, err := f.carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Empty(t, f.events.all())
}

func TestPlaceOrder_InactiveProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	apples := f.addProduct(t, "Fresh Apples", 120, 50)
	_, err := f.cart.AddItem(ctx, userID, apples.ID, 1, nil)
	require.NoError(t, err)

	apples.IsActive = false
	require.NoError(t, f.products.Update(ctx, &apples))

	_, err = f.order.PlaceOrder(ctx, checkoutInput(userID))
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestPlaceOrder_CompensatesWithoutTransactions(t *testing.T) {
	tests := []struct {
		name   string
		orders func(f *fixture) store.OrderStore
		carts  func(f *fixture) store.CartStore
	}{
		{
			name:   "order insert fails",
			orders: func(f *fixture) store.OrderStore { return failingOrders{f.orders} },
			carts:  func(f *fixture) store.CartStore { return f.carts },
		},
		{
			name:   "cart clear fails",
			orders: func(f *fixture) store.OrderStore { return f.orders },
			carts:  func(f *fixture) store.CartStore { return failingCartSave{f.carts} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			userID := primitive.NewObjectID()
			apples := f.addProduct(t, "Fresh Apples", 120, 50)
			milk := f.addProduct(t, "Milk", 60, 10)
			_, err := f.cart.AddItem(ctx, userID, apples.ID, 2, nil)
			require.NoError(t, err)
			_, err = f.cart.AddItem(ctx, userID, milk.ID, 3, nil)
			require.NoError(t, err)

			svc := f.orderService(store.DirectScope{}, f.products, tt.orders(f), tt.carts(f))
			_, err = svc.PlaceOrder(ctx, checkoutInput(userID))
			require.ErrorIs(t, err, services.ErrInternal)
			assert.ErrorIs(t, err, errWrite)

			assert.Equal(t, 50, f.stock(t, apples.ID))
			assert.Equal(t, 10, f.stock(t, milk.ID))
			n, err := f.orders.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
			cart, err := f.carts.FindByUser(ctx, userID)
			require.NoError(t, err)
			assert.Len(t, cart.Items, 2)
		})
	}
}

// The stores below honour context cancellation the way the Mongo driver
// does. Each one cancels the request at a chosen step of the checkout.

type cancellingProducts struct {
	store.ProductStore
	cancel     context.CancelFunc
	cancelAt   int
	decrements int
}

func (p *cancellingProducts) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	p.decrements++
	if p.decrements == p.cancelAt {
		p.cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.ProductStore.DecrementStock(ctx, id, quantity)
}

func (p *cancellingProducts) IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.ProductStore.IncrementStock(ctx, id, quantity)
}

type cancellingOrders struct {
	store.OrderStore
	cancel   context.CancelFunc
	onCreate bool
}

func (o cancellingOrders) Create(ctx context.Context, order *models.Order) error {
	if o.onCreate {
		o.cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.OrderStore.Create(ctx, order)
}

func (o cancellingOrders) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.OrderStore.Delete(ctx, id)
}

type cancellingCarts struct {
	store.CartStore
	cancel context.CancelFunc
	onSave bool
}

func (c cancellingCarts) Save(ctx context.Context, cart *models.Cart) error {
	if c.onSave {
		c.cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.CartStore.Save(ctx, cart)
}

func TestPlaceOrder_CompensatesAfterRequestCancelled(t *testing.T) {
	tests := []struct {
		name         string
		cancelAt     int
		cancelCreate bool
		cancelSave   bool
	}{
		{name: "during second stock decrement", cancelAt: 2},
		{name: "during order insert", cancelCreate: true},
		{name: "during cart clear", cancelSave: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			userID := primitive.NewObjectID()
			apples := f.addProduct(t, "Fresh Apples", 120, 50)
			milk := f.addProduct(t, "Milk", 60, 10)
			_, err := f.cart.AddItem(context.Background(), userID, apples.ID, 2, nil)
			require.NoError(t, err)
			_, err = f.cart.AddItem(context.Background(), userID, milk.ID, 3, nil)
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			products := &cancellingProducts{ProductStore: f.products, cancel: cancel, cancelAt: tt.cancelAt}
			orders := cancellingOrders{OrderStore: f.orders, cancel: cancel, onCreate: tt.cancelCreate}
			carts := cancellingCarts{CartStore: f.carts, cancel: cancel, onSave: tt.cancelSave}

			svc := f.orderService(store.DirectScope{}, products, orders, carts)
			_, err = svc.PlaceOrder(ctx, checkoutInput(userID))
			require.ErrorIs(t, err, services.ErrInternal)
			assert.ErrorIs(t, err, context.Canceled)
			svc.Wait()

			assert.Equal(t, 50, f.stock(t, apples.ID))
			assert.Equal(t, 10, f.stock(t, milk.ID))
			n, err := f.orders.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
			cart, err := f.carts.FindByUser(context.Background(), userID)
			require.NoError(t, err)
			assert.Len(t, cart.Items, 2)
		})
	}
}

func TestPlaceOrder_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apples := f.addProduct(t, "Fresh Apples", 120, 3)

	const shoppers = 5
	users := make([]primitive.ObjectID, shoppers)
	for i := range users {
		users[i] = primitive.NewObjectID()
		_, err := f.cart.AddItem(ctx, users[i], apples.ID, 1, nil)
		require.NoError(t, err)
	}

	errs := make(chan error, shoppers)
	for _, id := range users {
		go func(id primitive.ObjectID) {
			_, err := f.order.PlaceOrder(ctx, checkoutInput(id))
			errs <- err
		}(id)
	}

	var placed int
	for i := 0; i < shoppers; i++ {
		err := <-errs
		if err == nil {
			placed++
			continue
		}
		assert.ErrorIs(t, err, services.ErrInsufficientStock)
	}

	assert.Equal(t, 3, placed)
	assert.Equal(t, 0, f.stock(t, apples.ID))
}

func placedOrder(t *testing.T, f *fixture, userID primitive.ObjectID) *models.Order {
	t.Helper()
	ctx := context.Background()
	p := f.addProduct(t, "Carrots", 40, 25)
	_, err := f.cart.AddItem(ctx, userID, p.ID, 1, nil)
	require.NoError(t, err)
	order, err := f.order.PlaceOrder(ctx, checkoutInput(userID))
	require.NoError(t, err)
	return order
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t, "shopper@example.com")
	order := placedOrder(t, f, user.ID)

	updated, err := f.order.UpdateStatus(ctx, order.ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)

	// skipping ahead is allowed
	updated, err = f.order.UpdateStatus(ctx, order.ID, models.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, updated.Status)

	// writing the same status is a no-op
	_, err = f.order.UpdateStatus(ctx, order.ID, models.StatusShipped)
	require.NoError(t, err)

	_, err = f.order.UpdateStatus(ctx, order.ID, models.StatusPending)
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = f.order.UpdateStatus(ctx, order.ID, models.StatusDelivered)
	require.NoError(t, err)
	_, err = f.order.UpdateStatus(ctx, order.ID, models.StatusCancelled)
	assert.ErrorIs(t, err, services.ErrConflict)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, stored.Status)
	assert.False(t, stored.IsDelivered, "delivery flag is set separately")

	f.order.Wait()
	var changes int
	for _, e := range f.events.all() {
		if e.kind == "status_changed" {
			changes++
		}
	}
	assert.Equal(t, 3, changes)
}

func TestUpdateStatus_CancelFromAnyOpenState(t *testing.T) {
	for _, from := range []models.OrderStatus{models.StatusPending, models.StatusConfirmed, models.StatusProcessing, models.StatusShipped} {
		t.Run(string(from), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			order := placedOrder(t, f, primitive.NewObjectID())
			if from != models.StatusPending {
				_, err := f.order.UpdateStatus(ctx, order.ID, from)
				require.NoError(t, err)
			}

			updated, err := f.order.UpdateStatus(ctx, order.ID, models.StatusCancelled)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, updated.Status)
		})
	}
}

func TestUpdateStatus_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := placedOrder(t, f, primitive.NewObjectID())

	_, err := f.order.UpdateStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	_, err = f.order.UpdateStatus(ctx, primitive.NewObjectID(), models.StatusConfirmed)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestMarkPaidAndDelivered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := primitive.NewObjectID()
	order := placedOrder(t, f, owner)

	_, err := f.order.MarkPaid(ctx, services.Actor{UserID: primitive.NewObjectID()}, order.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	paid, err := f.order.MarkPaid(ctx, services.Actor{UserID: owner}, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, models.StatusPending, paid.Status)

	again, err := f.order.MarkPaid(ctx, services.Actor{Admin: true}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, *paid.PaidAt, *again.PaidAt)

	delivered, err := f.order.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)
	assert.True(t, delivered.IsPaid)
}

func TestMarkPaid_CancelledOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := primitive.NewObjectID()
	order := placedOrder(t, f, owner)
	_, err := f.order.UpdateStatus(ctx, order.ID, models.StatusCancelled)
	require.NoError(t, err)

	_, err = f.order.MarkPaid(ctx, services.Actor{UserID: owner}, order.ID)
	assert.ErrorIs(t, err, services.ErrConflict)
	_, err = f.order.MarkDelivered(ctx, order.ID)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestGetOrderAndLists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	first := placedOrder(t, f, alice)
	second := placedOrder(t, f, alice)
	placedOrder(t, f, bob)

	got, err := f.order.GetOrder(ctx, services.Actor{UserID: alice}, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = f.order.GetOrder(ctx, services.Actor{UserID: bob}, first.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.order.GetOrder(ctx, services.Actor{UserID: bob, Admin: true}, first.ID)
	require.NoError(t, err)

	mine, err := f.order.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.ElementsMatch(t, []primitive.ObjectID{first.ID, second.ID}, []primitive.ObjectID{mine[0].ID, mine[1].ID})

	all, err := f.order.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

type contextEvents struct {
	mu   sync.Mutex
	errs []error
}

func (e *contextEvents) record(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, ctx.Err())
	return ctx.Err()
}

func (e *contextEvents) OrderPlaced(ctx context.Context, _ models.Order) error {
	return e.record(ctx)
}

func (e *contextEvents) OrderStatusChanged(ctx context.Context, _ models.Order, _ models.OrderStatus) error {
	return e.record(ctx)
}

func TestEventsOutliveTheRequest(t *testing.T) {
	f := newFixture(t)
	userID := primitive.NewObjectID()
	apples := f.addProduct(t, "Fresh Apples", 120, 50)
	_, err := f.cart.AddItem(context.Background(), userID, apples.ID, 1, nil)
	require.NoError(t, err)

	events := &contextEvents{}
	svc := services.NewOrderService(services.OrderServiceDeps{
		Scope:    f.db,
		Carts:    f.carts,
		Products: f.products,
		Orders:   f.orders,
		Prices:   prices(),
		Events:   events,
	})

	// the memory stores ignore cancellation, so the writes succeed on a
	// request that is already gone
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	order, err := svc.PlaceOrder(ctx, checkoutInput(userID))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, models.StatusConfirmed)
	require.NoError(t, err)
	svc.Wait()

	require.Len(t, events.errs, 2)
	for _, err := range events.errs {
		assert.NoError(t, err)
	}
}
