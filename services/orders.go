package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"go-grocery/models"
	"go-grocery/store"
)

// OrderEvents receives committed order changes.
type OrderEvents interface {
	OrderPlaced(ctx context.Context, order models.Order) error
	OrderStatusChanged(ctx context.Context, order models.Order, previous models.OrderStatus) error
}

// Notifier tells the customer about their order.
type Notifier interface {
	OrderPlaced(user models.User, order models.Order) error
	OrderStatusChanged(user models.User, order models.Order) error
}

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID primitive.ObjectID
	Admin  bool
}

// PlaceOrderInput is a checkout request. ClientTotals is advisory; the
// server always recomputes.
type PlaceOrderInput struct {
	UserID          primitive.ObjectID
	ShippingAddress models.Address
	PaymentMethod   models.PaymentMethod
	ClientTotals    *models.Totals
}

type OrderService struct {
	scope    store.TxScope
	carts    store.CartStore
	products store.ProductStore
	orders   store.OrderStore
	users    store.UserStore
	prices   PriceCalculator
	events   OrderEvents
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

type OrderServiceDeps struct {
	Scope    store.TxScope
	Carts    store.CartStore
	Products store.ProductStore
	Orders   store.OrderStore
	Users    store.UserStore
	Prices   PriceCalculator
	Events   OrderEvents
	Notifier Notifier
	Logger   *zap.Logger
}

func NewOrderService(deps OrderServiceDeps) *OrderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		scope:    deps.Scope,
		carts:    deps.Carts,
		products: deps.Products,
		orders:   deps.Orders,
		users:    deps.Users,
		prices:   deps.Prices,
		events:   deps.Events,
		notifier: deps.Notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Wait blocks until queued events and customer notifications have been
// sent.
func (s *OrderService) Wait() {
	s.wg.Wait()
}

func trimAddress(a models.Address) models.Address {
	return models.Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
	}
}

func validateCheckout(in PlaceOrderInput) error {
	if !in.PaymentMethod.IsValid() {
		return invalid("unsupported payment method %q", in.PaymentMethod)
	}
	a := in.ShippingAddress
	if a.Street == "" || a.City == "" || a.State == "" || a.ZipCode == "" {
		return invalid("shipping address is incomplete")
	}
	return nil
}

// PlaceOrder converts the user's cart into a pending order. Either the
// order is created, stock is decremented and the cart is emptied, or
// none of that happens.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	in.ShippingAddress = trimAddress(in.ShippingAddress)
	if err := validateCheckout(in); err != nil {
		return nil, err
	}

	order, err := store.ExecuteWithResult(ctx, s.scope, func(ctx context.Context) (*models.Order, error) {
		return s.checkout(ctx, in)
	})
	if err != nil {
		var svcErr *Error
		if !errors.As(err, &svcErr) {
			err = internal("checkout", err)
		}
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", order.UserID.Hex()),
		zap.Float64("total", order.TotalPrice))

	placed := *order
	s.publish(ctx, placed, func(ctx context.Context) error {
		return s.events.OrderPlaced(ctx, placed)
	})
	s.notify(placed, false)
	return order, nil
}

func (s *OrderService) checkout(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	cart, err := s.carts.FindByUser(ctx, in.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &Error{Kind: KindEmptyCart, Message: "cart is empty"}
	}
	if err != nil {
		return nil, internal("loading cart", err)
	}
	if len(cart.Items) == 0 {
		return nil, &Error{Kind: KindEmptyCart, Message: "cart is empty"}
	}

	ids := make([]primitive.ObjectID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internal("loading products", err)
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		p, ok := products[line.ProductID]
		if !ok || !p.IsActive {
			return nil, notFound("product %s not found", line.ProductID.Hex())
		}
		if err := ValidateStock(p, line.Quantity); err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	totals := s.prices.Totals(LinesFromCart(cart.Items))
	s.checkClientTotals(in, totals)

	now := s.now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          in.UserID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	taken, err := s.takeStock(ctx, items, products)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseStock(ctx, taken)
		return nil, internal("creating order", err)
	}

	cart.Items = []models.CartItem{}
	cart.TotalAmount = 0
	if err := s.carts.Save(ctx, cart); err != nil {
		s.releaseStock(ctx, taken)
		s.removeOrder(ctx, order.ID)
		return nil, internal("clearing cart", err)
	}
	return order, nil
}

const compensationTimeout = 5 * time.Second

// compensating returns a context for undoing checkout writes. It keeps
// the request's values but outlives its cancellation, so a timed out or
// disconnected request still restores what it took.
func compensating(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
}

func (s *OrderService) removeOrder(ctx context.Context, id primitive.ObjectID) {
	ctx, cancel := compensating(ctx)
	defer cancel()
	if err := s.orders.Delete(ctx, id); err != nil {
		s.logger.Error("removing order after failed checkout", zap.String("order_id", id.Hex()), zap.Error(err))
	}
}

// takeStock decrements stock line by line. If any decrement fails the
// earlier ones are restored before returning.
func (s *OrderService) takeStock(ctx context.Context, items []models.OrderItem, products map[primitive.ObjectID]models.Product) ([]models.OrderItem, error) {
	taken := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err == nil {
			taken = append(taken, item)
			continue
		}

		s.releaseStock(ctx, taken)
		switch {
		case errors.Is(err, store.ErrInsufficientStock):
			available := products[item.ProductID].Stock
			if p, findErr := s.products.FindByID(ctx, item.ProductID); findErr == nil {
				available = p.Stock
			}
			return nil, insufficientStock(item.Name, available)
		case errors.Is(err, store.ErrNotFound):
			return nil, notFound("product %s not found", item.ProductID.Hex())
		default:
			return nil, internal("decrementing stock", err)
		}
	}
	return taken, nil
}

func (s *OrderService) releaseStock(ctx context.Context, items []models.OrderItem) {
	if len(items) == 0 {
		return
	}
	ctx, cancel := compensating(ctx)
	defer cancel()
	for _, item := range items {
		if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("restoring stock",
				zap.String("product_id", item.ProductID.Hex()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

const totalsTolerance = 0.01

func (s *OrderService) checkClientTotals(in PlaceOrderInput, server models.Totals) {
	client := in.ClientTotals
	if client == nil {
		return
	}
	if math.Abs(client.ItemsPrice-server.ItemsPrice) > totalsTolerance ||
		math.Abs(client.TaxPrice-server.TaxPrice) > totalsTolerance ||
		math.Abs(client.ShippingPrice-server.ShippingPrice) > totalsTolerance ||
		math.Abs(client.TotalPrice-server.TotalPrice) > totalsTolerance {
		s.logger.Warn("client totals differ from server totals",
			zap.String("user_id", in.UserID.Hex()),
			zap.Float64("client_total", client.TotalPrice),
			zap.Float64("server_total", server.TotalPrice))
	}
}

func (s *OrderService) findOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("order not found")
	}
	if err != nil {
		return nil, internal("loading order", err)
	}
	return order, nil
}

// GetOrder returns an order to its owner or to an admin. Other users
// get NotFound so order ids cannot be probed.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && order.UserID != actor.UserID {
		return nil, notFound("order not found")
	}
	return order, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		return nil, internal("listing orders", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, internal("listing orders", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to status. Writing the current status
// again is a no-op; anything the status machine forbids is a Conflict.
func (s *OrderService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, invalid("unknown order status %q", status)
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, conflict("cannot move order from %s to %s", order.Status, status)
	}

	previous := order.Status
	order.Status = status
	order.UpdatedAt = s.now()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, internal("updating order", err)
	}

	s.logger.Info("order status changed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("from", previous.String()),
		zap.String("to", status.String()))

	changed := *order
	s.publish(ctx, changed, func(ctx context.Context) error {
		return s.events.OrderStatusChanged(ctx, changed, previous)
	})
	s.notify(changed, true)
	return order, nil
}

// MarkPaid records payment. Only the owner or an admin may do so.
// Marking a paid order again keeps the original timestamp.
func (s *OrderService) MarkPaid(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusCancelled {
		return nil, conflict("order is cancelled")
	}
	if order.IsPaid {
		return order, nil
	}

	now := s.now()
	order.IsPaid = true
	order.PaidAt = &now
	order.UpdatedAt = now
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, internal("updating order", err)
	}
	return order, nil
}

// MarkDelivered records delivery. The status is left alone.
func (s *OrderService) MarkDelivered(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusCancelled {
		return nil, conflict("order is cancelled")
	}
	if order.IsDelivered {
		return order, nil
	}

	now := s.now()
	order.IsDelivered = true
	order.DeliveredAt = &now
	order.UpdatedAt = now
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, internal("updating order", err)
	}
	return order, nil
}

const publishTimeout = 10 * time.Second

// publish emits an event for a committed change in the background. The
// request may already be gone, so only its values are kept.
func (s *OrderService) publish(ctx context.Context, order models.Order, emit func(ctx context.Context) error) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		if err := emit(ctx); err != nil {
			s.logger.Warn("publishing order event", zap.String("order_id", order.ID.Hex()), zap.Error(err))
		}
	}()
}

// notify sends the customer email in the background.
func (s *OrderService) notify(order models.Order, statusChange bool) {
	if s.notifier == nil || s.users == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := s.users.FindByID(ctx, order.UserID)
		if err != nil {
			s.logger.Warn("loading order owner", zap.String("order_id", order.ID.Hex()), zap.Error(err))
			return
		}
		if statusChange {
			err = s.notifier.OrderStatusChanged(*user, order)
		} else {
			err = s.notifier.OrderPlaced(*user, order)
		}
		if err != nil {
			s.logger.Warn("sending order email", zap.String("order_id", order.ID.Hex()), zap.Error(err))
		}
	}()
}
