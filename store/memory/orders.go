package memory

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/store"
)

type Orders struct {
	db *DB
}

func NewOrders(db *DB) *Orders {
	return &Orders{db: db}
}

func (s *Orders) Create(_ context.Context, order *models.Order) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, ok := s.db.orders[order.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.orders[order.ID] = copyOrder(*order)
	return nil
}

func (s *Orders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	o, ok := s.db.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (s *Orders) collect(keep func(models.Order) bool) []models.Order {
	s.db.mu.RLock()
	orders := []models.Order{}
	for _, o := range s.db.orders {
		if keep(o) {
			orders = append(orders, copyOrder(o))
		}
	}
	s.db.mu.RUnlock()

	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID.Hex() > orders[j].ID.Hex()
	})
	return orders
}

func (s *Orders) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.collect(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (s *Orders) FindAll(_ context.Context) ([]models.Order, error) {
	return s.collect(func(models.Order) bool { return true }), nil
}

func (s *Orders) Recent(_ context.Context, limit int) ([]models.Order, error) {
	orders := s.collect(func(models.Order) bool { return true })
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *Orders) Update(_ context.Context, order *models.Order) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.orders[order.ID]
	if !ok {
		return store.ErrNotFound
	}
	updated := copyOrder(*order)
	existing.Status = updated.Status
	existing.IsPaid = updated.IsPaid
	existing.PaidAt = updated.PaidAt
	existing.IsDelivered = updated.IsDelivered
	existing.DeliveredAt = updated.DeliveredAt
	existing.UpdatedAt = updated.UpdatedAt
	s.db.orders[order.ID] = existing
	return nil
}

func (s *Orders) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.orders, id)
	return nil
}

func (s *Orders) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, o := range s.db.orders {
		if o.UserID == userID {
			delete(s.db.orders, id)
		}
	}
	return nil
}

func (s *Orders) Count(_ context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return int64(len(s.db.orders)), nil
}

func (s *Orders) CountByStatus(_ context.Context, status models.OrderStatus) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var n int64
	for _, o := range s.db.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Orders) PaidSales(_ context.Context) (float64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var total float64
	for _, o := range s.db.orders {
		if o.IsPaid {
			total += o.TotalPrice
		}
	}
	return total, nil
}

var _ store.OrderStore = (*Orders)(nil)
