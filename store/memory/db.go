// Package memory is an in-process implementation of the store
// interfaces. It backs the unit tests and local runs without MongoDB.
package memory

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/store"
)

// DB holds every collection. Records are copied in and out so callers
// never share memory with the store.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID]models.Cart
	orders   map[primitive.ObjectID]models.Order
	users    map[primitive.ObjectID]models.User
}

func NewDB() *DB {
	return &DB{
		products: map[primitive.ObjectID]models.Product{},
		carts:    map[primitive.ObjectID]models.Cart{},
		orders:   map[primitive.ObjectID]models.Order{},
		users:    map[primitive.ObjectID]models.User{},
	}
}

type snapshot struct {
	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID]models.Cart
	orders   map[primitive.ObjectID]models.Order
	users    map[primitive.ObjectID]models.User
}

func (db *DB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s := snapshot{
		products: make(map[primitive.ObjectID]models.Product, len(db.products)),
		carts:    make(map[primitive.ObjectID]models.Cart, len(db.carts)),
		orders:   make(map[primitive.ObjectID]models.Order, len(db.orders)),
		users:    make(map[primitive.ObjectID]models.User, len(db.users)),
	}
	for k, v := range db.products {
		s.products[k] = v
	}
	for k, v := range db.carts {
		s.carts[k] = *v.Clone()
	}
	for k, v := range db.orders {
		s.orders[k] = copyOrder(v)
	}
	for k, v := range db.users {
		s.users[k] = v
	}
	return s
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.products = s.products
	db.carts = s.carts
	db.orders = s.orders
	db.users = s.users
}

// Execute serializes scopes and rolls every collection back when fn
// fails. Writes made outside a scope while one runs are rolled back
// too; tests do not mix the two.
func (db *DB) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	saved := db.snapshot()
	if err := fn(ctx); err != nil {
		db.restore(saved)
		return err
	}
	return nil
}

var _ store.TxScope = (*DB)(nil)

func copyOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	if o.PaidAt != nil {
		t := *o.PaidAt
		o.PaidAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		o.DeliveredAt = &t
	}
	return o
}
