package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/store"
)

// Carts keys carts by user id.
type Carts struct {
	db *DB
}

func NewCarts(db *DB) *Carts {
	return &Carts{db: db}
}

func (s *Carts) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c, ok := s.db.carts[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Carts) GetOrCreate(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c, ok := s.db.carts[userID]
	if !ok {
		fresh := models.NewCart(userID)
		fresh.ID = primitive.NewObjectID()
		fresh.UpdatedAt = time.Now().UTC()
		c = *fresh.Clone()
		s.db.carts[userID] = c
	}
	return c.Clone(), nil
}

func (s *Carts) Save(_ context.Context, cart *models.Cart) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if existing, ok := s.db.carts[cart.UserID]; ok {
		cart.ID = existing.ID
	} else if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	cart.UpdatedAt = time.Now().UTC()
	s.db.carts[cart.UserID] = *cart.Clone()
	return nil
}

func (s *Carts) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.carts, userID)
	return nil
}

var _ store.CartStore = (*Carts)(nil)
