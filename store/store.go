// Package store defines the persistence contracts for products, carts,
// orders and users.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductStore is the catalog. DecrementStock must be a single
// conditional update: it fails with ErrInsufficientStock instead of
// letting stock go below zero.
type ProductStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, product *models.Product) error
	// Update writes the catalog fields. Stock is left alone so that a
	// concurrent checkout decrement is never overwritten; use SetStock.
	Update(ctx context.Context, product *models.Product) error
	SetStock(ctx context.Context, id primitive.ObjectID, stock int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	Count(ctx context.Context) (int64, error)
	CountOutOfStock(ctx context.Context) (int64, error)
}

// CartStore keeps one cart per user.
type CartStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// Save upserts the cart keyed by its user.
	Save(ctx context.Context, cart *models.Cart) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	// Recent returns at most limit orders, newest first.
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	// Update persists the mutable fields: status, payment and delivery.
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.OrderStatus) (int64, error)
	PaidSales(ctx context.Context) (float64, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// List returns every user, newest first.
	List(ctx context.Context) ([]models.User, error)
	// Update writes name, email, phone and password. A taken email is
	// ErrDuplicate.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}
