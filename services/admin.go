package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/store"
)

// RecentOrdersLimit is how many orders the dashboard shows.
const RecentOrdersLimit = 10

// Customer is the part of a user shown next to their orders.
type Customer struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// RecentOrder is an order with its customer. User is nil when the
// account no longer exists.
type RecentOrder struct {
	models.Order
	User *Customer `json:"user"`
}

// AdminService manages user accounts for administrators.
type AdminService struct {
	scope  store.TxScope
	users  store.UserStore
	carts  store.CartStore
	orders store.OrderStore
}

func NewAdminService(scope store.TxScope, users store.UserStore, carts store.CartStore, orders store.OrderStore) *AdminService {
	return &AdminService{scope: scope, users: users, carts: carts, orders: orders}
}

// Users lists every account, newest first, without password hashes.
func (s *AdminService) Users(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, internal("listing users", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

func (s *AdminService) RecentOrders(ctx context.Context) ([]RecentOrder, error) {
	orders, err := s.orders.Recent(ctx, RecentOrdersLimit)
	if err != nil {
		return nil, internal("listing recent orders", err)
	}

	customers := map[primitive.ObjectID]*Customer{}
	recent := make([]RecentOrder, 0, len(orders))
	for _, order := range orders {
		customer, seen := customers[order.UserID]
		if !seen {
			user, err := s.users.FindByID(ctx, order.UserID)
			switch {
			case err == nil:
				customer = &Customer{ID: user.ID, Name: user.Name, Email: user.Email}
			case !errors.Is(err, store.ErrNotFound):
				return nil, internal("loading order customer", err)
			}
			customers[order.UserID] = customer
		}
		recent = append(recent, RecentOrder{Order: order, User: customer})
	}
	return recent, nil
}

// DeleteUser removes an account together with its cart and orders. An
// admin cannot delete their own account.
func (s *AdminService) DeleteUser(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("user not found")
		}
		return internal("loading user", err)
	}
	if id == actor.UserID {
		return invalid("cannot delete your own account")
	}

	err := s.scope.Execute(ctx, func(ctx context.Context) error {
		if err := s.carts.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := s.orders.DeleteByUser(ctx, id); err != nil {
			return err
		}
		return s.users.Delete(ctx, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return notFound("user not found")
	}
	if err != nil {
		return internal("deleting user", err)
	}
	return nil
}
