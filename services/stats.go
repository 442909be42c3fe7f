package services

import (
	"context"

	"go-grocery/models"
	"go-grocery/store"
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers         int64   `json:"totalUsers"`
	TotalProducts      int64   `json:"totalProducts"`
	TotalOrders        int64   `json:"totalOrders"`
	TotalSales         float64 `json:"totalSales"`
	PendingOrders      int64   `json:"pendingOrders"`
	OutOfStockProducts int64   `json:"outOfStockProducts"`
}

type StatsService struct {
	users    store.UserStore
	products store.ProductStore
	orders   store.OrderStore
}

func NewStatsService(users store.UserStore, products store.ProductStore, orders store.OrderStore) *StatsService {
	return &StatsService{users: users, products: products, orders: orders}
}

func (s *StatsService) Stats(ctx context.Context) (*Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, internal("counting users", err)
	}
	if stats.TotalProducts, err = s.products.Count(ctx); err != nil {
		return nil, internal("counting products", err)
	}
	if stats.TotalOrders, err = s.orders.Count(ctx); err != nil {
		return nil, internal("counting orders", err)
	}
	if stats.TotalSales, err = s.orders.PaidSales(ctx); err != nil {
		return nil, internal("summing sales", err)
	}
	if stats.PendingOrders, err = s.orders.CountByStatus(ctx, models.StatusPending); err != nil {
		return nil, internal("counting pending orders", err)
	}
	if stats.OutOfStockProducts, err = s.products.CountOutOfStock(ctx); err != nil {
		return nil, internal("counting out of stock products", err)
	}
	return &stats, nil
}
