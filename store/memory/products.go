package memory

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/store"
)

type Products struct {
	db *DB
}

func NewProducts(db *DB) *Products {
	return &Products{db: db}
}

func (s *Products) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	p, ok := s.db.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Products) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	result := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.db.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func matches(p models.Product, filter models.ProductFilter) bool {
	if filter.ActiveOnly && !p.IsActive {
		return false
	}
	if filter.Category != "" && p.Category != filter.Category {
		return false
	}
	if filter.Featured != nil && p.Featured != *filter.Featured {
		return false
	}
	return true
}

func (s *Products) List(_ context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	s.db.mu.RLock()
	all := make([]models.Product, 0, len(s.db.products))
	for _, p := range s.db.products {
		if matches(p, filter) {
			all = append(all, p)
		}
	}
	s.db.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.Hex() > all[j].ID.Hex()
	})

	total := int64(len(all))
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.Limit
		if start > len(all) {
			start = len(all)
		}
		end := start + filter.Limit
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	return all, total, nil
}

func (s *Products) Categories(_ context.Context) ([]models.Category, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	seen := map[models.Category]bool{}
	for _, p := range s.db.products {
		if p.IsActive {
			seen[p.Category] = true
		}
	}
	categories := []models.Category{}
	for _, c := range models.Categories {
		if seen[c] {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func (s *Products) Create(_ context.Context, product *models.Product) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if _, ok := s.db.products[product.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.products[product.ID] = *product
	return nil
}

func (s *Products) Update(_ context.Context, product *models.Product) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.products[product.ID]
	if !ok {
		return store.ErrNotFound
	}
	updated := *product
	updated.Stock = existing.Stock
	updated.CreatedAt = existing.CreatedAt
	s.db.products[product.ID] = updated
	return nil
}

func (s *Products) SetStock(_ context.Context, id primitive.ObjectID, stock int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.db.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Stock = stock
	p.UpdatedAt = time.Now().UTC()
	s.db.products[id] = p
	return nil
}

func (s *Products) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.products, id)
	return nil
}

func (s *Products) DecrementStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.db.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Stock < quantity {
		return store.ErrInsufficientStock
	}
	p.Stock -= quantity
	p.UpdatedAt = time.Now().UTC()
	s.db.products[id] = p
	return nil
}

func (s *Products) IncrementStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.db.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Stock += quantity
	p.UpdatedAt = time.Now().UTC()
	s.db.products[id] = p
	return nil
}

func (s *Products) Count(_ context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return int64(len(s.db.products)), nil
}

func (s *Products) CountOutOfStock(_ context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var n int64
	for _, p := range s.db.products {
		if p.Stock == 0 {
			n++
		}
	}
	return n, nil
}

var _ store.ProductStore = (*Products)(nil)
