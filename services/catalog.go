package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/store"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// ProductInput carries the writable product fields. Nil pointers leave
// the current value untouched on update.
type ProductInput struct {
	Name          *string
	Description   *string
	Price         *float64
	OriginalPrice *float64
	Category      *models.Category
	Image         *string
	Stock         *int
	Unit          *models.Unit
	Brand         *string
	IsActive      *bool
	Featured      *bool
}

type CatalogService struct {
	products store.ProductStore
	now      func() time.Time
}

func NewCatalogService(products store.ProductStore) *CatalogService {
	return &CatalogService{products: products, now: func() time.Time { return time.Now().UTC() }}
}

// List returns one page of products. Page and limit are clamped to sane
// values.
func (s *CatalogService) List(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, invalid("unknown category %q", filter.Category)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, internal("listing products", err)
	}

	pages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return &models.ProductPage{
		Products: products,
		Page:     filter.Page,
		Pages:    pages,
		Total:    total,
		HasMore:  filter.Page < pages,
	}, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, internal("listing categories", err)
	}
	return categories, nil
}

// Get returns a product. With activeOnly, inactive products are
// reported as missing.
func (s *CatalogService) Get(ctx context.Context, id primitive.ObjectID, activeOnly bool) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && activeOnly && !product.IsActive) {
		return nil, notFound("product not found")
	}
	if err != nil {
		return nil, internal("loading product", err)
	}
	return product, nil
}

func applyProductInput(p *models.Product, in ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.Brand != nil {
		p.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return invalid("name is required")
	case p.Price < 0:
		return invalid("price must not be negative")
	case p.OriginalPrice < 0:
		return invalid("original price must not be negative")
	case p.Stock < 0:
		return invalid("stock must not be negative")
	case !p.Category.IsValid():
		return invalid("unknown category %q", p.Category)
	case !p.Unit.IsValid():
		return invalid("unknown unit %q", p.Unit)
	}
	return nil
}

// Create adds a product. New products are active, sold by the piece and
// carry the default brand unless told otherwise.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	now := s.now()
	product := &models.Product{
		ID:        primitive.NewObjectID(),
		Unit:      models.UnitPiece,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProductInput(product, in)
	if product.Brand == "" {
		product.Brand = models.DefaultBrand
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, internal("creating product", err)
	}
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, id primitive.ObjectID, in ProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	applyProductInput(product, in)
	if product.Brand == "" {
		product.Brand = models.DefaultBrand
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.UpdatedAt = s.now()

	err = s.products.Update(ctx, product)
	if err == nil && in.Stock != nil {
		err = s.products.SetStock(ctx, id, *in.Stock)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("product not found")
	}
	if err != nil {
		return nil, internal("updating product", err)
	}
	return s.Get(ctx, id, false)
}

func (s *CatalogService) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("product not found")
	}
	if err != nil {
		return internal("deleting product", err)
	}
	return nil
}
