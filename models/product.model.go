package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents a catalog item
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice float64            `bson:"original_price" json:"originalPrice"`
	Category      Category           `bson:"category" json:"category"`
	Image         string             `bson:"image" json:"image"`
	Stock         int                `bson:"stock" json:"stock"`
	Unit          Unit               `bson:"unit" json:"unit"`
	Brand         string             `bson:"brand" json:"brand"`
	IsActive      bool               `bson:"is_active" json:"isActive"`
	Featured      bool               `bson:"featured" json:"featured"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// DefaultBrand is used when a product is created without a brand.
const DefaultBrand = "Store Brand"

// ProductSummary is the subset of product fields shown on cart lines
type ProductSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Price float64            `json:"price"`
	Image string             `json:"image"`
	Stock int                `json:"stock"`
	Unit  Unit               `json:"unit"`
}

// Summary returns the populated view of the product used by the cart.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.Image,
		Stock: p.Stock,
		Unit:  p.Unit,
	}
}

// ProductFilter narrows catalog listings
type ProductFilter struct {
	Category   Category
	Featured   *bool
	ActiveOnly bool
	Page       int
	Limit      int
}

// ProductPage is one page of a catalog listing
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Total    int64     `json:"total"`
	HasMore  bool      `json:"hasMore"`
}
