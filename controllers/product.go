package controllers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"go-grocery/models"
	"go-grocery/services"
)

// ProductController handles product-related requests
type ProductController struct {
	catalog *services.CatalogService
	logger  *zap.Logger
}

// NewProductController creates a new ProductController
func NewProductController(catalog *services.CatalogService, logger *zap.Logger) *ProductController {
	return &ProductController{catalog: catalog, logger: logger}
}

type productRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string  `json:"description" validate:"omitempty,max=500"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice *float64 `json:"originalPrice" validate:"omitempty,gte=0"`
	Category      *string  `json:"category" validate:"omitempty,oneof=fruits vegetables dairy meat bakery beverages snacks"`
	Image         *string  `json:"image"`
	Stock         *int     `json:"stock" validate:"omitempty,gte=0"`
	Unit          *string  `json:"unit" validate:"omitempty,oneof=kg gm liter ml piece pack dozen"`
	Brand         *string  `json:"brand" validate:"omitempty,max=50"`
	IsActive      *bool    `json:"isActive"`
	Featured      *bool    `json:"featured"`
}

func (req productRequest) input() services.ProductInput {
	in := services.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Image:         req.Image,
		Stock:         req.Stock,
		Brand:         req.Brand,
		IsActive:      req.IsActive,
		Featured:      req.Featured,
	}
	if req.Category != nil {
		c := models.Category(*req.Category)
		in.Category = &c
	}
	if req.Unit != nil {
		u := models.Unit(*req.Unit)
		in.Unit = &u
	}
	return in
}

// GetProducts lists active products, optionally by category or featured
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ProductFilter{
		Category:   models.Category(q.Get("category")),
		ActiveOnly: true,
	}
	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "Invalid featured")
			return
		}
		filter.Featured = &featured
	}
	for name, dst := range map[string]*int{"page": &filter.Page, "limit": &filter.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "Invalid "+name)
			return
		}
		*dst = n
	}

	page, err := pc.catalog.List(r.Context(), filter)
	if err != nil {
		writeError(pc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetCategories lists the categories that have active products
func (pc *ProductController) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := pc.catalog.Categories(r.Context())
	if err != nil {
		writeError(pc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// GetProductByID retrieves a single active product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	product, err := pc.catalog.Get(r.Context(), id, true)
	if err != nil {
		writeError(pc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decode(w, r, &req) {
		return
	}
	product, err := pc.catalog.Create(r.Context(), req.input())
	if err != nil {
		writeError(pc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles updating a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req productRequest
	if !decode(w, r, &req) {
		return
	}
	product, err := pc.catalog.Update(r.Context(), id, req.input())
	if err != nil {
		writeError(pc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := pc.catalog.Delete(r.Context(), id); err != nil {
		writeError(pc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}
