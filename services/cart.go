package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/store"
)

// CartService owns the per-user cart. Every mutation validates against
// live stock and recomputes the cached total before saving.
type CartService struct {
	carts    store.CartStore
	products store.ProductStore
	prices   PriceCalculator
}

func NewCartService(carts store.CartStore, products store.ProductStore, prices PriceCalculator) *CartService {
	return &CartService{carts: carts, products: products, prices: prices}
}

// GetOrCreateCart returns the user's cart, creating an empty one first
// if needed.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, internal("loading cart", err)
	}
	return cart, nil
}

func (s *CartService) existingCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("cart not found")
	}
	if err != nil {
		return nil, internal("loading cart", err)
	}
	return cart, nil
}

// activeProduct loads a product that may be sold. Inactive products are
// reported as missing.
func (s *CartService) activeProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !product.IsActive) {
		return nil, notFound("product %s not found", id.Hex())
	}
	if err != nil {
		return nil, internal("loading product", err)
	}
	return product, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) error {
	cart.TotalAmount = Subtotal(LinesFromCart(cart.Items))
	if err := s.carts.Save(ctx, cart); err != nil {
		return internal("saving cart", err)
	}
	return nil
}

// AddItem adds quantity of a product. An existing line is incremented
// and keeps its original price; a new line takes priceOverride when
// given, otherwise the current product price. The stock check applies to
// the resulting line quantity.
func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int, priceOverride *float64) (*models.Cart, error) {
	if quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}
	if priceOverride != nil && *priceOverride < 0 {
		return nil, invalid("price must not be negative")
	}

	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(productID)
	resulting := quantity
	if idx >= 0 {
		resulting += cart.Items[idx].Quantity
	}
	if err := ValidateStock(*product, resulting); err != nil {
		return nil, err
	}

	if idx >= 0 {
		cart.Items[idx].Quantity = resulting
	} else {
		price := product.Price
		if priceOverride != nil {
			price = *priceOverride
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			Price:     price,
		})
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets the quantity of an existing line. The product and its
// stock are checked before the cart, so an over-stock quantity reports
// InsufficientStock even when the line is missing.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}

	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := ValidateStock(*product, quantity); err != nil {
		return nil, err
	}

	cart, err := s.existingCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := cart.FindItem(productID)
	if idx < 0 {
		return nil, notFound("item not found in cart")
	}

	cart.Items[idx].Quantity = quantity
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops the line for productID. Removing a product that is
// not in the cart leaves the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.existingCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(productID)
	if idx < 0 {
		return cart, nil
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.existingCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// View populates product details and the price breakdown. Lines whose
// product no longer exists keep their id only.
func (s *CartService) View(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	ids := make([]primitive.ObjectID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internal("loading cart products", err)
	}

	view := &models.CartView{
		ID:          cart.ID,
		UserID:      cart.UserID,
		Items:       make([]models.CartItemView, 0, len(cart.Items)),
		TotalAmount: cart.TotalAmount,
		Totals:      s.prices.Totals(LinesFromCart(cart.Items)),
		UpdatedAt:   cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		summary := models.ProductSummary{ID: item.ProductID}
		if p, ok := products[item.ProductID]; ok {
			summary = p.Summary()
		}
		view.Items = append(view.Items, models.CartItemView{
			Product:  summary,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return view, nil
}
