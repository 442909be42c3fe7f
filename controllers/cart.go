package controllers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"go-grocery/models"
	"go-grocery/services"
)

// CartController handles cart-related requests
type CartController struct {
	carts  *services.CartService
	logger *zap.Logger
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService, logger *zap.Logger) *CartController {
	return &CartController{carts: carts, logger: logger}
}

type addItemRequest struct {
	ProductID string   `json:"productId" validate:"required,hexadecimal,len=24"`
	Quantity  int      `json:"quantity" validate:"required,min=1"`
	Price     *float64 `json:"price" validate:"omitempty,gte=0"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func (cc *CartController) respond(w http.ResponseWriter, r *http.Request, cart *models.Cart, err error) {
	if err != nil {
		writeError(cc.logger, w, r, err)
		return
	}
	view, err := cc.carts.View(r.Context(), cart)
	if err != nil {
		writeError(cc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetCart returns the user's cart, creating it on first access
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	cart, err := cc.carts.GetOrCreateCart(r.Context(), user.UserID)
	cc.respond(w, r, cart, err)
}

// AddToCart adds a product to the user's cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if !decode(w, r, &req) {
		return
	}
	productID, _ := primitive.ObjectIDFromHex(req.ProductID)

	cart, err := cc.carts.AddItem(r.Context(), user.UserID, productID, req.Quantity, req.Price)
	cc.respond(w, r, cart, err)
}

// UpdateCartItem sets the quantity of a line
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	var req updateItemRequest
	if !decode(w, r, &req) {
		return
	}

	cart, err := cc.carts.UpdateItem(r.Context(), user.UserID, productID, req.Quantity)
	cc.respond(w, r, cart, err)
}

// RemoveFromCart removes a product from the user's cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}

	cart, err := cc.carts.RemoveItem(r.Context(), user.UserID, productID)
	cc.respond(w, r, cart, err)
}

// ClearCart empties the user's cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	cart, err := cc.carts.Clear(r.Context(), user.UserID)
	cc.respond(w, r, cart, err)
}
