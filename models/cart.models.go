package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents an item in the cart. Price is snapshotted when
// the line is first added.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
}

// Cart represents a user's shopping cart
type Cart struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	Items       []CartItem         `bson:"items" json:"items"`
	TotalAmount float64            `bson:"total_amount" json:"totalAmount"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// NewCart returns an empty cart owned by userID.
func NewCart(userID primitive.ObjectID) *Cart {
	return &Cart{
		UserID: userID,
		Items:  []CartItem{},
	}
}

// FindItem returns the index of the line for productID, or -1.
func (c *Cart) FindItem(productID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = append([]CartItem{}, c.Items...)
	return &cp
}

// CartItemView is a cart line with its product populated
type CartItemView struct {
	Product  ProductSummary `json:"product"`
	Quantity int            `json:"quantity"`
	Price    float64        `json:"price"`
}

// CartView is the cart as returned to clients
type CartView struct {
	ID          primitive.ObjectID `json:"id,omitempty"`
	UserID      primitive.ObjectID `json:"userId"`
	Items       []CartItemView     `json:"items"`
	TotalAmount float64            `json:"totalAmount"`
	Totals      Totals             `json:"totals"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// Totals is the price breakdown for a set of lines
type Totals struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}
