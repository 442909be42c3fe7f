package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is the purchase-time snapshot of a cart line
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
}

// Order represents a user's order. Only the status and the payment and
// delivery flags change after creation.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"user_id" json:"userId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress Address            `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod   PaymentMethod      `bson:"payment_method" json:"paymentMethod"`
	ItemsPrice      float64            `bson:"items_price" json:"itemsPrice"`
	TaxPrice        float64            `bson:"tax_price" json:"taxPrice"`
	ShippingPrice   float64            `bson:"shipping_price" json:"shippingPrice"`
	TotalPrice      float64            `bson:"total_price" json:"totalPrice"`
	Status          OrderStatus        `bson:"order_status" json:"orderStatus"`
	IsPaid          bool               `bson:"is_paid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"is_delivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// statusRank orders the forward path; cancelled sits outside it.
var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed:
// forward along the fulfilment path, or to cancelled from any
// non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}
