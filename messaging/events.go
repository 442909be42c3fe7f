package messaging

import (
	"time"

	"github.com/google/uuid"

	"go-grocery/models"
)

// Event types, also used as the AMQP message type.
const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderEvent is the message body published for order changes.
type OrderEvent struct {
	ID             string             `json:"id"`
	Type           string             `json:"type"`
	OccurredAt     time.Time          `json:"occurredAt"`
	OrderID        string             `json:"orderId"`
	UserID         string             `json:"userId"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previousStatus,omitempty"`
	TotalPrice     float64            `json:"totalPrice"`
	Items          []OrderLine        `json:"items"`
}

// NewOrderEvent describes order as an event of the given type.
func NewOrderEvent(eventType string, order models.Order, previous models.OrderStatus, at time.Time) OrderEvent {
	lines := make([]OrderLine, len(order.Items))
	for i, item := range order.Items {
		lines[i] = OrderLine{ProductID: item.ProductID.Hex(), Quantity: item.Quantity}
	}
	return OrderEvent{
		ID:             uuid.NewString(),
		Type:           eventType,
		OccurredAt:     at.UTC(),
		OrderID:        order.ID.Hex(),
		UserID:         order.UserID.Hex(),
		Status:         order.Status,
		PreviousStatus: previous,
		TotalPrice:     order.TotalPrice,
		Items:          lines,
	}
}
