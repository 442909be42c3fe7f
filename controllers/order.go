package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"go-grocery/models"
	"go-grocery/services"
)

// OrderController handles order-related requests
type OrderController struct {
	orders *services.OrderService
	logger *zap.Logger
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService, logger *zap.Logger) *OrderController {
	return &OrderController{orders: orders, logger: logger}
}

type placeOrderRequest struct {
	ShippingAddress models.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod" validate:"required,oneof=card cash_on_delivery"`
	ItemsPrice      *float64       `json:"itemsPrice" validate:"omitempty,gte=0"`
	TaxPrice        *float64       `json:"taxPrice" validate:"omitempty,gte=0"`
	ShippingPrice   *float64       `json:"shippingPrice" validate:"omitempty,gte=0"`
	TotalPrice      *float64       `json:"totalPrice" validate:"omitempty,gte=0"`
}

// clientTotals returns the submitted totals when all four were sent.
func (req placeOrderRequest) clientTotals() *models.Totals {
	if req.ItemsPrice == nil || req.TaxPrice == nil || req.ShippingPrice == nil || req.TotalPrice == nil {
		return nil
	}
	return &models.Totals{
		ItemsPrice:    *req.ItemsPrice,
		TaxPrice:      *req.TaxPrice,
		ShippingPrice: *req.ShippingPrice,
		TotalPrice:    *req.TotalPrice,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

// CreateOrder places an order from the user's cart
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req placeOrderRequest
	if !decode(w, r, &req) {
		return
	}

	order, err := oc.orders.PlaceOrder(r.Context(), services.PlaceOrderInput{
		UserID:          user.UserID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		ClientTotals:    req.clientTotals(),
	})
	if err != nil {
		writeError(oc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// GetMyOrders lists the caller's orders, newest first
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	orders, err := oc.orders.ListMine(r.Context(), user.UserID)
	if err != nil {
		writeError(oc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrders lists every order (Admin only)
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := oc.orders.ListAll(r.Context())
	if err != nil {
		writeError(oc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrderByID returns one order to its owner or an admin
func (oc *OrderController) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := oc.orders.GetOrder(r.Context(), user, id)
	if err != nil {
		writeError(oc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateOrderToPaid marks an order as paid
func (oc *OrderController) UpdateOrderToPaid(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := oc.orders.MarkPaid(r.Context(), user, id)
	if err != nil {
		writeError(oc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateOrderToDelivered marks an order as delivered (Admin only)
func (oc *OrderController) UpdateOrderToDelivered(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := oc.orders.MarkDelivered(r.Context(), id)
	if err != nil {
		writeError(oc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus moves an order through its lifecycle (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := oc.orders.UpdateStatus(r.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		writeError(oc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
