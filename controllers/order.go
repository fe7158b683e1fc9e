// controllers/order.go
package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pfw-commerce/repository"
	"pfw-commerce/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderController handles order-related requests
type OrderController struct {
	Orders *services.OrderService
	Users  repository.UserRepository
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService, users repository.UserRepository) *OrderController {
	return &OrderController{Orders: orders, Users: users}
}

// CreateOrder converts the user's cart into an order.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	user, err := currentUser(ctx, oc.Users, r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var shipping services.ShippingDetails
	if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := oc.Orders.CreateOrder(ctx, user, shipping)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Order created",
		"order": map[string]interface{}{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"total":        order.TotalAmount,
			"status":       order.Status,
			"created_at":   order.CreatedAt,
		},
	})
}

// GetMyOrders lists the user's orders, newest first.
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := currentUser(ctx, oc.Users, r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	orders, err := oc.Orders.GetMyOrders(ctx, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderDetail returns one of the user's orders with full line items.
func (oc *OrderController) GetOrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := currentUser(ctx, oc.Users, r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["order_id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := oc.Orders.GetOrderDetail(ctx, user.ID, orderID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

// UpdateOrderStatus moves an order through its status set (admin only; the
// admin middleware gates the route).
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["order_id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := oc.Orders.UpdateStatus(ctx, orderID, req.Status); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order status updated"})
}
