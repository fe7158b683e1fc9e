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

// CartController handles cart-related requests
type CartController struct {
	Cart  *services.CartService
	Users repository.UserRepository
}

// NewCartController creates a new CartController
func NewCartController(cart *services.CartService, users repository.UserRepository) *CartController {
	return &CartController{Cart: cart, Users: users}
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// AddToCart adds a product (optionally a specific variant) to the cart.
// Quantities beyond the available stock are clamped, not rejected.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := currentUser(ctx, cc.Users, r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	var variantID *primitive.ObjectID
	if req.VariantID != "" {
		id, err := primitive.ObjectIDFromHex(req.VariantID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid variant ID")
			return
		}
		variantID = &id
	}

	line, err := cc.Cart.AddItem(ctx, user.ID, productID, variantID, req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Product added to cart",
		"cart_item": line,
	})
}

// GetCart retrieves the user's cart with resolved prices and totals.
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := currentUser(ctx, cc.Users, r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	view, err := cc.Cart.GetCart(ctx, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// UpdateCartItem overwrites a cart line's quantity. A quantity above the
// available stock is rejected with the stock named in the error.
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := currentUser(ctx, cc.Users, r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	lineID, err := primitive.ObjectIDFromHex(mux.Vars(r)["item_id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	line, err := cc.Cart.UpdateItem(ctx, user.ID, lineID, req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Cart updated",
		"cart_item": line,
	})
}

// RemoveFromCart removes a line from the user's cart.
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := currentUser(ctx, cc.Users, r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	lineID, err := primitive.ObjectIDFromHex(mux.Vars(r)["item_id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := cc.Cart.RemoveItem(ctx, user.ID, lineID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item removed"})
}

// ClearCart empties the user's cart; clearing an empty cart succeeds.
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := currentUser(ctx, cc.Users, r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := cc.Cart.ClearCart(ctx, user.ID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}
