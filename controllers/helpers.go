package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pfw-commerce/middleware"
	"pfw-commerce/models"
	"pfw-commerce/repository"
	"pfw-commerce/services"
	"pfw-commerce/utils"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps the business error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is an internal failure and is masked.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, services.ErrInvalidArgument),
		errors.Is(err, services.ErrOutOfStock),
		errors.Is(err, services.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// currentUser resolves the authenticated account from the request claims.
func currentUser(ctx context.Context, users repository.UserRepository, r *http.Request) (*models.User, error) {
	claims, ok := r.Context().Value(middleware.UserContextKey).(*utils.Claims)
	if !ok {
		return nil, services.ErrUnauthorized
	}
	user, err := users.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, services.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
