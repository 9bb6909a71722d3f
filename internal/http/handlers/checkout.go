package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"paybridge/internal/provider"
	"paybridge/internal/services/checkout"
	"paybridge/internal/store/repositories"

	"github.com/go-chi/chi/v5"
)

// InitiateCheckout starts crypto payment for an order and returns the
// acquiring URL the buyer should be redirected to.
func InitiateCheckout(svc *checkout.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")
		if orderID == "" {
			http.Error(w, "missing order id", http.StatusBadRequest)
			return
		}

		redirect, err := svc.Initiate(r.Context(), orderID)
		if err != nil {
			writeInitiateError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"redirect": redirect.URL,
		})
	}
}

func writeInitiateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repositories.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, checkout.ErrNotInitiable):
		http.Error(w, "order cannot be paid", http.StatusConflict)
	default:
		var gerr *provider.GatewayError
		if errors.As(err, &gerr) {
			// The order is untouched on any gateway failure, so the
			// client may safely retry.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":     "payment service unavailable, please try again",
				"retryable": true,
			})
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
