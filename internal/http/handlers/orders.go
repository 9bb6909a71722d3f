package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"paybridge/internal/store/postgres"
	"paybridge/internal/store/repositories"

	"github.com/go-chi/chi/v5"
)

func ListOrders(repo *postgres.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		offset := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}
		rows, err := repo.ListOrders(r.Context(), limit, offset)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": rows})
	}
}

// GetOrder returns a single order together with its customer notes.
func GetOrder(repo *postgres.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "orderID")
		ord, err := repo.Load(r.Context(), id)
		if err != nil {
			if errors.Is(err, repositories.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		notes, err := repo.Notes(r.Context(), id)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"order": ord,
			"notes": notes,
		})
	}
}
