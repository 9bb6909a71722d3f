package handlers

import (
	"encoding/json"
	"net/http"

	webhooksvc "paybridge/internal/services/webhook"
)

// ReplayDeliveries reprocesses logged webhook deliveries, e.g. after a
// database restore. Admin only.
func ReplayDeliveries(svc *webhooksvc.ReplayService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req webhooksvc.ReplayRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid JSON", http.StatusBadRequest)
				return
			}
		}

		resp, err := svc.Replay(r.Context(), req)
		if err != nil {
			http.Error(w, "replay failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
