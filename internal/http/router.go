package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"paybridge/internal/config"
	"paybridge/internal/http/handlers"
	middlewarex "paybridge/internal/http/middleware"
	"paybridge/internal/services/checkout"
	webhooksvc "paybridge/internal/services/webhook"
	"paybridge/internal/store/postgres"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

// RouterDependencies holds everything the HTTP surface needs.
type RouterDependencies struct {
	Config    config.Cfg
	Repo      *postgres.Repo
	Checkout  *checkout.Service
	Processor *webhooksvc.Processor
	Replay    *webhooksvc.ReplayService
	Redis     *redis.Client // optional, enables webhook dedupe
	ReplayTTL time.Duration
}

// NewRouter wires the API, webhook and admin routes.
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	// Storefront-facing API, guarded by the shared service token.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarex.ServiceAuth(deps.Config))

		r.Post("/checkout/{orderID}", handlers.InitiateCheckout(deps.Checkout))
		r.Get("/orders", handlers.ListOrders(deps.Repo))
		r.Get("/orders/{orderID}", handlers.GetOrder(deps.Repo))
	})

	// Gateway callbacks. Public, authenticated by HMAC signature.
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/whitepay", handlers.GatewayWebhook(deps.Processor, deps.Redis, deps.ReplayTTL))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middlewarex.AdminAuth(deps.Config))

		r.Post("/webhooks/replay", handlers.ReplayDeliveries(deps.Replay))
	})

	return r
}
