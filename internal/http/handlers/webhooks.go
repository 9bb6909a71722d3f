package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	webhooksvc "paybridge/internal/services/webhook"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// GatewayWebhook receives payment status notifications from the gateway.
// Every verification or lookup failure produces the same 200 response so
// the endpoint leaks nothing about which orders exist. Only a storage
// fault returns 5xx, which makes the gateway redeliver.
func GatewayWebhook(proc *webhooksvc.Processor, rdb *redis.Client, dedupeTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "read error", http.StatusBadRequest)
			return
		}

		key := deliveryKey(body)
		if rdb != nil && seenDelivery(r.Context(), rdb, key) {
			writeWebhookOK(w)
			return
		}

		outcome, err := proc.Handle(r.Context(), body, r.Header.Get("Signature"))
		if err != nil {
			log.Error().Err(err).Msg("webhook processing failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// Mark the payload as seen only once it was handled and reached
		// the state machine. A storage error returned 5xx above, so the
		// processor keeps redelivering; a rejected delivery (forged
		// signature, unknown order) must never block a later genuine one
		// carrying the same bytes.
		if rdb != nil && !outcome.Kind.Rejected() {
			markDelivery(r.Context(), rdb, key, dedupeTTL)
		}
		writeWebhookOK(w)
	}
}

func deliveryKey(body []byte) string {
	sum := sha256.Sum256(body)
	return "webhook:seen:" + hex.EncodeToString(sum[:])
}

// seenDelivery reports whether an identical payload was already handled
// inside the TTL window. Redis being down never blocks a delivery; dedupe
// is an optimization, the processor itself is idempotent.
func seenDelivery(ctx context.Context, rdb *redis.Client, key string) bool {
	n, err := rdb.Exists(ctx, key).Result()
	if err != nil {
		log.Warn().Err(err).Msg("webhook dedupe unavailable")
		return false
	}
	return n > 0
}

func markDelivery(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) {
	if err := rdb.Set(ctx, key, 1, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("webhook dedupe write failed")
	}
}

func writeWebhookOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
