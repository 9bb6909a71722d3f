package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paybridge/internal/domain/order"
	"paybridge/internal/provider/whitepay"
	webhooksvc "paybridge/internal/services/webhook"
	"paybridge/internal/store/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const hookSecret = "hook-secret"

func newWebhookFixture(t *testing.T) (http.HandlerFunc, *memory.Store) {
	t.Helper()
	store := memory.New()
	auth := whitepay.New(whitepay.Config{WebhookSecret: hookSecret})
	proc := webhooksvc.NewProcessor(auth, store, store, "paid", "failed")
	return GatewayWebhook(proc, nil, 0), store
}

func seedPendingOrder(t *testing.T, store *memory.Store, id string) {
	t.Helper()
	ord, err := order.New(id, "7", 1000, order.USD)
	require.NoError(t, err)
	ord.Status = order.StatusPendingPayment
	store.Seed(ord)
}

func deliver(h http.HandlerFunc, body []byte, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whitepay", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set("Signature", sig)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestWebhookAppliesTransition(t *testing.T) {
	h, store := newWebhookFixture(t)
	seedPendingOrder(t, store, "42")

	body := []byte(`{"order":{"external_order_id":"42","status":"COMPLETE"}}`)
	rec := deliver(h, body, whitepay.Signature(body, hookSecret))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, order.StatusCompleted, store.Status("42"))
}

// All failure modes must be indistinguishable from the caller's side so the
// endpoint cannot be probed for which orders exist or which secrets work.
func TestWebhookFailureResponsesAreIdentical(t *testing.T) {
	h, store := newWebhookFixture(t)
	seedPendingOrder(t, store, "42")

	valid := []byte(`{"order":{"external_order_id":"42","status":"COMPLETE"}}`)
	malformed := []byte(`{"order":{}}`)
	unknown := []byte(`{"order":{"external_order_id":"999","status":"COMPLETE"}}`)

	cases := map[string]*httptest.ResponseRecorder{
		"invalid signature": deliver(h, valid, "deadbeef"),
		"missing signature": deliver(h, valid, ""),
		"malformed payload": deliver(h, malformed, whitepay.Signature(malformed, hookSecret)),
		"unknown order":     deliver(h, unknown, whitepay.Signature(unknown, hookSecret)),
	}

	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, http.StatusOK, rec.Code)
			require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		})
	}

	// And none of them moved the order. The invalid-signature delivery
	// named order 42 but must have no visible effect on it.
	require.Equal(t, order.StatusPendingPayment, store.Status("42"))
	require.Empty(t, store.Notes("42"))
}

func TestWebhookDedupeDropsIdenticalRedelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := memory.New()
	auth := whitepay.New(whitepay.Config{WebhookSecret: hookSecret})
	proc := webhooksvc.NewProcessor(auth, store, store, "paid", "failed")
	h := GatewayWebhook(proc, rdb, time.Minute)

	seedPendingOrder(t, store, "42")
	body := []byte(`{"order":{"external_order_id":"42","status":"COMPLETE"}}`)
	sig := whitepay.Signature(body, hookSecret)

	for i := 0; i < 3; i++ {
		rec := deliver(h, body, sig)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	require.Equal(t, order.StatusCompleted, store.Status("42"))

	// Only the first delivery reached the processor; the rest were dropped
	// at the transport before being logged.
	list, err := store.ListSince(context.Background(), time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestWebhookDedupeSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close() // every redis call now errors

	store := memory.New()
	auth := whitepay.New(whitepay.Config{WebhookSecret: hookSecret})
	proc := webhooksvc.NewProcessor(auth, store, store, "paid", "failed")
	h := GatewayWebhook(proc, rdb, time.Minute)

	seedPendingOrder(t, store, "42")
	body := []byte(`{"order":{"external_order_id":"42","status":"COMPLETE"}}`)
	rec := deliver(h, body, whitepay.Signature(body, hookSecret))

	// Dedupe degrades to a pass-through; the delivery is still handled.
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, order.StatusCompleted, store.Status("42"))
}

// flakyOrders fails a number of loads before delegating, simulating a
// transient database outage during delivery handling.
type flakyOrders struct {
	*memory.Store
	failures int
}

func (s *flakyOrders) Load(ctx context.Context, id string) (*order.Order, error) {
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("read tcp: connection reset by peer")
	}
	return s.Store.Load(ctx, id)
}

func TestWebhookRedeliveryAfterStorageError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := memory.New()
	orders := &flakyOrders{Store: store, failures: 1}
	auth := whitepay.New(whitepay.Config{WebhookSecret: hookSecret})
	proc := webhooksvc.NewProcessor(auth, orders, store, "paid", "failed")
	h := GatewayWebhook(proc, rdb, time.Minute)

	seedPendingOrder(t, store, "42")
	body := []byte(`{"order":{"external_order_id":"42","status":"COMPLETE"}}`)
	sig := whitepay.Signature(body, hookSecret)

	// The first attempt hits the storage fault: 5xx so the processor
	// retries, and the payload must not be marked as seen.
	rec := deliver(h, body, sig)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, order.StatusPendingPayment, store.Status("42"))

	// The identical redelivery goes through.
	rec = deliver(h, body, sig)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, order.StatusCompleted, store.Status("42"))
}

func TestWebhookForgedDeliveryDoesNotSuppressGenuine(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := memory.New()
	auth := whitepay.New(whitepay.Config{WebhookSecret: hookSecret})
	proc := webhooksvc.NewProcessor(auth, store, store, "paid", "failed")
	h := GatewayWebhook(proc, rdb, time.Minute)

	seedPendingOrder(t, store, "42")
	body := []byte(`{"order":{"external_order_id":"42","status":"COMPLETE"}}`)

	// An attacker who guesses the payload bytes but not the secret gets
	// the uniform 200 and leaves no dedupe trace.
	rec := deliver(h, body, "deadbeef")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, order.StatusPendingPayment, store.Status("42"))

	// The genuine delivery with the same bytes still applies.
	rec = deliver(h, body, whitepay.Signature(body, hookSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, order.StatusCompleted, store.Status("42"))
}

func TestWebhookDistinctPayloadsNotDeduped(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := memory.New()
	auth := whitepay.New(whitepay.Config{WebhookSecret: hookSecret})
	proc := webhooksvc.NewProcessor(auth, store, store, "paid", "failed")
	h := GatewayWebhook(proc, rdb, time.Minute)

	seedPendingOrder(t, store, "41")
	seedPendingOrder(t, store, "42")

	for _, id := range []string{"41", "42"} {
		body := []byte(fmt.Sprintf(`{"order":{"external_order_id":"%s","status":"COMPLETE"}}`, id))
		rec := deliver(h, body, whitepay.Signature(body, hookSecret))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	require.Equal(t, order.StatusCompleted, store.Status("41"))
	require.Equal(t, order.StatusCompleted, store.Status("42"))
}
