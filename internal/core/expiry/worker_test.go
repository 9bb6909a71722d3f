package expiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"paybridge/internal/domain/order"
	"paybridge/internal/provider"
	"paybridge/internal/store/memory"

	"github.com/stretchr/testify/require"
)

const (
	paidText    = "Hey, your order is paid! Thank you!"
	expiredText = "The link was expired. Payment failed. You can try another payment method or contact us."
)

type gatewayStub struct {
	status string
	err    error
}

func (g gatewayStub) CreateOrder(_ context.Context, _ *order.Order) (provider.OrderResult, error) {
	return provider.OrderResult{}, errors.New("not used")
}

func (g gatewayStub) GetOrder(_ context.Context, _ string) (provider.OrderResult, error) {
	if g.err != nil {
		return provider.OrderResult{}, g.err
	}
	return provider.OrderResult{Status: g.status}, nil
}

func newSweep(store *memory.Store, gw provider.Gateway) *Worker {
	return NewWorker(store, gw, time.Minute, 30*time.Minute, paidText, expiredText)
}

func seedStalePending(t *testing.T, store *memory.Store, id string, age time.Duration) {
	t.Helper()
	ord, err := order.New(id, "7", 1000, order.USD)
	require.NoError(t, err)
	ord.Status = order.StatusPendingPayment
	ord.UpdatedAt = time.Now().Add(-age)
	store.Seed(ord)
}

func TestTickExpiresStalePending(t *testing.T) {
	store := memory.New()
	seedStalePending(t, store, "42", time.Hour)

	newSweep(store, nil).tick(context.Background())

	require.Equal(t, order.StatusExpired, store.Status("42"))
	notes := store.Notes("42")
	require.Len(t, notes, 1)
	require.Equal(t, expiredText, notes[0].Text)
}

func TestTickLeavesFreshPendingAlone(t *testing.T) {
	store := memory.New()
	seedStalePending(t, store, "42", 5*time.Minute)

	newSweep(store, nil).tick(context.Background())

	require.Equal(t, order.StatusPendingPayment, store.Status("42"))
	require.Empty(t, store.Notes("42"))
}

func TestExpiredOrderStaysExpired(t *testing.T) {
	store := memory.New()
	seedStalePending(t, store, "42", time.Hour)

	w := newSweep(store, nil)
	w.tick(context.Background())
	require.Equal(t, order.StatusExpired, store.Status("42"))

	// Terminal means terminal: a second sweep changes nothing.
	w.tick(context.Background())
	require.Equal(t, order.StatusExpired, store.Status("42"))
	require.Len(t, store.Notes("42"), 1)
}

func TestSweepAdoptsProcessorCompletion(t *testing.T) {
	store := memory.New()
	seedStalePending(t, store, "42", time.Hour)

	// The payment went through but the callback never arrived. The sweep
	// recovers the real outcome instead of expiring over it.
	newSweep(store, gatewayStub{status: "COMPLETE"}).tick(context.Background())

	require.Equal(t, order.StatusCompleted, store.Status("42"))
	notes := store.Notes("42")
	require.Len(t, notes, 1)
	require.Equal(t, paidText, notes[0].Text)
	require.Equal(t, 1, store.CompletionSignals["42"])

	ord, err := store.Load(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, ord.PaidAt)
}

func TestSweepAdoptsProcessorDecline(t *testing.T) {
	store := memory.New()
	seedStalePending(t, store, "42", time.Hour)

	newSweep(store, gatewayStub{status: "DECLINED"}).tick(context.Background())

	require.Equal(t, order.StatusFailed, store.Status("42"))
	notes := store.Notes("42")
	require.Len(t, notes, 1)
	require.Equal(t, expiredText, notes[0].Text)
	require.Zero(t, store.CompletionSignals["42"])
}

func TestSweepSkipsUnrecognizedSettledStatus(t *testing.T) {
	store := memory.New()
	seedStalePending(t, store, "42", time.Hour)

	// A settled status the sweep cannot map stays pending for an operator
	// instead of being guessed at.
	newSweep(store, gatewayStub{status: "BLOCKED"}).tick(context.Background())

	require.Equal(t, order.StatusPendingPayment, store.Status("42"))
	require.Empty(t, store.Notes("42"))
}

func TestSweepProceedsWhenProcessorUnreachable(t *testing.T) {
	store := memory.New()
	seedStalePending(t, store, "42", time.Hour)

	gw := gatewayStub{err: provider.Unavailable(errors.New("timeout"))}
	newSweep(store, gw).tick(context.Background())

	require.Equal(t, order.StatusExpired, store.Status("42"))
}
