package repositories

import (
	"context"
	"errors"
	"time"

	"paybridge/internal/domain/order"
	"paybridge/internal/domain/webhook"
)

// ErrOrderNotFound is returned when the store has no record of an order.
var ErrOrderNotFound = errors.New("order not found")

// OrderStore defines the contract for order data access. The payment core
// consumes it; implementations live in store/postgres and store/memory.
type OrderStore interface {
	Load(ctx context.Context, id string) (*order.Order, error)

	// Atomic runs fn inside a single atomic scope. Status writes and their
	// tied side effects (note append, hooks) must share one scope so a
	// losing concurrent delivery performs zero side effects.
	Atomic(ctx context.Context, fn func(OrderTx) error) error
}

// OrderTx is the per-order mutation surface available inside Atomic.
type OrderTx interface {
	// LoadStatus re-reads the current stored status of an order.
	LoadStatus(ctx context.Context, id string) (order.Status, error)

	// CompareAndSetStatus transitions the order only if the stored status
	// still equals expected. Returns false when another writer won.
	CompareAndSetStatus(ctx context.Context, ord *order.Order, expected, next order.Status) (bool, error)

	SetAcquiringURL(ctx context.Context, ord *order.Order, url string) error
	AppendNote(ctx context.Context, ord *order.Order, text string) error
	MarkPaid(ctx context.Context, ord *order.Order, at time.Time) error

	StoreHooks
}

// StoreHooks are the store-level side effects tied to lifecycle transitions.
type StoreHooks interface {
	ReduceStock(ctx context.Context, ord *order.Order) error
	ClearCart(ctx context.Context, ord *order.Order) error
	OnPaymentCompleted(ctx context.Context, ord *order.Order) error
}

// DeliveryLog records authenticated webhook deliveries for audit and replay.
type DeliveryLog interface {
	Record(ctx context.Context, d *webhook.Delivery) error
	ListSince(ctx context.Context, since time.Time, limit int) ([]*webhook.Delivery, error)
}
