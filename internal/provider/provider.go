package provider

import (
	"context"

	"paybridge/internal/domain/order"
)

// Gateway is the outbound surface of the payment processor consumed by the
// checkout flow and the expiry sweep.
type Gateway interface {
	// CreateOrder opens a crypto payment for the given store order and
	// returns the processor's view of it. Expected failures come back as
	// *GatewayError; the caller must not mutate the order on any error.
	CreateOrder(ctx context.Context, ord *order.Order) (OrderResult, error)

	// GetOrder fetches the current processor-side state of an order.
	GetOrder(ctx context.Context, externalOrderID string) (OrderResult, error)
}
