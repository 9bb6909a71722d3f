package checkout

import (
	"context"
	"errors"
	"fmt"

	"paybridge/internal/domain/order"
	"paybridge/internal/provider"
	"paybridge/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// ErrNotInitiable is returned when the order is not in a state that allows
// opening a payment (already finalized, or never recorded as created).
var ErrNotInitiable = errors.New("order cannot be initiated in its current state")

// Redirect is where the buyer goes to complete the payment.
type Redirect struct {
	URL string
}

// Service orchestrates payment creation: it asks the processor for a hosted
// payment page and, on acceptance, commits the pending transition together
// with its checkout side effects.
type Service struct {
	orders       repositories.OrderStore
	gateway      provider.Gateway
	awaitingText string // fmt template receiving the acquiring URL
}

// NewService creates an order initiation service.
func NewService(orders repositories.OrderStore, gateway provider.Gateway, awaitingText string) *Service {
	return &Service{orders: orders, gateway: gateway, awaitingText: awaitingText}
}

// Initiate opens a crypto payment for the order and returns the redirect
// target. On any gateway failure the order is left untouched and the error
// carries a *provider.GatewayError the caller can surface as retryable.
func (s *Service) Initiate(ctx context.Context, orderID string) (Redirect, error) {
	ord, err := s.orders.Load(ctx, orderID)
	if err != nil {
		return Redirect{}, err
	}

	switch {
	case ord.Status == order.StatusCreated:
		// proceed
	case ord.AwaitingPayment() && ord.AcquiringURL != "":
		// A payment page already exists; hand the buyer the same link
		// instead of opening a second processor order.
		log.Info().Str("order_id", ord.ID).Msg("checkout: reusing existing acquiring URL")
		return Redirect{URL: ord.AcquiringURL}, nil
	default:
		return Redirect{}, fmt.Errorf("%w: order %s is %s", ErrNotInitiable, ord.ID, ord.Status)
	}

	res, err := s.gateway.CreateOrder(ctx, ord)
	if err != nil {
		var gw *provider.GatewayError
		if errors.As(err, &gw) {
			log.Warn().
				Str("order_id", ord.ID).
				Str("kind", string(gw.Kind)).
				Str("gateway_status", gw.Status).
				Msg("checkout: payment creation failed, order unchanged")
		}
		return Redirect{}, err
	}

	// Commit the transition and its side effects as one unit: a partially
	// applied initiation (stock reduced without status, or vice versa) must
	// be impossible.
	err = s.orders.Atomic(ctx, func(tx repositories.OrderTx) error {
		ok, err := tx.CompareAndSetStatus(ctx, ord, order.StatusCreated, order.StatusPendingPayment)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %s changed concurrently", ErrNotInitiable, ord.ID)
		}
		if err := tx.SetAcquiringURL(ctx, ord, res.AcquiringURL); err != nil {
			return err
		}
		if err := tx.AppendNote(ctx, ord, fmt.Sprintf(s.awaitingText, res.AcquiringURL)); err != nil {
			return err
		}
		if err := tx.ReduceStock(ctx, ord); err != nil {
			return err
		}
		return tx.ClearCart(ctx, ord)
	})
	if err != nil {
		return Redirect{}, err
	}

	ord.Status = order.StatusPendingPayment
	ord.AcquiringURL = res.AcquiringURL

	log.Info().
		Str("order_id", ord.ID).
		Str("amount", ord.Amount.Decimal()).
		Str("currency", string(ord.Currency)).
		Msg("checkout: payment initiated")
	return Redirect{URL: res.AcquiringURL}, nil
}
