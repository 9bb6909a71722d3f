package webhook

import (
	"context"
	"errors"
	"time"

	"paybridge/internal/domain/order"
	"paybridge/internal/domain/webhook"
	"paybridge/internal/provider"
	"paybridge/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// Authenticator verifies and decodes processor callbacks.
type Authenticator interface {
	VerifySignature(rawBody []byte, claimed string) bool
	ParseNotification(body []byte) (provider.Notification, error)
}

// Processor authenticates an inbound callback and applies it to the order
// state machine. Every invocation is safe to repeat with identical input;
// the terminal transition is applied at most once no matter how often or how
// concurrently the processor redelivers.
type Processor struct {
	auth        Authenticator
	orders      repositories.OrderStore
	deliveries  repositories.DeliveryLog
	successText string
	failText    string
}

// NewProcessor creates a webhook processor. deliveries may be nil to skip
// audit logging.
func NewProcessor(auth Authenticator, orders repositories.OrderStore, deliveries repositories.DeliveryLog, successText, failText string) *Processor {
	return &Processor{
		auth:        auth,
		orders:      orders,
		deliveries:  deliveries,
		successText: successText,
		failText:    failText,
	}
}

// Handle verifies, parses and applies one callback delivery. A non-nil
// error means storage was unavailable; every expected condition, including
// forged signatures and unknown orders, comes back as an Outcome instead.
func (p *Processor) Handle(ctx context.Context, rawBody []byte, signatureHeader string) (webhook.Outcome, error) {
	// Authenticate the raw bytes before any decoding. An unauthenticated
	// payload gets no parsing and no state access.
	if !p.auth.VerifySignature(rawBody, signatureHeader) {
		log.Warn().Msg("webhook: signature verification failed")
		return webhook.Outcome{Kind: webhook.OutcomeRejectedInvalidSignature}, nil
	}

	n, err := p.auth.ParseNotification(rawBody)
	if err != nil {
		log.Warn().Err(err).Msg("webhook: malformed payload")
		return webhook.Outcome{Kind: webhook.OutcomeRejectedMalformedPayload}, nil
	}

	out, err := p.apply(ctx, n)
	if err != nil {
		return webhook.Outcome{}, err
	}
	p.record(ctx, out, rawBody)
	p.logOutcome(out)
	return out, nil
}

// apply runs an authenticated, decoded notification through the state
// machine.
func (p *Processor) apply(ctx context.Context, n provider.Notification) (webhook.Outcome, error) {
	reported := webhook.Normalize(n.Status)

	ord, err := p.orders.Load(ctx, n.ExternalOrderID)
	if errors.Is(err, repositories.ErrOrderNotFound) {
		log.Warn().Str("order_id", n.ExternalOrderID).Msg("webhook: unknown order")
		return webhook.Outcome{Kind: webhook.OutcomeRejectedUnknownOrder, OrderID: n.ExternalOrderID, Reported: reported}, nil
	}
	if err != nil {
		return webhook.Outcome{}, err
	}

	out := webhook.Outcome{OrderID: ord.ID, Reported: reported}
	err = p.orders.Atomic(ctx, func(tx repositories.OrderTx) error {
		switch reported {
		case webhook.ReportedComplete:
			return p.applyTerminal(ctx, tx, ord, order.StatusCompleted, &out)
		case webhook.ReportedDeclined:
			return p.applyTerminal(ctx, tx, ord, order.StatusFailed, &out)
		default:
			// A terminal order ignores every delivery the same way, no
			// matter what status it claims.
			current, err := tx.LoadStatus(ctx, ord.ID)
			if err != nil {
				return err
			}
			if current.IsTerminal() {
				out.Kind = webhook.OutcomeIgnoredAlreadyTerminal
			} else {
				out.Kind = webhook.OutcomeIgnoredUnrecognizedStatus
			}
			return nil
		}
	})
	if err != nil {
		return webhook.Outcome{}, err
	}
	return out, nil
}

// replayDelivery reapplies a logged delivery. Signature verification is
// skipped (payloads are only logged after verifying) and no new audit
// record is written.
func (p *Processor) replayDelivery(ctx context.Context, d *webhook.Delivery) (webhook.Outcome, error) {
	n, err := p.auth.ParseNotification(d.RawJSON)
	if err != nil {
		return webhook.Outcome{Kind: webhook.OutcomeRejectedMalformedPayload}, nil
	}
	out, err := p.apply(ctx, n)
	if err != nil {
		return webhook.Outcome{}, err
	}
	p.logOutcome(out)
	return out, nil
}

// applyTerminal performs the CAS transition and, when it wins, the side
// effects tied to it. Runs inside the store's atomic scope: a losing
// concurrent delivery performs zero side effects.
func (p *Processor) applyTerminal(ctx context.Context, tx repositories.OrderTx, ord *order.Order, next order.Status, out *webhook.Outcome) error {
	won, err := tx.CompareAndSetStatus(ctx, ord, order.StatusPendingPayment, next)
	if err != nil {
		return err
	}
	if !won {
		current, err := tx.LoadStatus(ctx, ord.ID)
		if err != nil {
			return err
		}
		if current.IsTerminal() {
			out.Kind = webhook.OutcomeIgnoredAlreadyTerminal
		} else {
			out.Kind = webhook.OutcomeIgnoredNotPending
		}
		return nil
	}

	switch next {
	case order.StatusCompleted:
		now := time.Now()
		if err := tx.MarkPaid(ctx, ord, now); err != nil {
			return err
		}
		if err := tx.AppendNote(ctx, ord, p.successText); err != nil {
			return err
		}
		if err := tx.OnPaymentCompleted(ctx, ord); err != nil {
			return err
		}
	case order.StatusFailed:
		if err := tx.AppendNote(ctx, ord, p.failText); err != nil {
			return err
		}
	}
	out.Kind = webhook.OutcomeApplied
	return nil
}

// record persists the delivery for audit/replay; failures only log.
func (p *Processor) record(ctx context.Context, out webhook.Outcome, raw []byte) {
	if p.deliveries == nil {
		return
	}
	d := webhook.NewDelivery(out.OrderID, out.Reported, out.Kind, raw)
	if err := p.deliveries.Record(ctx, d); err != nil {
		log.Error().Err(err).Str("order_id", out.OrderID).Msg("webhook: delivery log write failed")
	}
}

func (p *Processor) logOutcome(out webhook.Outcome) {
	evt := log.Info()
	if out.Kind != webhook.OutcomeApplied {
		evt = log.Debug()
	}
	evt.
		Str("order_id", out.OrderID).
		Str("reported", string(out.Reported)).
		Str("outcome", string(out.Kind)).
		Msg("webhook: delivery handled")
}
