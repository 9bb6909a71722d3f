package expiry

import (
	"context"
	"time"

	"paybridge/internal/domain/order"
	"paybridge/internal/domain/webhook"
	"paybridge/internal/provider"
	"paybridge/internal/store/repositories"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Store is the slice of the order store the sweep needs.
type Store interface {
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*order.Order, error)
	Atomic(ctx context.Context, fn func(repositories.OrderTx) error) error
}

// Worker sweeps orders stuck in pending_payment past the payment link's
// lifetime and finalizes them as expired. The webhook processor treats
// expired like any other terminal state, so a late callback after the
// sweep is a logged no-op.
type Worker struct {
	repo        Store
	gw          provider.Gateway // optional double-check before expiring
	pollEvery   time.Duration
	batch       int
	pendingTTL  time.Duration
	successText string
	failText    string
}

func NewWorker(repo Store, gw provider.Gateway, pollEvery, pendingTTL time.Duration, successText, failText string) *Worker {
	if pollEvery <= 0 {
		pollEvery = time.Minute
	}
	if pendingTTL <= 0 {
		pendingTTL = 30 * time.Minute
	}
	return &Worker{
		repo:        repo,
		gw:          gw,
		pollEvery:   pollEvery,
		batch:       50,
		pendingTTL:  pendingTTL,
		successText: successText,
		failText:    failText,
	}
}

func (w *Worker) Run(ctx context.Context) {
	log.Info().
		Dur("poll_every", w.pollEvery).
		Dur("pending_ttl", w.pendingTTL).
		Msg("expiry worker: started")
	t := time.NewTicker(w.pollEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("expiry worker: stopping")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.pendingTTL)

	// Transient storage hiccups should not skip a whole sweep cycle.
	var stale []*order.Order
	fetch := func() error {
		var err error
		stale, err = w.repo.ListStalePending(ctx, cutoff, w.batch)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		log.Error().Err(err).Msg("expiry worker: fetch stale orders failed")
		return
	}

	for _, ord := range stale {
		if err := w.expireOne(ctx, ord); err != nil {
			log.Error().Err(err).Str("order_id", ord.ID).Msg("expiry worker: expire failed")
		}
	}
}

func (w *Worker) expireOne(ctx context.Context, ord *order.Order) error {
	next := order.StatusExpired

	// The processor may have settled the order while its callback went
	// missing. Adopt the settled outcome instead of expiring over it.
	if w.gw != nil {
		res, err := w.gw.GetOrder(ctx, ord.ID)
		switch {
		case err != nil:
			// An unreachable processor does not stall the sweep.
		case res.Status == "" || res.Status == provider.StatusInit:
			// Still open, expire as planned.
		default:
			switch webhook.Normalize(res.Status) {
			case webhook.ReportedComplete:
				next = order.StatusCompleted
			case webhook.ReportedDeclined:
				next = order.StatusFailed
			default:
				log.Warn().
					Str("order_id", ord.ID).
					Str("gateway_status", res.Status).
					Msg("expiry worker: unrecognized settled status, skipping")
				return nil
			}
		}
	}

	return w.repo.Atomic(ctx, func(tx repositories.OrderTx) error {
		won, err := tx.CompareAndSetStatus(ctx, ord, order.StatusPendingPayment, next)
		if err != nil {
			return err
		}
		if !won {
			// A webhook beat the sweep to a terminal state.
			return nil
		}
		if next == order.StatusCompleted {
			if err := tx.MarkPaid(ctx, ord, time.Now()); err != nil {
				return err
			}
			if err := tx.AppendNote(ctx, ord, w.successText); err != nil {
				return err
			}
			if err := tx.OnPaymentCompleted(ctx, ord); err != nil {
				return err
			}
		} else {
			if err := tx.AppendNote(ctx, ord, w.failText); err != nil {
				return err
			}
		}
		log.Info().
			Str("order_id", ord.ID).
			Str("status", string(next)).
			Msg("expiry worker: stale order finalized")
		return nil
	})
}
