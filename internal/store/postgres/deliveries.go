package postgres

import (
	"context"
	"time"

	"paybridge/internal/domain/webhook"
)

// Record persists a webhook delivery audit row.
func (r *Repo) Record(ctx context.Context, d *webhook.Delivery) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO webhook_deliveries (order_id, reported, outcome, raw_json, received_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		d.OrderID, string(d.Reported), string(d.Outcome), d.RawJSON, d.ReceivedAt,
	).Scan(&d.ID)
}

// ListSince returns logged deliveries received at or after since.
func (r *Repo) ListSince(ctx context.Context, since time.Time, limit int) ([]*webhook.Delivery, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, reported, outcome, raw_json, received_at
		  FROM webhook_deliveries
		 WHERE received_at >= $1
		 ORDER BY received_at ASC
		 LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*webhook.Delivery
	for rows.Next() {
		var (
			d        webhook.Delivery
			reported string
			outcome  string
		)
		if err := rows.Scan(&d.ID, &d.OrderID, &reported, &outcome, &d.RawJSON, &d.ReceivedAt); err != nil {
			return nil, err
		}
		d.Reported = webhook.ReportedStatus(reported)
		d.Outcome = webhook.OutcomeKind(outcome)
		out = append(out, &d)
	}
	return out, rows.Err()
}
