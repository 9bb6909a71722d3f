package postgres

import (
	"context"
	"errors"
	"time"

	"paybridge/internal/domain/order"
	"paybridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, user_id, amount, currency, status, acquiring_url, created_at, updated_at, paid_at`

// Load fetches an order by its store-assigned identifier.
func (r *Repo) Load(ctx context.Context, id string) (*order.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	return scanOrder(row)
}

// CreateOrder records a fresh order in its initial state. The store's
// checkout flow owns order creation; this exists for the hosting service
// and for seeding.
func (r *Repo) CreateOrder(ctx context.Context, ord *order.Order) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (id, user_id, amount, currency, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now(),now())`,
		ord.ID, ord.UserID, int64(ord.Amount), string(ord.Currency), string(ord.Status),
	)
	return err
}

// ListOrders returns recent orders for the admin listing endpoint.
func (r *Repo) ListOrders(ctx context.Context, limit, offset int) ([]*order.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ord)
	}
	return out, rows.Err()
}

// ListStalePending returns pending orders whose payment link is older than
// the cutoff; the expiry sweep finalizes them.
func (r *Repo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*order.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		 WHERE status=$1 AND updated_at < $2
		 ORDER BY updated_at ASC
		 LIMIT $3`,
		string(order.StatusPendingPayment), olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ord)
	}
	return out, rows.Err()
}

// Notes returns the notes appended to an order, oldest first.
func (r *Repo) Notes(ctx context.Context, orderID string) ([]order.Note, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, note, created_at FROM order_notes
		 WHERE order_id=$1 ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Note
	for rows.Next() {
		var n order.Note
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Atomic runs fn inside a single ReadCommitted transaction. The CAS row
// update inside takes the row lock, so concurrent deliveries for one order
// serialize here and losers see zero rows affected.
func (r *Repo) Atomic(ctx context.Context, fn func(repositories.OrderTx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) LoadStatus(ctx context.Context, id string) (order.Status, error) {
	var s string
	err := t.tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repositories.ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return order.Status(s), nil
}

func (t *orderTx) CompareAndSetStatus(ctx context.Context, ord *order.Order, expected, next order.Status) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		 WHERE id=$1 AND status=$2`,
		ord.ID, string(expected), string(next))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (t *orderTx) SetAcquiringURL(ctx context.Context, ord *order.Order, url string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE orders SET acquiring_url=$2, updated_at=now() WHERE id=$1`,
		ord.ID, url)
	return err
}

func (t *orderTx) AppendNote(ctx context.Context, ord *order.Order, text string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_notes (order_id, note) VALUES ($1,$2)`,
		ord.ID, text)
	return err
}

func (t *orderTx) MarkPaid(ctx context.Context, ord *order.Order, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE orders SET paid_at=$2, updated_at=now() WHERE id=$1`,
		ord.ID, at)
	return err
}

// ReduceStock decrements product stock by the quantities ordered.
func (t *orderTx) ReduceStock(ctx context.Context, ord *order.Order) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE products p
		   SET stock = p.stock - i.qty
		  FROM order_items i
		 WHERE i.order_id = $1 AND p.id = i.product_id`,
		ord.ID)
	return err
}

// ClearCart empties the buyer's cart after a successful initiation.
func (t *orderTx) ClearCart(ctx context.Context, ord *order.Order) error {
	if ord.UserID == "" {
		return nil
	}
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, ord.UserID)
	return err
}

// OnPaymentCompleted is the store's standard completion hook.
func (t *orderTx) OnPaymentCompleted(ctx context.Context, ord *order.Order) error {
	// The paid timestamp is already written via MarkPaid; nothing further
	// is owed at the storage level. Kept as the extension point for
	// store-side completion effects (fulfilment kickoff, emails).
	return nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o        order.Order
		amount   int64
		currency string
		status   string
		paidAt   *time.Time
	)
	err := row.Scan(&o.ID, &o.UserID, &amount, &currency, &status, &o.AcquiringURL,
		&o.CreatedAt, &o.UpdatedAt, &paidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Amount = order.Money(amount)
	o.Currency = order.Currency(currency)
	o.Status = order.Status(status)
	o.PaidAt = paidAt
	return &o, nil
}
