package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL DEFAULT '',
		amount        BIGINT NOT NULL,
		currency      TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'created',
		acquiring_url TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		paid_at       TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status_updated
		ON orders (status, updated_at)`,
	`CREATE TABLE IF NOT EXISTS order_notes (
		id         BIGSERIAL PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES orders(id),
		note       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id   TEXT NOT NULL REFERENCES orders(id),
		product_id TEXT NOT NULL,
		qty        INT NOT NULL,
		PRIMARY KEY (order_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id    TEXT PRIMARY KEY,
		stock INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		user_id    TEXT NOT NULL,
		product_id TEXT NOT NULL,
		qty        INT NOT NULL,
		PRIMARY KEY (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS webhook_deliveries (
		id          BIGSERIAL PRIMARY KEY,
		order_id    TEXT NOT NULL DEFAULT '',
		reported    TEXT NOT NULL DEFAULT '',
		outcome     TEXT NOT NULL,
		raw_json    JSONB,
		received_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_webhook_deliveries_received
		ON webhook_deliveries (received_at)`,
}

// Migrate creates the schema. Statements are idempotent so the service can
// run it on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
