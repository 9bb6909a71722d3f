package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the pgx-backed implementation of the order store and delivery
// log contracts.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{db: db} }

// Expose the underlying pool for read-only helpers.
func (r *Repo) DB() *pgxpool.Pool { return r.db }
