package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dudlr/dudlr/internal/store"
)

// PgxPool is the minimal pool surface the repositories need. It is satisfied
// by *pgxpool.Pool and by pgxmock.PgxPoolIface in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Close()
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Artists *ArtistsRepository
	Doodles *DoodlesRepository
	Ratings *RatingsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pool.
func NewWithPool(pool PgxPool) *Repository {
	return &Repository{
		Artists: &ArtistsRepository{pool: pool},
		Doodles: &DoodlesRepository{pool: pool},
		Ratings: &RatingsRepository{pool: pool},
	}
}
