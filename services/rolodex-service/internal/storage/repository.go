package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/rolodex/libs/db"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/outbox"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnknownReference = errors.New("referenced party or address does not exist")
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// EventRecorder writes an outbox event inside the mutation's transaction.
type EventRecorder interface {
	Record(ctx context.Context, tx pgx.Tx, eventType string, payload any) (outbox.Record, error)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool   *db.Pool
	events EventRecorder
}

func NewRepository(pool *db.Pool, events EventRecorder) *Repository {
	return &Repository{pool: pool, events: events}
}

// Page is an offset window over a listing.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = defaultLimit
	case p.Limit > maxLimit:
		p.Limit = maxLimit
	}
	return p
}

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return errors.Join(ErrConflict, err)
	case db.IsForeignKeyViolation(err):
		return errors.Join(ErrUnknownReference, err)
	default:
		return err
	}
}

func collect[T any](rows pgx.Rows, scan func(pgx.Rows, *T) error) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		var v T
		if err := scan(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
