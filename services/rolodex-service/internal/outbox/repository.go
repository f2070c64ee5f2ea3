package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/rolodex/libs/db"
	otelx "github.com/md-rashed-zaman/rolodex/libs/otel"
)

const maxEventTypeLen = 50

var ErrInvalidEvent = errors.New("invalid outbox event")

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts a pending event inside the caller's transaction. A failure
// here must fail the enclosing mutation.
func (r *Repository) Record(ctx context.Context, tx pgx.Tx, eventType string, payload any) (Record, error) {
	body, err := encodePayload(eventType, payload)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		EventType: eventType,
		Payload:   body,
		Trace:     otelx.CaptureTraceContext(ctx),
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO outbox_events (event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4)
		RETURNING event_id, created_at
	`, rec.EventType, rec.Payload, rec.Trace.Parent, rec.Trace.State).Scan(&rec.EventID, &rec.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("insert outbox event: %w", err)
	}
	return rec, nil
}

func encodePayload(eventType string, payload any) ([]byte, error) {
	if eventType == "" || len(eventType) > maxEventTypeLen {
		return nil, fmt.Errorf("%w: event type %q", ErrInvalidEvent, eventType)
	}
	var body []byte
	switch p := payload.(type) {
	case json.RawMessage:
		body = p
	case []byte:
		body = p
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		body = b
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: payload is not valid json", ErrInvalidEvent)
	}
	return body, nil
}

// FetchPending returns unprocessed events in relay order: creation time,
// then event id.
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT event_id, event_type, payload, traceparent, tracestate, created_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY created_at, event_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.EventID, &rec.EventType, &rec.Payload, &rec.Trace.Parent, &rec.Trace.State, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// MarkProcessed stamps processed_at. Already processed rows are left alone.
func (r *Repository) MarkProcessed(ctx context.Context, eventID int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox_events
		SET processed_at = $2
		WHERE event_id = $1 AND processed_at IS NULL
	`, eventID, at)
	return err
}

type Stats struct {
	Pending       int64      `json:"pending"`
	OldestPending *time.Time `json:"oldest_pending,omitempty"`
	Processed     int64      `json:"processed"`
}

func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE processed_at IS NULL),
			min(created_at) FILTER (WHERE processed_at IS NULL),
			count(*) FILTER (WHERE processed_at IS NOT NULL)
		FROM outbox_events
	`).Scan(&s.Pending, &s.OldestPending, &s.Processed)
	return s, err
}
