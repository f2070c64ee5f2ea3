package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	otelx "github.com/md-rashed-zaman/rolodex/libs/otel"
	"github.com/md-rashed-zaman/rolodex/libs/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store is the slice of the outbox table the relay needs.
type Store interface {
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkProcessed(ctx context.Context, eventID int64, at time.Time) error
}

// Publisher appends one event to the stream transport.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

type RelayConfig struct {
	Interval       time.Duration
	BatchSize      int
	PublishTimeout time.Duration
}

// Relay polls the outbox and publishes pending events in creation order.
// Delivery is at least once: a crash between publish and MarkProcessed
// publishes the event again on the next cycle.
type Relay struct {
	store          Store
	publisher      Publisher
	logger         *slog.Logger
	metrics        *Metrics
	tracer         trace.Tracer
	interval       time.Duration
	batchSize      int
	publishTimeout time.Duration
	now            func() time.Time
}

func NewRelay(store Store, publisher Publisher, logger *slog.Logger, metrics *Metrics, cfg RelayConfig) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	return &Relay{
		store:          store,
		publisher:      publisher,
		logger:         logger,
		metrics:        metrics,
		tracer:         otel.Tracer("rolodex/outbox"),
		interval:       cfg.Interval,
		batchSize:      cfg.BatchSize,
		publishTimeout: cfg.PublishTimeout,
		now:            time.Now,
	}
}

// Run polls until ctx is cancelled. A cycle already in progress when ctx is
// cancelled finishes its current event before Run returns.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("outbox relay started", "interval", r.interval.String(), "batch_size", r.batchSize)
	defer r.logger.Info("outbox relay stopped")

	for runtime.Sleep(ctx, r.interval) {
		for {
			n, err := r.RunCycle(ctx)
			if err != nil {
				r.logger.Error("outbox relay cycle failed", "err", err, "relayed", n)
				break
			}
			if n > 0 {
				r.logger.Info("outbox events relayed", "count", n)
			}
			// a full batch means more may be waiting
			if n < r.batchSize || ctx.Err() != nil {
				break
			}
		}
	}
}

// RunCycle relays one batch of pending events and returns how many were
// published and marked processed. It stops at the first failure so a later
// event never overtakes an earlier one.
func (r *Relay) RunCycle(ctx context.Context) (int, error) {
	work := context.WithoutCancel(ctx)

	records, err := r.store.FetchPending(work, r.batchSize)
	if err != nil {
		r.metrics.incFailure("fetch")
		return 0, fmt.Errorf("fetch pending events: %w", err)
	}

	relayed := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if err := r.relay(work, rec); err != nil {
			return relayed, err
		}
		relayed++
	}
	return relayed, nil
}

func (r *Relay) relay(ctx context.Context, rec Record) error {
	ctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	ctx = otelx.ContextWithTraceContext(ctx, rec.Trace)
	ctx, span := r.tracer.Start(ctx, "outbox.relay",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.Int64("outbox.event_id", rec.EventID),
			attribute.String("outbox.event_type", rec.EventType),
			attribute.String("messaging.destination", StreamName(rec.EventType)),
		),
	)
	defer span.End()

	if err := r.publisher.Publish(ctx, rec); err != nil {
		r.metrics.incFailure("publish")
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return fmt.Errorf("publish event %d (%s): %w", rec.EventID, rec.EventType, err)
	}
	if err := r.store.MarkProcessed(ctx, rec.EventID, r.now().UTC()); err != nil {
		r.metrics.incFailure("mark")
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark processed failed")
		return fmt.Errorf("mark event %d processed: %w", rec.EventID, err)
	}

	r.metrics.incRelayed(rec.EventType)
	r.logger.Debug("outbox event relayed",
		"event_id", rec.EventID,
		"event_type", rec.EventType,
		"stream", StreamName(rec.EventType),
	)
	return nil
}
