package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/md-rashed-zaman/rolodex/libs/redisx"
	"github.com/md-rashed-zaman/rolodex/libs/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultStream   = "outbox:ExternalIdentifierCreated"
	DefaultGroup    = "external_identifier_reader"
	DefaultConsumer = "rolodex-data-product-consumer"
)

// Store applies external identifiers to local state. The write must be
// idempotent and committed before it returns, and must leave the row alone
// (applied=false) when source is older than the entry last applied to it.
type Store interface {
	UpsertExternalIdentifier(ctx context.Context, partyID int64, systemName, externalID string, source redisx.StreamID) (applied bool, err error)
}

type Config struct {
	Stream         string
	Group          string
	Consumer       string
	BatchSize      int64
	Block          time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	// RetryInterval bounds how long failed entries wait for a retry while
	// the stream stays busy. An idle stream retries them after its next
	// empty read.
	RetryInterval  time.Duration
}

type state int

const (
	stateBootstrapping state = iota
	stateDraining
	stateReading
	stateBackoff
)

func (s state) String() string {
	switch s {
	case stateBootstrapping:
		return "bootstrapping"
	case stateDraining:
		return "draining"
	case stateReading:
		return "reading"
	case stateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// Consumer applies ExternalIdentifierCreated entries from a consumer group.
// Each entry is acknowledged only after its upsert commits. Entries that fail
// to apply stay pending and are retried from the pending list while the
// consumer runs, as well as after a restart or a group rebootstrap.
type Consumer struct {
	streams Streams
	store   Store
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	cfg     Config
	backoff *backoff.ExponentialBackOff
}

func New(streams Streams, store Store, logger *slog.Logger, metrics *Metrics, cfg Config) *Consumer {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.Group == "" {
		cfg.Group = DefaultGroup
	}
	if cfg.Consumer == "" {
		cfg.Consumer = DefaultConsumer
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 30 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 30 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.BackoffInitial
	bo.MaxInterval = cfg.BackoffMax
	bo.Reset()

	return &Consumer{
		streams: streams,
		store:   store,
		logger:  logger.With("stream", cfg.Stream, "group", cfg.Group, "consumer", cfg.Consumer),
		metrics: metrics,
		tracer:  otel.Tracer("rolodex/consumer"),
		cfg:     cfg,
		backoff: bo,
	}
}

// Run drives the consumer until ctx is cancelled. Cancellation is observed
// between batches and while blocked on a read; a batch already being
// processed is finished first.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("stream consumer started")
	defer c.logger.Info("stream consumer stopped")

	st := stateBootstrapping
	resume := stateReading
	cursor := "0"
	// retry is set when an entry failed after decoding and is still pending.
	retry := false
	var lastDrain time.Time

	for ctx.Err() == nil {
		switch st {
		case stateBootstrapping:
			c.bootstrap(ctx)
			cursor, retry, lastDrain = "0", false, time.Now()
			st = stateDraining

		case stateDraining, stateReading:
			id := ">"
			if st == stateDraining {
				id = cursor
			}
			entries, err := c.streams.Read(ctx, ReadArgs{
				Stream:   c.cfg.Stream,
				Group:    c.cfg.Group,
				Consumer: c.cfg.Consumer,
				ID:       id,
				Count:    c.cfg.BatchSize,
				Block:    c.cfg.Block,
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if redisx.IsNoGroup(err) {
					c.logger.Warn("consumer group missing, recreating", "err", err)
					st = stateBootstrapping
					continue
				}
				c.logger.Error("stream read failed", "err", err, "state", st.String())
				resume, st = st, stateBackoff
				continue
			}
			c.backoff.Reset()

			if st == stateDraining {
				if len(entries) == 0 {
					c.logger.Debug("pending entries drained")
					st = stateReading
					continue
				}
				cursor = entries[len(entries)-1].ID
			}
			if c.process(ctx, entries) {
				retry = true
			}

			if st == stateReading && retry && (len(entries) == 0 || time.Since(lastDrain) >= c.cfg.RetryInterval) {
				c.logger.Info("retrying pending entries")
				cursor, retry, lastDrain = "0", false, time.Now()
				st = stateDraining
			}

		case stateBackoff:
			wait := c.backoff.NextBackOff()
			if wait < 0 {
				wait = c.cfg.BackoffMax
			}
			if !runtime.Sleep(ctx, wait) {
				return
			}
			st = resume
		}
	}
}

// bootstrap creates the group at the start of the stream, creating the
// stream if needed. An existing group is the normal case on restart.
func (c *Consumer) bootstrap(ctx context.Context) {
	c.metrics.incBootstrap()
	err := c.streams.CreateGroup(ctx, c.cfg.Stream, c.cfg.Group, "0")
	switch {
	case err == nil:
		c.logger.Info("consumer group created")
	case redisx.IsBusyGroup(err):
		c.logger.Debug("consumer group already exists")
	default:
		c.logger.Error("consumer group create failed", "err", err)
	}
}

// process applies a batch in delivery order and reports whether an entry
// that decoded failed and should be retried. The batch runs to completion
// on a context detached from shutdown so that no committed entry is left
// unacknowledged by a cancel.
func (c *Consumer) process(ctx context.Context, entries []Entry) (retry bool) {
	work := context.WithoutCancel(ctx)
	for _, e := range entries {
		if err := c.apply(work, e); err != nil {
			c.logger.Error("stream entry failed", "err", err, "entry_id", e.ID)
			if !errors.Is(err, ErrInvalidEntry) {
				retry = true
			}
		}
	}
	return retry
}

func (c *Consumer) apply(ctx context.Context, e Entry) error {
	ctx, span := c.tracer.Start(ctx, "consumer.apply",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "redis"),
			attribute.String("messaging.destination", c.cfg.Stream),
			attribute.String("messaging.message_id", e.ID),
		),
	)
	defer span.End()

	fail := func(stage string, err error) error {
		c.metrics.incFailed(stage)
		span.RecordError(err)
		span.SetStatus(codes.Error, stage+" failed")
		return err
	}

	source, err := redisx.ParseStreamID(e.ID)
	if err != nil {
		return fail("decode", fmt.Errorf("%w: %v", ErrInvalidEntry, err))
	}
	id, err := Decode(e.Values)
	if err != nil {
		return fail("decode", err)
	}
	applied, err := c.store.UpsertExternalIdentifier(ctx, id.PartyID, id.SystemName, id.ExternalID, source)
	if err != nil {
		return fail("apply", err)
	}
	if err := c.streams.Ack(ctx, c.cfg.Stream, c.cfg.Group, e.ID); err != nil {
		return fail("ack", err)
	}

	if !applied {
		c.metrics.incStale()
		c.logger.Info("stale stream entry skipped",
			"entry_id", e.ID,
			"party_id", id.PartyID,
			"system_name", id.SystemName,
		)
		return nil
	}
	c.metrics.incApplied()
	c.logger.Debug("external identifier applied",
		"entry_id", e.ID,
		"party_id", id.PartyID,
		"system_name", id.SystemName,
	)
	return nil
}
