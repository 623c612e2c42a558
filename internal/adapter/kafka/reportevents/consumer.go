// Package reportevents carries invalidation over Kafka. The Consumer reads
// report lifecycle events (or invalidation notices) and invalidates the key
// each one names; the Publisher emits a notice after a key was removed from
// the shared store.
package reportevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

// Event is the payload of both report events and invalidation notices.
type Event struct {
	Event  string `json:"event"`
	Type   string `json:"type"`
	Value  string `json:"value"`
	Status string `json:"status,omitempty"`
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type invalidator interface {
	Invalidate(ctx context.Context, caller domain.Caller, et domain.EntityType, value string) (bool, error)
}

// Consumer reads report events and invalidates affected verdicts.
type Consumer struct {
	log    *slog.Logger
	reader messageReader
	target invalidator
}

// NewKafkaReader builds a consumer-group reader for topic.
func NewKafkaReader(brokers []string, groupID, topic string) (*kafka.Reader, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("kafka consumer requires group id")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka consumer requires a topic")
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	}), nil
}

// NewConsumer creates a Consumer.
func NewConsumer(logger *slog.Logger, reader messageReader, target invalidator) *Consumer {
	return &Consumer{
		log:    logger.With("component", "reportevents"),
		reader: reader,
		target: target,
	}
}

// Run processes messages until ctx is canceled. A message is committed once
// handled; malformed messages are logged and committed so they are not
// redelivered forever. An invalidation failure stops Run without committing,
// so the message is redelivered after restart.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.log.WarnContext(ctx, "skipping malformed report event",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return nil
	}

	et, err := domain.ParseEntityType(ev.Type)
	if err != nil {
		c.log.WarnContext(ctx, "skipping report event with unknown type",
			slog.Int64("offset", msg.Offset),
			slog.String("type", ev.Type),
		)
		return nil
	}

	removed, err := c.target.Invalidate(ctx, domain.Caller{}, et, ev.Value)
	if errors.Is(err, domain.ErrValidation) {
		c.log.WarnContext(ctx, "skipping report event with invalid value",
			slog.Int64("offset", msg.Offset),
			slog.String("type", et.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", domain.CacheKey(et, ev.Value), err)
	}

	c.log.DebugContext(ctx, "report event applied",
		slog.String("event", ev.Event),
		slog.String("type", et.String()),
		slog.Bool("removed", removed),
	)
	return nil
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
