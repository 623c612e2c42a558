package reportevents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

// EventInvalidated is published once a key's verdict has been removed from
// the shared store.
const EventInvalidated = "lookup.invalidated"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher announces invalidated keys so that every replica can drop its
// local copy.
type Publisher struct {
	writer messageWriter
}

// NewKafkaWriter builds a writer bound to topic. Messages are keyed by cache
// key, so notices for one key stay ordered.
func NewKafkaWriter(brokers []string, topic string) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, nil
}

// NewPublisher creates a Publisher.
func NewPublisher(writer messageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// PublishInvalidated announces that the verdict for (et, value) is gone.
func (p *Publisher) PublishInvalidated(ctx context.Context, et domain.EntityType, value string) error {
	payload, err := json.Marshal(Event{Event: EventInvalidated, Type: et.String(), Value: value})
	if err != nil {
		return fmt.Errorf("encode invalidation: %w", err)
	}

	key := domain.CacheKey(et, value)
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("publish invalidation %s: %w", key, err)
	}
	return nil
}

// Close flushes and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
