// Package sink publishes newly seen disaster events to downstream consumers.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mr1hm/resqlink/internal/config"
	"github.com/mr1hm/resqlink/internal/models"
)

type Sink interface {
	Publish(ctx context.Context, event models.DisasterEvent) error
	Close() error
}

// New returns a Kafka sink when publication is enabled and a no-op sink
// otherwise.
func New(cfg config.KafkaConfig) Sink {
	if !cfg.Enabled {
		return Nop{}
	}
	slog.Info("kafka sink enabled", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return NewKafkaSink(cfg)
}

// KafkaSink writes one message per event, keyed by event id.
type KafkaSink struct {
	writer *kafkago.Writer
}

func NewKafkaSink(cfg config.KafkaConfig) *KafkaSink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Publish(ctx context.Context, event models.DisasterEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %d: %w", event.ID, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// message is the wire form of an event. RawDate is hidden from the JSON
// model, so it travels here as an explicit timestamp.
type message struct {
	models.DisasterEvent
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
}

func serializeToMessage(event models.DisasterEvent) (kafkago.Message, error) {
	m := message{DisasterEvent: event}
	if !event.RawDate.IsZero() {
		t := event.RawDate.UTC()
		m.OccurredAt = &t
	}

	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize disaster event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(event.ID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "severity", Value: []byte(event.Severity)},
		},
	}, nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, models.DisasterEvent) error { return nil }
func (Nop) Close() error                                        { return nil }
