package uplink

import (
	"context"
	"fmt"
	"time"

	"github.com/itohio/aquanode/pkg/config"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes one message per payload, keyed by sensor id so a station's
// reports stay ordered within a partition.
type Kafka struct {
	w messageWriter
}

// Ensure Kafka implements Publisher.
var _ Publisher = (*Kafka)(nil)

// NewKafka creates a synchronous producer for cfg.Topic.
func NewKafka(cfg config.KafkaConfig, timeout time.Duration) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: timeout,
		},
	}
}

// Publish writes the payload.
func (k *Kafka) Publish(ctx context.Context, p Payload) error {
	body, err := p.encode()
	if err != nil {
		return err
	}

	err = k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(p.SensorID),
		Value: body,
		Time:  p.Timestamp,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.w.Close()
}
