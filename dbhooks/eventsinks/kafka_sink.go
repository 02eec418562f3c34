package eventsinks

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
)

const (
	headerPhase     = "dbhooks-phase"
	headerModel     = "dbhooks-model"
	headerOperation = "dbhooks-operation"
)

// MessageWriter is the part of *kafka.Writer a KafkaSink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink forwards events to one Kafka topic, keyed by invocation ID so that
// the before and after event of one invocation land in the same partition.
type KafkaSink struct {
	writer MessageWriter
	topic  string
	now    func() time.Time
}

// NewKafkaWriter creates a hash-balanced writer that waits for all in-sync replicas.
func NewKafkaWriter(brokers []string) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, nil
}

// NewKafkaSink creates a sink writing to topic.
func NewKafkaSink(writer MessageWriter, topic string) (*KafkaSink, error) {
	if writer == nil {
		return nil, ErrNilWriter
	}

	if topic == "" {
		return nil, ErrEmptyTopic
	}

	return &KafkaSink{writer: writer, topic: topic, now: time.Now}, nil
}

// Listener returns the listener forwarding events of the given phase.
func (s *KafkaSink) Listener(phase dbhooks.Phase) dbhooks.Listener {
	return func(ctx context.Context, payload dbhooks.Payload) error {
		message := NewMessage(phase, payload, s.now())

		value, err := message.Encode()
		if err != nil {
			return err
		}

		writeErr := s.writer.WriteMessages(ctx, kafka.Message{
			Topic: s.topic,
			Key:   []byte(message.InvocationID),
			Value: value,
			Time:  message.OccurredAt,
			Headers: []kafka.Header{
				{Key: headerPhase, Value: []byte(phase)},
				{Key: headerModel, Value: []byte(payload.Model)},
				{Key: headerOperation, Value: []byte(payload.Operation)},
			},
		})
		if writeErr != nil {
			return errors.Join(ErrDeliveringMessageFailed, writeErr)
		}

		return nil
	}
}
