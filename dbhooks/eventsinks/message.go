package eventsinks

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNilWriter is returned when a KafkaSink is created without a writer.
	ErrNilWriter = errors.New("kafka writer must not be nil")

	// ErrEmptyTopic is returned when a KafkaSink is created without a topic.
	ErrEmptyTopic = errors.New("kafka topic must not be empty")

	// ErrNoBrokers is returned when a Kafka writer is created without brokers.
	ErrNoBrokers = errors.New("kafka writer requires at least one broker")

	// ErrNilPublisher is returned when a RedisSink is created without a publisher.
	ErrNilPublisher = errors.New("redis publisher must not be nil")

	// ErrEncodingMessageFailed is returned when a payload cannot be encoded as JSON.
	ErrEncodingMessageFailed = errors.New("encoding event message failed")

	// ErrDeliveringMessageFailed is returned when the broker rejects a message.
	ErrDeliveringMessageFailed = errors.New("delivering event message failed")
)

// Message is the broker representation of one published event.
// The query function of the payload is not part of it.
type Message struct {
	InvocationID string            `json:"invocation_id"`
	Key          string            `json:"key"`
	Phase        dbhooks.Phase     `json:"phase"`
	Model        string            `json:"model"`
	Operation    dbhooks.Operation `json:"operation"`
	Args         any               `json:"args"`
	Result       any               `json:"result,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

// NewMessage builds the Message of a payload published in the given phase.
func NewMessage(phase dbhooks.Phase, payload dbhooks.Payload, occurredAt time.Time) Message {
	return Message{
		InvocationID: payload.InvocationID.String(),
		Key:          dbhooks.Key(payload.Model, payload.Operation, phase),
		Phase:        phase,
		Model:        payload.Model,
		Operation:    payload.Operation,
		Args:         payload.Args,
		Result:       payload.Result,
		OccurredAt:   occurredAt.UTC(),
	}
}

// Encode marshals the message to JSON.
func (m Message) Encode() ([]byte, error) {
	encoded, err := jsonAPI.Marshal(m)
	if err != nil {
		return nil, errors.Join(ErrEncodingMessageFailed, err)
	}

	return encoded, nil
}

// DecodeMessage unmarshals a Message, e.g. on the consuming side.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := jsonAPI.Unmarshal(data, &m); err != nil {
		return Message{}, err
	}

	return m, nil
}
