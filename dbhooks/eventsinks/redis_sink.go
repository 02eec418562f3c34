package eventsinks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
)

// Publisher is the part of a redis.UniversalClient a RedisSink needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSink publishes events to Redis pub/sub. The channel is the operation key with an optional prefix,
// so subscribers can PSUBSCRIBE to patterns like "db:after:*:User".
type RedisSink struct {
	publisher     Publisher
	channelPrefix string
	now           func() time.Time
}

// RedisOption configures a RedisSink.
type RedisOption func(*RedisSink)

// WithChannelPrefix prepends prefix to every channel name.
func WithChannelPrefix(prefix string) RedisOption {
	return func(s *RedisSink) {
		s.channelPrefix = prefix
	}
}

// NewRedisClient creates a client from a redis:// URL or a host:port address.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if !strings.HasPrefix(redisURL, "redis://") && !strings.HasPrefix(redisURL, "rediss://") {
		return redis.NewClient(&redis.Options{Addr: redisURL}), nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return redis.NewClient(opt), nil
}

// NewRedisSink creates a sink publishing with publisher.
func NewRedisSink(publisher Publisher, options ...RedisOption) (*RedisSink, error) {
	if publisher == nil {
		return nil, ErrNilPublisher
	}

	s := &RedisSink{publisher: publisher, now: time.Now}
	for _, option := range options {
		option(s)
	}

	return s, nil
}

// Channel returns the channel events of model, operation and phase are published to.
func (s *RedisSink) Channel(model string, operation dbhooks.Operation, phase dbhooks.Phase) string {
	return s.channelPrefix + dbhooks.Key(model, operation, phase)
}

// Listener returns the listener publishing events of the given phase.
func (s *RedisSink) Listener(phase dbhooks.Phase) dbhooks.Listener {
	return func(ctx context.Context, payload dbhooks.Payload) error {
		value, err := NewMessage(phase, payload, s.now()).Encode()
		if err != nil {
			return err
		}

		channel := s.Channel(payload.Model, payload.Operation, phase)
		if publishErr := s.publisher.Publish(ctx, channel, value).Err(); publishErr != nil {
			return errors.Join(ErrDeliveringMessageFailed, publishErr)
		}

		return nil
	}
}
