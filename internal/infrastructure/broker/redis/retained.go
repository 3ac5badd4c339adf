package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const retainedPrefix = "retained:"

// RetainedStore keeps the last retained payload per topic in Redis keys, since
// Redis pub/sub itself retains nothing. Keys expire after a TTL so a crashed
// publisher's last position does not linger forever.
// Key format: retained:<topic>
type RetainedStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RetainedMessage is one replayed topic/payload pair.
type RetainedMessage struct {
	Topic   string
	Payload []byte
}

// NewRetainedStore creates a RetainedStore wrapping the given Redis client.
func NewRetainedStore(client *redis.Client, ttl time.Duration) *RetainedStore {
	return &RetainedStore{client: client, ttl: ttl}
}

// Set stores payload as the retained message for topic, replacing any
// previous one.
func (s *RetainedStore) Set(ctx context.Context, topic string, payload []byte) error {
	if err := s.client.Set(ctx, retainedPrefix+topic, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("retained set: %w", err)
	}
	return nil
}

// List returns the retained messages whose topics match the
// single-level-wildcard filter, for replay to a new subscriber. Order across
// topics is unspecified.
func (s *RetainedStore) List(ctx context.Context, filter string) ([]RetainedMessage, error) {
	pattern := retainedPrefix + patternFromFilter(filter)

	var out []RetainedMessage
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		topic := strings.TrimPrefix(key, retainedPrefix)
		if !matchFilter(filter, topic) {
			continue
		}
		payload, err := s.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("retained get %s: %w", topic, err)
		}
		out = append(out, RetainedMessage{Topic: topic, Payload: payload})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("retained scan: %w", err)
	}
	return out, nil
}
