package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicops/clinicops/internal/platform/apperr"
	"github.com/clinicops/clinicops/internal/platform/websocket"
)

const redisPublishTimeout = 2 * time.Second

// RedisSink publishes events to Redis pub/sub channels named after the event
// topic, so other server instances and external consumers can subscribe to
// the same queue updates the in-process hub delivers.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink connects to Redis and verifies the connection with a ping.
func NewRedisSink(ctx context.Context, redisURL string) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, apperr.E(apperr.ErrUnavailable, "pinging redis: %v", err)
	}

	return &RedisSink{client: client}, nil
}

func (s *RedisSink) Publish(ctx context.Context, event websocket.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, redisPublishTimeout)
	defer cancel()
	if err := s.client.Publish(pubCtx, event.Topic, data).Err(); err != nil {
		return apperr.E(apperr.ErrUnavailable, "publishing to %s: %v", event.Topic, err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
