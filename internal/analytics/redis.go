package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink appends events to a capped Redis stream
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisSink creates a sink writing to stream, trimmed to roughly maxLen entries
func NewRedisSink(client *redis.Client, stream string, maxLen int64) *RedisSink {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &RedisSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Write appends one event
func (s *RedisSink) Write(ctx context.Context, ev Event) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":       ev.ID,
			"category": ev.Category,
			"action":   ev.Action,
			"label":    ev.Label,
			"value":    strconv.FormatInt(ev.Value, 10),
			"at":       ev.At.Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append to stream %s: %w", s.stream, err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity
func (s *RedisSink) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
