package outbox

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStreamPublisher appends events to outbox:{event_type} with the JSON
// payload in a single "data" field.
type RedisStreamPublisher struct {
	rdb redis.Cmdable
}

func NewRedisStreamPublisher(rdb redis.Cmdable) *RedisStreamPublisher {
	return &RedisStreamPublisher{rdb: rdb}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, rec Record) error {
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName(rec.EventType),
		Values: map[string]any{"data": string(rec.Payload)},
	}).Err()
}
