package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReadArgs selects entries for one consumer in a group. ID ">" asks for new
// entries; any other id reads the consumer's own pending entries after it.
type ReadArgs struct {
	Stream   string
	Group    string
	Consumer string
	ID       string
	Count    int64
	Block    time.Duration
}

// Streams is the consumer-group surface of the stream transport.
type Streams interface {
	CreateGroup(ctx context.Context, stream, group, start string) error
	Read(ctx context.Context, args ReadArgs) ([]Entry, error)
	Ack(ctx context.Context, stream, group string, ids ...string) error
}

// RedisStreams implements Streams with XGROUP, XREADGROUP and XACK.
type RedisStreams struct {
	rdb redis.Cmdable
}

func NewRedisStreams(rdb redis.Cmdable) *RedisStreams {
	return &RedisStreams{rdb: rdb}
}

func (s *RedisStreams) CreateGroup(ctx context.Context, stream, group, start string) error {
	return s.rdb.XGroupCreateMkStream(ctx, stream, group, start).Err()
}

func (s *RedisStreams) Read(ctx context.Context, args ReadArgs) ([]Entry, error) {
	block := args.Block
	if args.ID != ">" {
		// history reads never block
		block = -1
	}
	res, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    args.Group,
		Consumer: args.Consumer,
		Streams:  []string{args.Stream, args.ID},
		Count:    args.Count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, stream := range res {
		for _, msg := range stream.Messages {
			entries = append(entries, Entry{ID: msg.ID, Values: msg.Values})
		}
	}
	return entries, nil
}

func (s *RedisStreams) Ack(ctx context.Context, stream, group string, ids ...string) error {
	return s.rdb.XAck(ctx, stream, group, ids...).Err()
}
