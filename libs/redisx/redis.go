package redisx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Open parses a redis:// URL, connects and pings.
func Open(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func ReadyCheck(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis not configured")
		}
		return client.Ping(ctx).Err()
	}
}

// IsBusyGroup reports a XGROUP CREATE for a group that already exists.
func IsBusyGroup(err error) bool {
	return hasPrefix(err, "BUSYGROUP")
}

// IsNoGroup reports a stream read or ack against a missing consumer group
// or stream.
func IsNoGroup(err error) bool {
	return hasPrefix(err, "NOGROUP")
}

func hasPrefix(err error, prefix string) bool {
	if err == nil {
		return false
	}
	var rerr redis.Error
	if errors.As(err, &rerr) {
		return strings.HasPrefix(rerr.Error(), prefix)
	}
	return strings.HasPrefix(err.Error(), prefix)
}
