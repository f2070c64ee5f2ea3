package consumer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/rolodex/libs/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisStreamsCreateGroup(t *testing.T) {
	rdb := newMiniredis(t)
	ctx := context.Background()
	streams := NewRedisStreams(rdb)

	require.NoError(t, streams.CreateGroup(ctx, DefaultStream, DefaultGroup, "0"))
	exists, err := rdb.Exists(ctx, DefaultStream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists, "group create makes the stream")

	err = streams.CreateGroup(ctx, DefaultStream, DefaultGroup, "0")
	assert.True(t, redisx.IsBusyGroup(err), "got %v", err)
}

func TestRedisStreamsReadAndAck(t *testing.T) {
	rdb := newMiniredis(t)
	ctx := context.Background()
	streams := NewRedisStreams(rdb)

	_, err := streams.Read(ctx, ReadArgs{Stream: DefaultStream, Group: DefaultGroup, Consumer: "c1", ID: ">", Count: 10, Block: 10 * time.Millisecond})
	assert.True(t, redisx.IsNoGroup(err), "got %v", err)

	require.NoError(t, streams.CreateGroup(ctx, DefaultStream, DefaultGroup, "0"))
	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{Stream: DefaultStream, Values: identifier("7", "SAM", "X1")}).Err())

	entries, err := streams.Read(ctx, ReadArgs{Stream: DefaultStream, Group: DefaultGroup, Consumer: "c1", ID: ">", Count: 10, Block: 10 * time.Millisecond})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SAM", entries[0].Values["system_name"])

	empty, err := streams.Read(ctx, ReadArgs{Stream: DefaultStream, Group: DefaultGroup, Consumer: "c1", ID: ">", Count: 10, Block: 10 * time.Millisecond})
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, streams.Ack(ctx, DefaultStream, DefaultGroup, entries[0].ID))
	pending, err := rdb.XPending(ctx, DefaultStream, DefaultGroup).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestConsumerAgainstRedis(t *testing.T) {
	rdb := newMiniredis(t)
	ctx := context.Background()
	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{Stream: DefaultStream, Values: identifier("7", "SAM", "X1")}).Err())
	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{Stream: DefaultStream, Values: identifier("7", "SAM", "X2")}).Err())

	store := newMapStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	cfg.Block = 20 * time.Millisecond
	c := New(NewRedisStreams(rdb), store, logger, nil, cfg)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		c.Run(runCtx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		v, _ := store.get(7, "SAM")
		return v == "X2"
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		pending, err := rdb.XPending(ctx, DefaultStream, DefaultGroup).Result()
		return err == nil && pending.Count == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, store.len())

	// dropping the stream removes the group; the consumer recreates both
	require.NoError(t, rdb.Del(ctx, DefaultStream).Err())
	require.Eventually(t, func() bool {
		n, err := rdb.Exists(ctx, DefaultStream).Result()
		return err == nil && n == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{Stream: DefaultStream, Values: identifier("8", "SAM", "Y1")}).Err())
	require.Eventually(t, func() bool {
		v, _ := store.get(8, "SAM")
		return v == "Y1"
	}, 2*time.Second, 5*time.Millisecond)
}
