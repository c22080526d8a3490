package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
)

// memoryRedis is an in-process stand-in for the handful of commands Client uses.
type memoryRedis struct {
	data map[string]string
}

func newMemoryClient() (*Client, *memoryRedis) {
	m := &memoryRedis{data: map[string]string{}}
	return &Client{rdb: m}, m
}

func (m *memoryRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := m.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memoryRedis) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if script != compareAndDelete {
		return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
	}
	if v, ok := m.data[keys[0]]; ok && v == fmt.Sprint(args[0]) {
		delete(m.data, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestFinalizationGuardFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	client, _ := newMemoryClient()
	key := client.FinalizationKey("pi_123")

	won, err := client.SetNX(ctx, key, "running", time.Hour)
	require.NoError(t, err)
	require.True(t, won)

	won, err = client.SetNX(ctx, key, "running", time.Hour)
	require.NoError(t, err)
	require.False(t, won)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, Nil)
}

func TestCompareAndDeleteOnlyRemovesOwnedValue(t *testing.T) {
	ctx := context.Background()
	client, mem := newMemoryClient()
	key := client.LockKey("cron-worker")
	mem.data[key] = "pod-a"

	removed, err := client.CompareAndDelete(ctx, key, "pod-b")
	require.NoError(t, err)
	require.False(t, removed)
	require.Equal(t, "pod-a", mem.data[key])

	removed, err = client.CompareAndDelete(ctx, key, "pod-a")
	require.NoError(t, err)
	require.True(t, removed)
	require.NotContains(t, mem.data, key)
}

func TestKeyNamespacing(t *testing.T) {
	client := &Client{}
	require.Equal(t, "wp:idempotency:stripe_webhook:evt_1", client.IdempotencyKey("stripe_webhook", "evt_1"))
	require.Equal(t, "wp:finalization:pi_123", client.FinalizationKey("pi_123"))
	require.Equal(t, "wp:lock:cron", client.LockKey(" cron "))
	require.Equal(t, "wp:idempotency:scope", client.IdempotencyKey("scope", ""))
}

func TestDisconnectedClientErrors(t *testing.T) {
	var client *Client
	require.ErrorIs(t, client.Ping(context.Background()), errNotConnected)
	require.NoError(t, client.Close())

	_, err := (&Client{}).SetNX(context.Background(), "k", "v", time.Second)
	require.ErrorIs(t, err, errNotConnected)
}

func TestDialOptions(t *testing.T) {
	opts, err := dialOptions(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, ReadTimeout: 3 * time.Second})
	require.NoError(t, err)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 7, opts.PoolSize)
	require.Equal(t, 3*time.Second, opts.ReadTimeout)

	opts, err = dialOptions(config.RedisConfig{Address: "cache:6380", DB: 4})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 4, opts.DB)

	_, err = dialOptions(config.RedisConfig{})
	require.Error(t, err)
}
