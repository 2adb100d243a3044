package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incident-notifier/internal/common/config"
	"incident-notifier/internal/common/logger"
)

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, logger.NewTestLogger(t), "PostgreSQL connection")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		return errors.New("connection refused")
	}, 3, time.Millisecond, logger.NewTestLogger(t), "Redis connection")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "Redis connection failed after 3 attempts")
}

func TestRetryWithBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func(context.Context) error {
		return errors.New("unavailable")
	}, 5, time.Hour, logger.NewTestLogger(t), "Elasticsearch connection")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRedis_PingFailsWithoutServer(t *testing.T) {
	// port 1 is never a redis server
	c := NewRedis(config.RedisConfig{Address: "127.0.0.1:1"})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, c.Ping(ctx))
}
