package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Hit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "coinpilot")

	mock.ExpectGet("coinpilot:markets:1").SetVal(`{"cached":true}`)

	val, ok := c.Get(context.Background(), "markets:1")

	assert.True(t, ok)
	assert.Equal(t, []byte(`{"cached":true}`), val)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_MissOnNil(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "coinpilot")

	mock.ExpectGet("coinpilot:markets:1").RedisNil()

	val, ok := c.Get(context.Background(), "markets:1")

	assert.False(t, ok)
	assert.Nil(t, val)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_MissOnError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "coinpilot")

	mock.ExpectGet("coinpilot:markets:1").SetErr(errors.New("connection refused"))

	_, ok := c.Get(context.Background(), "markets:1")

	assert.False(t, ok)
}

func TestSet_WritesWithTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "coinpilot")

	mock.ExpectSet("coinpilot:markets:1", []byte("payload"), 5*time.Minute).SetVal("OK")

	c.Set(context.Background(), "markets:1", []byte("payload"), 5*time.Minute)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSet_SwallowsErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "coinpilot")

	mock.ExpectSet("coinpilot:markets:1", []byte("payload"), time.Minute).SetErr(errors.New("oom"))

	// Must not panic or surface the error.
	c.Set(context.Background(), "markets:1", []byte("payload"), time.Minute)
}

func TestKeyPrefixing(t *testing.T) {
	unprefixed := NewRedis(nil, "")
	assert.Equal(t, "markets:1", unprefixed.key("markets:1"))

	prefixed := NewRedis(nil, "coinpilot")
	assert.Equal(t, "coinpilot:markets:1", prefixed.key("markets:1"))
}
