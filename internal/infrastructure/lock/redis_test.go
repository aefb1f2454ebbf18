package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisLockerWithClient_Defaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	l := NewRedisLockerWithClient(client, "", 0, nil)
	assert.Equal(t, defaultKeyPrefix, l.keyPrefix)
	assert.Equal(t, defaultTTL, l.ttl)
	assert.Same(t, client, l.GetClient())
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLockerWithClient(client, "test:", time.Second, nil)
	_, err := l.Lock(context.Background(), "frame:a")
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to acquire lock frame:a")
}
