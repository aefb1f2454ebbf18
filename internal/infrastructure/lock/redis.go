package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/frameshop/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultKeyPrefix  = "frameshop:lock:"
	defaultTTL        = 10 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
	releaseTimeout    = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another holder is left alone
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements keyed locks with SET NX PX and a token-checked release
type RedisLocker struct {
	client      *redis.Client
	keyPrefix   string
	ttl         time.Duration
	waitTimeout time.Duration
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewRedisLocker connects to Redis and creates a locker
func NewRedisLocker(redisCfg config.RedisConfig, lockCfg config.LockConfig, logger *zap.Logger) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	l := NewRedisLockerWithClient(client, lockCfg.KeyPrefix, lockCfg.TTL, logger)
	l.waitTimeout = lockCfg.WaitTimeout
	return l, nil
}

// NewRedisLockerWithClient creates a locker with an existing Redis client
func NewRedisLockerWithClient(client *redis.Client, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client:     client,
		keyPrefix:  keyPrefix,
		ttl:        ttl,
		retryDelay: defaultRetryDelay,
		logger:     logger.Named("lock"),
	}
}

// SetWaitTimeout bounds how long Lock waits for a busy key
func (l *RedisLocker) SetWaitTimeout(d time.Duration) {
	l.waitTimeout = d
}

// Lock acquires key, polling until it is free. The lock expires after the
// configured TTL if the holder never releases it.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.keyPrefix + key
	token := uuid.NewString()

	waitCtx, cancel := withWaitTimeout(ctx, l.waitTimeout)
	defer cancel()

	for {
		ok, err := l.client.SetNX(waitCtx, redisKey, token, l.ttl).Result()
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, waitError(ctx, key)
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return nil, waitError(ctx, key)
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) unlocker(redisKey, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true

		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn("failed to release lock", zap.String("key", redisKey), zap.Error(err))
		}
	}
}

// Close closes the Redis client
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client
func (l *RedisLocker) GetClient() *redis.Client {
	return l.client
}
