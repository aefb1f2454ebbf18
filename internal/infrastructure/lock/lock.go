package lock

import (
	"context"
	"fmt"

	"github.com/frameshop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Locker serializes work on a key across goroutines or instances
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// New builds the locker selected by cfg.Lock.Backend. The returned close
// function releases backend connections.
func New(cfg *config.Config, logger *zap.Logger) (Locker, func() error, error) {
	switch cfg.Lock.Backend {
	case "", BackendMemory:
		return NewMemoryLocker(cfg.Lock.WaitTimeout), func() error { return nil }, nil
	case BackendRedis:
		l, err := NewRedisLocker(cfg.Redis, cfg.Lock, logger)
		if err != nil {
			return nil, nil, err
		}
		return l, l.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported lock backend %q", cfg.Lock.Backend)
	}
}

var (
	_ Locker = (*MemoryLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
)
