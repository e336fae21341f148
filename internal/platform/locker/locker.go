// Package locker serializes work per key, in process and optionally across
// instances through Redis.
package locker

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/postback/pkg/config"
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

type Locker interface {
	// Lock blocks until key is held or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Chain acquires every locker in order and releases them in reverse.
type Chain []Locker

func (c Chain) Lock(ctx context.Context, key string) (Unlock, error) {
	held := make([]Unlock, 0, len(c))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, l := range c {
		u, err := l.Lock(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, u)
	}
	return once(release), nil
}

func once(f func()) Unlock {
	var o sync.Once
	return func() { o.Do(f) }
}

// New returns the in-process mutex, chained with a Redis lock when
// redis.addr is configured.
func New(lc fx.Lifecycle, cfg *cfgpkg.Config, log *zap.SugaredLogger) Locker {
	local := NewKeyedMutex()
	if cfg.Redis.Addr == "" {
		return local
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warnw("redis ping failed", "addr", cfg.Redis.Addr, "err", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("closing redis client")
			return client.Close()
		},
	})
	log.Infow("distributed postback lock enabled", "addr", cfg.Redis.Addr)
	return Chain{local, NewRedisLocker(client, cfg.Redis.LockTTL, cfg.Redis.LockWait)}
}

var Module = fx.Options(
	fx.Provide(New),
)
