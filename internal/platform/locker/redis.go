package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fatflowers/postback/pkg/tool"
)

const redisKeyPrefix = "lock:"

// compare-and-delete so an expired holder cannot drop a newer lock
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds a key across instances with SET NX PX. The TTL bounds
// how long a crashed holder can block others.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if wait <= 0 {
		wait = 50 * time.Millisecond
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	k := redisKeyPrefix + key
	token := tool.LockToken()
	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", k, err)
		}
		if ok {
			return once(func() {
				ctx, cancel := context.WithTimeout(context.Background(), l.wait*10)
				defer cancel()
				releaseScript.Run(ctx, l.client, []string{k}, token)
			}), nil
		}
		t := time.NewTimer(l.wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
