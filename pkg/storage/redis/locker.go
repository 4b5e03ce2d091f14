package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker serializes transfers from the same custody wallet across processes
// using SET NX PX.
type Locker struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger zerolog.Logger
}

// NewLocker creates a Locker. A held lock expires after ttl if its owner dies.
func NewLocker(client *goredis.Client, ttl time.Duration, logger zerolog.Logger) *Locker {
	return &Locker{
		client: client,
		prefix: "swap:lock:",
		ttl:    ttl,
		retry:  100 * time.Millisecond,
		logger: logger.With().Str("component", "redis_locker").Logger(),
	}
}

// Lock blocks until key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := l.prefix + key

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for lock %s: %w", key, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}, nil
}
