// internal/pkg/lock/redis_lock.go
package lock

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// ReleaseFunc releases a held lock. It is safe to call after the lock expired.
type ReleaseFunc func(ctx context.Context) error

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// SyncKey is the lock key for one entity's synchronisation.
func SyncKey(entityType string, entityID int64) string {
	return fmt.Sprintf("salesforce:sync:%s:%d", entityType, entityID)
}

// Acquire tries to take key without waiting. acquired is false when another
// holder owns it.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, bool, error) {
	token := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}
