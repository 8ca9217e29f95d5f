// Package redislock implements ports.SweepLocker on a single Redis key per
// lock name, so only one replica runs the daily sweep at a time.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kevin07696/mealplan-service/internal/domain/ports"
)

const keyPrefix = "mealplan:lock:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires leases with SET NX PX
type Locker struct {
	client redis.UniversalClient
}

// New wraps an existing client
func New(client redis.UniversalClient) *Locker {
	return &Locker{client: client}
}

// Key returns the Redis key used for name
func Key(name string) string {
	return keyPrefix + name
}

func (l *Locker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (ports.Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, Key(name), token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &lease{client: l.client, key: Key(name), token: token}, true, nil
}

type lease struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Release is a no-op when the lease already expired and someone else holds the key
func (ls *lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, ls.client, []string{ls.key}, ls.token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", ls.key, err)
	}
	return nil
}
