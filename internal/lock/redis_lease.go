// Package lock provides the Redis-backed fast-path lease consulted by
// SchedulePing before the authoritative Postgres conditional write.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// RedisLease implements momo.Lease with a SETNX lock, the same
// primitive as the teacher's DistributedLocker: check-and-delete and
// check-and-extend run as Lua scripts so the compare and the mutation
// happen atomically.
type RedisLease struct {
	client *redis.Client
}

// New builds a RedisLease over an existing client.
func New(client *redis.Client) *RedisLease {
	return &RedisLease{client: client}
}

func leaseKey(key string) string {
	return fmt.Sprintf("momo:lease:%s", key)
}

// TryAcquire claims key for owner. If owner already holds it, the TTL
// is extended instead of re-acquired.
func (l *RedisLease) TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	redisKey := leaseKey(key)

	ok, err := l.client.SetNX(ctx, redisKey, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lease acquire %q: %w", key, err)
	}
	if ok {
		return true, nil
	}

	res, err := extendScript.Run(ctx, l.client, []string{redisKey}, owner, ttl.Milliseconds()).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("redis lease extend %q: %w", key, err)
	}
	extended, _ := res.(int64)
	return extended == 1, nil
}

// Release gives up key if owner currently holds it.
func (l *RedisLease) Release(ctx context.Context, key, owner string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{leaseKey(key)}, owner).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("redis lease release %q: %w", key, err)
	}
	return nil
}
