package throttle

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/you/accountsvc/domain"
)

// RedisThrottle implements domain.Throttle with one expiring key per action.
type RedisThrottle struct {
	client *redis.Client
	prefix string
}

// NewRedisThrottle creates a throttle whose keys live under prefix.
func NewRedisThrottle(client *redis.Client, prefix string) domain.Throttle {
	return &RedisThrottle{client: client, prefix: prefix}
}

// Allow claims key for window. When the key is already held it reports
// how long the caller has to wait.
func (t *RedisThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	fullKey := t.prefix + key

	ok, err := t.client.SetNX(ctx, fullKey, 1, window).Result()
	if err != nil {
		return false, 0, oops.Code("THROTTLE_UNAVAILABLE").With("key", fullKey).Wrap(err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := t.client.TTL(ctx, fullKey).Result()
	if err != nil {
		return false, 0, oops.Code("THROTTLE_UNAVAILABLE").With("key", fullKey).Wrap(err)
	}
	// A key without a TTL would block forever; treat it as a full window.
	if ttl < 0 {
		ttl = window
	}
	return false, ttl, nil
}
