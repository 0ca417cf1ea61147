package database

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// NewRedis connects and pings. An empty addr disables Redis and returns nil.
func NewRedis(ctx context.Context, addr, pass string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("REDIS_UNAVAILABLE").With("addr", addr).Wrap(err)
	}
	return client, nil
}
