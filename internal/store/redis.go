package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis holds the shared client used by the enrollment queue and health
// checks. Redis being down degrades async enrollment, not request serving, so
// connection timeouts are kept short and startup never blocks on it.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds a client for the given address. The pool is sized for one
// API process plus one worker sharing the instance.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     8,
		MinIdleConns: 1,
	})
	return &Redis{Client: client}
}

// Healthy reports whether the instance answers a ping. Used by /healthz; a
// false here is surfaced but does not fail the endpoint.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Close releases the pool.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
