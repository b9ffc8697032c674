// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/freelancer-packages/internal/config"
)

type Redis struct {
	Client *redis.Client
	prefix string
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{Client: client, prefix: cfg.KeyPrefix}, nil
}

// Key joins parts with ':' under the configured namespace.
func (r *Redis) Key(parts ...string) string {
	key := strings.Join(parts, ":")
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}
