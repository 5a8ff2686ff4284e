// Package lock provides the per-thread locks conversation writes run under.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/janhq/knowledge-memory/internal/domain/conversation"
	"github.com/janhq/knowledge-memory/internal/infrastructure/cache"
)

const (
	TypeLocal = "local"
	TypeRedis = "redis"
)

type Config struct {
	Type     string
	RedisURL string
	TTL      time.Duration
}

// New builds the locker selected by cfg.Type.
func New(ctx context.Context, cfg Config) (conversation.Locker, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocalLocker(), nil
	case TypeRedis:
		client, err := cache.NewUniversalClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("thread lock: %w", err)
		}
		return NewRedisLocker(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown thread lock type %q", cfg.Type)
	}
}
