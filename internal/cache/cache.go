package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"propsearch/internal/config"
)

// New builds the store selected by cfg.Backend
func New(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		s := NewMemoryStore()
		s.StartJanitor(time.Duration(cfg.PurgeInterval) * time.Second)
		return s, nil
	case "redis":
		s, err := NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("query cache on redis")
		return s, nil
	case "badger":
		s, err := NewBadgerStore(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", cfg.BadgerDir).Msg("query cache on badger")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
