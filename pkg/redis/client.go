package redis

import (
	"github.com/redis/go-redis/v9"

	"gradient/internal/config"
)

// NewClient builds a Redis client from config. The caller owns the instance;
// there is no package-level client.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
