package database

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nmang004/atlas-sub000/config"
)

// RedisClient backs the vote rate limiter, read caches and the token
// denylist. Callers must tolerate a nil client.
var RedisClient *redis.Client

func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisFullAddr(),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return RedisClient.Ping(ctx).Err()
}
