package database

import (
	"context"
	"time"

	"github.com/pushp314/pulse-chat/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// InitRedis connects to Redis. An empty addr leaves Redis disabled (nil client).
func InitRedis(ctx context.Context, addr, password string) *redis.Client {
	if addr == "" {
		logger.Info().Msg("Redis not configured, change feed stays in-process")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis. Cross-instance change feed disabled.")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", addr).Msg("Connected to Redis successfully")
	Redis = client
	return client
}

// RedisStatus is used by the health check
func RedisStatus(ctx context.Context) string {
	if Redis == nil {
		return "not configured"
	}
	if err := Redis.Ping(ctx).Err(); err != nil {
		return "error"
	}
	return "ok"
}
