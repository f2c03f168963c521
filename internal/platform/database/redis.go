package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

const redisDialTimeout = 3 * time.Second

// NewRedis 初始化与Redis的连接，并用 PING 确认可用。
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("无法连接到Redis: %w", err)
	}

	slog.Info("Redis 连接成功！", "address", cfg.Address)
	return rdb, nil
}
