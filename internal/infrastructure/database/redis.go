package database

import (
	"context"
	"time"

	"github.com/flowerfire37/ihome/internal/infrastructure/config"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient 创建Redis客户端并测试连接
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	Logger.Info("Redis已连接: %s db=%d", cfg.GetRedisAddr(), cfg.RedisDB)
	return client, nil
}
