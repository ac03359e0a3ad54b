package database

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/platform/config"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"github.com/redis/go-redis/v9"
)

// RDB 是一个全局的Redis客户端实例，未配置Redis时为nil
var RDB *redis.Client

const pingTimeout = 2 * time.Second

// InitRedis 初始化与Redis数据库的连接。地址为空时跳过并返回nil。
func InitRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		logging.Log.Info("未配置Redis，登录限流将被禁用")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用Ping命令来测试连接是否成功
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("无法连接到Redis: %w", err)
	}

	RDB = client
	UpdateStatus(true)
	logging.Log.WithField("address", cfg.Address).Info("Redis 连接成功")
	return client, nil
}

// CloseRedis 关闭全局Redis客户端
func CloseRedis() error {
	if RDB == nil {
		return nil
	}
	return RDB.Close()
}
