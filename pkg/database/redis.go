package database

import (
	"context"

	"github.com/SniperTei/nan-monitor-backend/internal/config"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/go-redis/redis/v8"
)

// RDB 是全局的 Redis 客户端，由 InitRedis 初始化。
// 当前仅用作设备列表枚举的只读缓存。
var RDB *redis.Client

// InitRedis 初始化 Redis 客户端并确认连通性。
func InitRedis(cfg config.RedisConfig) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		log.Fatal("连接 Redis 失败", err)
	}

	log.Info("Redis 客户端连接成功")
}
