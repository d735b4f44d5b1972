package database

import (
	"context"
	"fmt"

	"github.com/SlpAus/creature-dex-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

// RDB 是一个全局的Redis客户端实例，未启用Redis时为nil
var RDB *redis.Client

// Ctx 是一个全局的上下文，用于Redis操作
var Ctx = context.Background()

// InitRedis 初始化与Redis数据库的连接
// 未启用时只打印提示，排行榜和任务缓存随之降级
func InitRedis(cfg config.RedisConfig) {
	if !cfg.Enabled {
		fmt.Println("Redis 未启用，排行榜缓存不可用。")
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用Ping命令来测试连接是否成功
	if _, err := RDB.Ping(Ctx).Result(); err != nil {
		panic("无法连接到Redis: " + err.Error())
	}

	fmt.Println("Redis 连接成功！")
}

// RedisEnabled 报告是否配置了Redis客户端
func RedisEnabled() bool {
	return RDB != nil
}

// CloseRedis 关闭全局Redis客户端
func CloseRedis() error {
	if RDB == nil {
		return nil
	}
	return RDB.Close()
}
