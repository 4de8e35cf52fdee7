package utils

import (
	"github.com/redis/go-redis/v9"

	"vgsales-dash/internal/logger"
)

// OpenRedisFromEnv：REDIS_ENABLED=true 时按 REDIS_HOST/PORT/PASS/DB 打开客户端，否则返回 nil
// 约束：REDIS_DB 解析失败时回退到 0；返回的客户端尚未探活，由调用方 Ping
func OpenRedisFromEnv() *redis.Client {
	if envOr("REDIS_ENABLED", "false") != "true" {
		return nil
	}
	addr := envOr("REDIS_HOST", "127.0.0.1") + ":" + envOr("REDIS_PORT", "6379")
	db := envInt("REDIS_DB", 0)
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: envOr("REDIS_PASS", ""), DB: db})
}
