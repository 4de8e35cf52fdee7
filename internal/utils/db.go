// 包 utils：PostgreSQL / Redis 连接与自签证书工具，统一环境变量读取
package utils

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// BuildPostgresDSNFromEnv：由 PG_* 环境变量拼出 DSN
// 约束：用户名与密码做 URL 转义；库名默认 vgsales
func BuildPostgresDSNFromEnv() string {
	host := envOr("PG_HOST", "localhost")
	port := envOr("PG_PORT", "5432")
	user := envOr("PG_USER", "postgres")
	name := envOr("PG_DB", "vgsales")
	ssl := envOr("PG_SSLMODE", "disable")
	u := url.URL{Scheme: "postgres", Host: host + ":" + port, Path: "/" + name}
	if pass := os.Getenv("PG_PASSWORD"); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	u.RawQuery = "sslmode=" + url.QueryEscape(ssl)
	return u.String()
}

// OpenPostgresFromEnv：打开连接池，PG_MAX_OPEN_CONNS / PG_MAX_IDLE_CONNS 可调
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, fmt.Errorf("utils: open postgres: %w", err)
	}
	db.SetMaxOpenConns(envInt("PG_MAX_OPEN_CONNS", 20))
	db.SetMaxIdleConns(envInt("PG_MAX_IDLE_CONNS", 10))
	return db, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
