// 包 config：集中读取 .env 与环境变量，给出带默认值的运行配置
// 约束：只在进程启动时调用一次；数值解析失败时回退默认值，不报错
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"vgsales-dash/internal/views"
)

// 数据集来源
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

type Config struct {
	Addr string

	DatasetSource string
	DataCSV       string

	// DatasetReload：后台重新装载间隔，0 表示关闭
	DatasetReload time.Duration

	GeometryPath    string
	GeometryURL     string
	GeometryTimeout time.Duration
	MapScale        float64

	Bar    views.Size
	Line   views.Size
	Bubble views.Size

	GeoIPPath string

	RateLimitEnabled bool
	RateLimitQPS     int

	AdminToken        string
	MetricsAllowCIDRs []string

	// PostgresEnabled：DATASET_SOURCE=postgres 或 PG_ENABLED=true 时打开数据库（渲染统计随之启用）
	PostgresEnabled bool
	RedisEnabled    bool

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string
}

// LoadDotEnv：依次加载 .env 与 data/env/.env，文件不存在时忽略
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：从环境变量构建配置
func Load() Config {
	c := Config{
		Addr:             str("ADDR", ":8080"),
		DatasetSource:    strings.ToLower(str("DATASET_SOURCE", SourceCSV)),
		DataCSV:          str("DATA_CSV", filepath.Join("data", "video-games-sales.csv")),
		DatasetReload:    duration("DATASET_RELOAD_INTERVAL"),
		GeometryPath:     str("GEOMETRY_PATH", filepath.Join("data", "countries.json")),
		GeometryURL:      os.Getenv("GEOMETRY_URL"),
		GeometryTimeout:  time.Duration(integer("GEOMETRY_TIMEOUT_MS", 4000)) * time.Millisecond,
		MapScale:         float("MAP_SCALE", 130),
		Bar:              views.Size{Width: float("BAR_WIDTH", 800), Height: float("BAR_HEIGHT", 600)},
		Line:             views.Size{Width: float("LINE_WIDTH", 800), Height: float("LINE_HEIGHT", 400)},
		Bubble:           views.Size{Width: float("BUBBLE_WIDTH", 800), Height: float("BUBBLE_HEIGHT", 500)},
		GeoIPPath:        os.Getenv("GEOIP_DB_PATH"),
		RateLimitEnabled: os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:     integer("RATE_LIMIT_QPS", 200),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
		RedisEnabled:     os.Getenv("REDIS_ENABLED") == "true",
		TLSEnable:        os.Getenv("TLS_ENABLE") == "true",
		TLSCertPath:      str("TLS_CERT_PATH", filepath.Join("data", "tls", "server.crt")),
		TLSKeyPath:       str("TLS_KEY_PATH", filepath.Join("data", "tls", "server.key")),
	}
	c.PostgresEnabled = c.DatasetSource == SourcePostgres || os.Getenv("PG_ENABLED") == "true"
	c.MetricsAllowCIDRs = list("METRICS_ALLOW_CIDRS", "127.0.0.1/32,::1/128")
	return c
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// float：允许 0（MAP_SCALE=0 表示按画布铺满），负数回退默认值
func float(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

// duration：Go 时长格式（如 15m），无法解析或为负时返回 0
func duration(key string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func list(key, def string) []string {
	raw := str(key, def)
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
