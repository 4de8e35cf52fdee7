// 包 logger：统一初始化与获取日志器；LOG_LEVEL 控制级别，LOG_FORMAT=json 切换为 JSON 输出
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Setup：按环境变量初始化默认日志器，输出到标准错误
func Setup() *slog.Logger {
	defaultLogger = New(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	return defaultLogger
}

// New：构建日志器；level 为 debug|info|warn|error（缺省 info），format 为 json|text
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// L：获取默认日志器，未初始化时回退到 Setup
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}

type ctxKey struct{}

// WithRequestID：把请求 ID 放入上下文
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID：读取请求 ID，不存在时返回空串
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// From：带上请求 ID 的默认日志器
func From(ctx context.Context) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return L().With("request_id", id)
	}
	return L()
}
