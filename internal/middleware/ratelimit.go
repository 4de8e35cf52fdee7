// 包 middleware：入口限流与 IP/CIDR 白名单
package middleware

import (
	"net/http"
	"sync"
	"time"

	"vgsales-dash/internal/metrics"
)

// 文档注释：令牌桶限流（每秒）
// 背景：筛选事件每次都会重绘三张图并重新读取世界几何，突发流量下按秒限速保护渲染与存储。
// 约束：不排队，超额直接 429；桶在每个整秒补满。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

func NewTokenBucket(qps int) *TokenBucket {
	if qps <= 0 {
		qps = 200
	}
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimit：enabled 为 false 时原样返回
func RateLimit(enabled bool, qps int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		tb := NewTokenBucket(qps)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tb.Allow() {
				metrics.RateLimitedTotal.Inc()
				w.Header().Set("Retry-After", "1")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
