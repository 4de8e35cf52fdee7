// 包 api：集中注册 HTTP 路由与事件通道，主入口只负责组装依赖
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vgsales-dash/internal/dashboard"
	"vgsales-dash/internal/geo"
	"vgsales-dash/internal/metrics"
	"vgsales-dash/internal/store"
)

// Deps：路由依赖；Store / Counters / Locator 均可为 nil
type Deps struct {
	Service  *dashboard.Service
	Store    *store.Store
	Counters *store.Selections
	Locator  *geo.Locator

	// AdminToken：为空时管理接口一律拒绝
	AdminToken string

	// Metrics：/metrics 处理器（已套上来源白名单）；为 nil 时不注册
	Metrics http.Handler

	// Limit：业务路由的限流中间件；为 nil 时不限流
	Limit func(http.Handler) http.Handler
}

// Handler：HTTP 适配层
type Handler struct {
	deps Deps
}

func NewHandler(d Deps) *Handler { return &Handler{deps: d} }

// BuildRoutes：构建完整路由
// 约束：/healthz 与 /metrics 不经过限流
func BuildRoutes(d Deps) http.Handler {
	h := NewHandler(d)
	r := chi.NewRouter()
	r.Use(countRoutes)

	r.Get("/healthz", h.healthz)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		if d.Limit != nil {
			r.Use(d.Limit)
		}
		r.Get("/", h.page)
		r.Get("/ws", h.events)
		r.Route("/api", func(r chi.Router) {
			r.Get("/options", h.options)
			r.Get("/dashboard", h.dashboard)
			r.Get("/charts/{view}.svg", h.chart)
			r.Get("/stats", h.stats)
			r.Post("/admin/reload", h.reload)
		})
	})
	return r
}

// countRoutes：按路由模板计数，避免查询参数造成标签基数膨胀
func countRoutes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.RequestsTotal.WithLabelValues(route).Inc()
	})
}
