package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vgdash_requests_total",
		Help: "Total number of dashboard API requests by route",
	}, []string{"route"})
	RenderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vgdash_render_total",
		Help: "Total view renders by view",
	}, []string{"view"})
	RenderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vgdash_render_duration_ms",
		Help:    "View render duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"view"})
	FilterEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vgdash_filter_events_total",
		Help: "Total selection-change events by region",
	}, []string{"region"})
	GeometryFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vgdash_geometry_fetch_total",
		Help: "World geometry fetches by status",
	}, []string{"status"})
	GeometryFetchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vgdash_geometry_fetch_duration_ms",
		Help:    "World geometry fetch duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 4000},
	})
	DatasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vgdash_dataset_records",
		Help: "Number of records in the active dataset snapshot",
	})
	WSSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vgdash_ws_sessions",
		Help: "Open websocket sessions",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vgdash_rate_limited_total",
		Help: "Total requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RenderTotal)
	prometheus.MustRegister(RenderDurationMs)
	prometheus.MustRegister(FilterEventsTotal)
	prometheus.MustRegister(GeometryFetchTotal)
	prometheus.MustRegister(GeometryFetchDurationMs)
	prometheus.MustRegister(DatasetRecords)
	prometheus.MustRegister(WSSessions)
	prometheus.MustRegister(RateLimitedTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics，由 CIDR 白名单中间件保护后挂载。
func Handler() http.Handler { return promhttp.Handler() }
