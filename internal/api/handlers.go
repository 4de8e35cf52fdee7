package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vgsales-dash/internal/dashboard"
	"vgsales-dash/internal/filter"
	"vgsales-dash/internal/logger"
	"vgsales-dash/internal/middleware"
	"vgsales-dash/internal/store"
	"vgsales-dash/internal/views"
)

// TopSelectionsLimit：/api/stats 返回的热门组合数
const TopSelectionsLimit = 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"code": code, "error": msg})
}

// selection：从查询参数重建筛选条件；数据集未就绪返回 503，未知取值返回 400
func (h *Handler) selection(w http.ResponseWriter, r *http.Request) (filter.Selection, bool) {
	st := h.deps.Service.State()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "DATASET_NOT_READY", dashboard.ErrNoDataset.Error())
		return filter.Selection{}, false
	}
	sel, err := filter.Parse(r.URL.Query(), st.Options)
	if err != nil {
		logger.From(r.Context()).Debug("selection_invalid", "err", err)
		writeError(w, http.StatusBadRequest, "UNKNOWN_OPTION", err.Error())
		return filter.Selection{}, false
	}
	return sel, true
}

// 文档注释：记录一次筛选事件
// 背景：选择热度写 Redis，渲染次数与当日访客写 PostgreSQL；任一失败只记日志，不影响渲染结果。
func (h *Handler) account(ctx context.Context, ip string, sel filter.Selection) {
	l := logger.From(ctx)
	if err := h.deps.Counters.IncrSelection(ctx, sel.Key()); err != nil {
		l.Warn("selection_count_error", "err", err)
	}
	first, err := h.deps.Counters.FirstVisit(ctx, ip, time.Now())
	if err != nil {
		l.Warn("visitor_bloom_error", "err", err)
	}
	if err := h.deps.Store.IncrStats(ctx, first); err != nil {
		l.Warn("stats_incr_error", "err", err)
	}
}

// visitorRegion：访客所在宏观区域；未配置 GeoIP 库时为空
func (h *Handler) visitorRegion(r *http.Request) string {
	name, _ := h.deps.Locator.MacroRegion(middleware.ClientIP(r))
	return name
}

func clientAddr(r *http.Request) string {
	if ip := middleware.ClientIP(r); ip != nil {
		return ip.String()
	}
	return ""
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	st := h.deps.Service.State()
	if st == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"records":   len(st.Snapshot.Records),
		"source":    st.Snapshot.Source,
		"loaded_at": st.Snapshot.LoadedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) options(w http.ResponseWriter, r *http.Request) {
	st := h.deps.Service.State()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "DATASET_NOT_READY", dashboard.ErrNoDataset.Error())
		return
	}
	writeJSON(w, http.StatusOK, st.Options)
}

// dashboardResponse：图表数据与 SVG；地图失败时 map 缺省并给出 map_error
type dashboardResponse struct {
	*dashboard.Charts
	Map      *dashboard.MapView `json:"map,omitempty"`
	MapError string             `json:"map_error,omitempty"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	res, err := h.deps.Service.Render(r.Context(), sel)
	if err != nil {
		logger.From(r.Context()).Error("render_error", "err", err)
		writeError(w, http.StatusInternalServerError, "RENDER_FAILED", err.Error())
		return
	}
	h.account(r.Context(), clientAddr(r), sel)
	out := dashboardResponse{Charts: res.Charts, Map: res.Map}
	if res.Map != nil {
		res.Map.Legend = views.MarkVisitor(res.Map.Legend, h.visitorRegion(r))
	}
	if res.MapErr != nil {
		out.MapError = res.MapErr.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

// chart：单张图表 SVG，{view} 为 bar / line / bubble
func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	if view != "bar" && view != "line" && view != "bubble" {
		writeError(w, http.StatusNotFound, "UNKNOWN_VIEW", "unknown view "+view)
		return
	}
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	svc := h.deps.Service
	f, err := svc.Prepare(0, sel)
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNKNOWN_OPTION", err.Error())
		return
	}
	var svg string
	if view == "bubble" {
		mv, err := svc.RenderMap(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusBadGateway, "GEOMETRY_UNAVAILABLE", err.Error())
			return
		}
		svg = mv.SVG
	} else {
		charts, err := svc.RenderCharts(f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "RENDER_FAILED", err.Error())
			return
		}
		svg = charts.BarSVG
		if view == "line" {
			svg = charts.LineSVG
		}
	}
	w.Header().Set("content-type", "image/svg+xml")
	w.Header().Set("cache-control", "no-store")
	_, _ = w.Write([]byte(svg))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	t, err := h.deps.Store.GetTotals(r.Context())
	if err != nil {
		logger.From(r.Context()).Warn("stats_read_error", "err", err)
		t = &store.Totals{}
	}
	top, err := h.deps.Counters.TopSelections(r.Context(), TopSelectionsLimit)
	if err != nil {
		logger.From(r.Context()).Warn("selection_read_error", "err", err)
	}
	if top == nil {
		top = []store.SelectionCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":          t.Total,
		"today":          t.Today,
		"visitors":       t.Visitors,
		"today_visitors": t.TodayVisitors,
		"top_selections": top,
	})
}

// reload：重新装载数据集，需要 x-admin-token
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	t := r.Header.Get("x-admin-token")
	if t == "" || h.deps.AdminToken == "" || t != h.deps.AdminToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	st, err := h.deps.Service.Reload(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("dataset_reload_error", "err", err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, "RELOAD_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records":      len(st.Snapshot.Records),
		"source":       st.Snapshot.Source,
		"invalid_year": st.Snapshot.Stats.InvalidYear,
		"platforms":    len(st.Options.Platforms) - 1,
		"genres":       len(st.Options.Genres) - 1,
	})
}
