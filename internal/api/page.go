package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"vgsales-dash/internal/filter"
	"vgsales-dash/internal/logger"
	"vgsales-dash/internal/options"
	"vgsales-dash/internal/views"
)

//go:embed templates/page.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

// pageData：仪表盘页面模型
// 约束：SVG 由本服务渲染且文本已转义，以 template.HTML 原样内联
type pageData struct {
	Options   options.Options
	Selection filter.Selection
	Region    string
	Matched   int
	BarSVG    template.HTML
	LineSVG   template.HTML
	BubbleSVG template.HTML
	Legend    []views.LegendEntry
	MapError  bool
	Visitor   string
}

// page：服务端完整渲染一次，页面脚本随后改用事件通道增量刷新
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	res, err := h.deps.Service.Render(r.Context(), sel)
	if err != nil {
		logger.From(r.Context()).Error("render_error", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	h.account(r.Context(), clientAddr(r), sel)

	d := pageData{
		Options:   h.deps.Service.State().Options,
		Selection: sel,
		Region:    string(sel.Region),
		Matched:   res.Matched,
		BarSVG:    template.HTML(res.BarSVG),
		LineSVG:   template.HTML(res.LineSVG),
		MapError:  res.MapErr != nil,
		Visitor:   h.visitorRegion(r),
	}
	if res.Map != nil {
		d.BubbleSVG = template.HTML(res.Map.SVG)
		d.Legend = views.MarkVisitor(res.Map.Legend, d.Visitor)
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, d); err != nil {
		logger.From(r.Context()).Error("page_template_error", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
