// 包 dashboard：过滤到渲染的流水线
// 背景：一次筛选事件只过滤一次，结果依次交给柱状图、折线图与地图；地图需要获取世界几何，是唯一的阻塞 I/O，
// 因此拆成 RenderCharts 与 RenderMap 两步，事件通道可以先推送图表帧，再推送地图帧
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/filter"
	"vgsales-dash/internal/geo"
	"vgsales-dash/internal/logger"
	"vgsales-dash/internal/metrics"
	"vgsales-dash/internal/render"
	"vgsales-dash/internal/scene"
	"vgsales-dash/internal/views"
)

// Config：画布尺寸与地图缩放
type Config struct {
	Bar      views.Size
	Line     views.Size
	Bubble   views.Size
	MapScale float64
}

// DefaultConfig：柱状图 800x600，折线图 800x400，地图 800x500，缩放 130
func DefaultConfig() Config {
	return Config{
		Bar:      views.Size{Width: 800, Height: 600},
		Line:     views.Size{Width: 800, Height: 400},
		Bubble:   views.Size{Width: 800, Height: 500},
		MapScale: geo.DefaultMapScale,
	}
}

// Service：持有当前数据集、几何来源与画布配置
type Service struct {
	cfg    Config
	geo    geo.Source
	loader Loader
	state  holder
	log    *slog.Logger
}

func New(cfg Config, src geo.Source, loader Loader) *Service {
	return &Service{cfg: cfg, geo: src, loader: loader, log: logger.L()}
}

// Reload：调用 Loader 重新装载并替换当前数据集
func (s *Service) Reload(ctx context.Context) (*State, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("dashboard: no loader configured")
	}
	snap, err := s.loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: reload: %w", err)
	}
	st := s.Swap(snap)
	s.log.Info("dataset_load_ok", "source", snap.Source, "records", len(snap.Records), "rows", snap.Stats.Rows, "invalid_year", snap.Stats.InvalidYear)
	return st, nil
}

// Swap：直接替换数据集
func (s *Service) Swap(snap *dataset.Snapshot) *State { return s.state.store(snap) }

// State：当前数据集；未装载时为 nil
func (s *Service) State() *State { return s.state.load() }

// Frame：一次筛选事件的输入与过滤结果
// 约束：Records 是事件发生时的过滤结果，之后数据集被替换也不受影响
type Frame struct {
	Seq       uint64
	Selection filter.Selection
	Records   []dataset.Record
	LoadedAt  time.Time
}

// Prepare：校验筛选条件并过滤一次
func (s *Service) Prepare(seq uint64, sel filter.Selection) (Frame, error) {
	st := s.State()
	if st == nil {
		return Frame{}, ErrNoDataset
	}
	if err := filter.Validate(sel, st.Options); err != nil {
		return Frame{}, err
	}
	metrics.FilterEventsTotal.WithLabelValues(string(sel.Region)).Inc()
	return Frame{
		Seq:       seq,
		Selection: sel,
		Records:   filter.Apply(st.Snapshot.Records, sel),
		LoadedAt:  st.Snapshot.LoadedAt,
	}, nil
}

// Charts：柱状图与折线图
type Charts struct {
	Seq       uint64             `json:"seq"`
	Selection filter.Selection   `json:"selection"`
	Matched   int                `json:"matched"`
	Top       []views.RankedGame `json:"top"`
	Series    []views.YearSales  `json:"series"`
	Bar       *scene.Scene       `json:"-"`
	Line      *scene.Scene       `json:"-"`
	BarSVG    string             `json:"bar_svg"`
	LineSVG   string             `json:"line_svg"`
}

// MapView：地图气泡与图例
type MapView struct {
	Seq       uint64              `json:"seq"`
	Selection filter.Selection    `json:"selection"`
	Totals    []views.RegionTotal `json:"totals"`
	Legend    []views.LegendEntry `json:"legend"`
	Scene     *scene.Scene        `json:"-"`
	SVG       string              `json:"bubble_svg"`
}

// RenderCharts：同步渲染柱状图与折线图
func (s *Service) RenderCharts(f Frame) (*Charts, error) {
	out := &Charts{Seq: f.Seq, Selection: f.Selection, Matched: len(f.Records)}

	err := timed("bar", func() error {
		out.Top = views.RankTop(f.Records, f.Selection.Region)
		out.Bar = views.BarChart(out.Top, s.cfg.Bar)
		b, err := render.SVG(out.Bar)
		out.BarSVG = string(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	err = timed("line", func() error {
		out.Series = views.SalesPerYear(f.Records, f.Selection.Region)
		out.Line = views.LineChart(out.Series, s.cfg.Line)
		b, err := render.SVG(out.Line)
		out.LineSVG = string(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// 文档注释：地图视图
// 背景：每次调用都重新获取世界几何；聚合只读取 Frame 中捕获的过滤结果，不读取任何全局状态。
// 约束：几何获取失败时返回错误，本轮不产出地图与图例，不重试。
func (s *Service) RenderMap(ctx context.Context, f Frame) (*MapView, error) {
	start := time.Now()
	countries, err := s.geo.Fetch(ctx)
	metrics.GeometryFetchDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.GeometryFetchTotal.WithLabelValues("error").Inc()
		s.log.Warn("geometry_fetch_error", "source", s.geo.Name(), "seq", f.Seq, "err", err)
		return nil, fmt.Errorf("dashboard: geometry: %w", err)
	}
	metrics.GeometryFetchTotal.WithLabelValues("ok").Inc()

	out := &MapView{Seq: f.Seq, Selection: f.Selection}
	err = timed("bubble", func() error {
		out.Totals = views.RegionTotals(f.Records)
		proj := views.MapProjection(s.cfg.Bubble, s.cfg.MapScale)
		out.Scene = views.BubbleMap(countries, out.Totals, s.cfg.Bubble, proj)
		out.Legend = views.Legend(out.Totals)
		b, err := render.SVG(out.Scene)
		out.SVG = string(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Result：一次完整渲染；Map 为 nil 表示本轮地图未绘制，原因见 MapErr
type Result struct {
	*Charts
	Map    *MapView `json:"map,omitempty"`
	MapErr error    `json:"-"`
}

// Render：过滤一次，依次渲染柱状图、折线图、地图
func (s *Service) Render(ctx context.Context, sel filter.Selection) (*Result, error) {
	f, err := s.Prepare(0, sel)
	if err != nil {
		return nil, err
	}
	charts, err := s.RenderCharts(f)
	if err != nil {
		return nil, err
	}
	res := &Result{Charts: charts}
	res.Map, res.MapErr = s.RenderMap(ctx, f)
	return res, nil
}

func timed(view string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RenderDurationMs.WithLabelValues(view).Observe(float64(time.Since(start).Milliseconds()))
	metrics.RenderTotal.WithLabelValues(view).Inc()
	if err != nil {
		return fmt.Errorf("dashboard: render %s: %w", view, err)
	}
	return nil
}
