package views

import (
	"sort"

	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/scale"
	"vgsales-dash/internal/scene"
)

// LineTitle：折线图标题
const LineTitle = "Total Sales Per Year"

// LineMargin：折线图留白
var LineMargin = Margin{Top: 40, Right: 30, Bottom: 80, Left: 60}

// 年份标签最小间距（像素）
const yearLabelSpacing = 50

// YearSales：某年的销量合计
type YearSales struct {
	Year  int     `json:"year"`
	Sales float64 `json:"sales"`
}

// SalesPerYear：按年份汇总区域销量，年份升序
// 约束：年份为 0 或销量 <= 0 的记录不计入；有合格记录的年份一定出现
func SalesPerYear(records []dataset.Record, region dataset.RegionKey) []YearSales {
	sums := map[int]float64{}
	for _, r := range records {
		v := r.Sales(region)
		if r.Year == 0 || v <= 0 {
			continue
		}
		sums[r.Year] += v
	}
	out := make([]YearSales, 0, len(sums))
	for y, v := range sums {
		out = append(out, YearSales{Year: y, Sales: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// LineChart：逐年折线 + 数据点
// 约束：年份轴为点位比例尺（留白 0.5），标签按间隔抽稀并旋转 -45°；销量轴 [0, max]，max 为 0 时取 [0, 1]
func LineChart(series []YearSales, size Size) *scene.Scene {
	s := scene.New(size.Width, size.Height)
	w, h := inner(size, LineMargin)

	years := make([]string, len(series))
	maxV := 0.0
	for i, p := range series {
		years[i] = itoa(p.Year)
		if p.Sales > maxV {
			maxV = p.Sales
		}
	}
	if maxV <= 0 {
		maxV = 1
	}
	x := scale.NewPoint(years, 0, w, 0.5)
	y := scale.NewLinear(0, maxV, h, 0)

	pts := make([]scene.Point, 0, len(series))
	for i, p := range series {
		px, _ := x.Map(years[i])
		pts = append(pts, scene.Point{X: px, Y: y.Map(p.Sales)})
	}

	var els []scene.Element
	els = append(els, scene.Element{
		Key:   "series",
		Class: "line",
		Kind:  scene.KindPath,
		Path:  scene.MonotoneX(pts),
		Style: scene.Style{Stroke: ColorBar, StrokeWidth: 1.5},
	})
	for i := range series {
		els = append(els, scene.Element{
			Key:   years[i],
			Class: "dot",
			Kind:  scene.KindCircle,
			X:     pts[i].X,
			Y:     pts[i].Y,
			R:     4,
			Style: scene.Style{Fill: ColorBar},
		})
	}

	var xTicks []tick
	for _, yr := range scale.ThinTicks(x.Domain(), w, yearLabelSpacing) {
		pos, _ := x.Map(yr)
		xTicks = append(xTicks, tick{pos: pos, label: yr})
	}
	els = append(els, axisBottom("x-axis", h, w, xTicks, -45)...)
	els = append(els, axisLeft("y-axis", h, linearTicks(y, 10))...)
	els = append(els, axisTitle(-LineMargin.Left+15, h/2, "Total Sales (millions)"))

	place(s, LineMargin, els...)
	s.Add(chartTitle(size, LineMargin, LineTitle))
	return s
}
