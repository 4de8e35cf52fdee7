package views

import (
	"fmt"
	"sort"

	geojson "github.com/paulmach/go.geojson"

	"vgsales-dash/internal/catalog"
	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/geo"
	"vgsales-dash/internal/scale"
	"vgsales-dash/internal/scene"
)

// MapMargin：地图留白
var MapMargin = Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}

// MaxBubbleRadius：最大区域对应的气泡半径
const MaxBubbleRadius = 50

// RegionTotal：宏观区域销量合计
type RegionTotal struct {
	Name  string            `json:"name"`
	Key   dataset.RegionKey `json:"key"`
	Lon   float64           `json:"lon"`
	Lat   float64           `json:"lat"`
	Total float64           `json:"total"`
}

// RegionTotals：四个宏观区域各自的销量合计（目录顺序），合计为 0 的区域剔除
func RegionTotals(records []dataset.Record) []RegionTotal {
	macros := catalog.MacroRegions()
	out := make([]RegionTotal, 0, len(macros))
	for _, m := range macros {
		key := dataset.RegionKey(m.Key)
		sum := 0.0
		for _, r := range records {
			sum += r.Sales(key)
		}
		if sum > 0 {
			out = append(out, RegionTotal{Name: m.Name, Key: key, Lon: m.Lon, Lat: m.Lat, Total: sum})
		}
	}
	return out
}

// MapProjection：按地图画布生成投影（绘图区坐标）
func MapProjection(size Size, mapScale float64) geo.Mercator {
	w, h := inner(size, MapMargin)
	return geo.FitMercator(w, h, mapScale)
}

// BubbleMap：国家边界 + 区域气泡
// 约束：气泡半径为平方根比例尺 [0, max] → [0, 50]，面积与销量成正比；气泡位置与国家边界使用同一投影
func BubbleMap(countries *geojson.FeatureCollection, totals []RegionTotal, size Size, proj geo.Mercator) *scene.Scene {
	s := scene.New(size.Width, size.Height)
	var els []scene.Element
	if countries != nil {
		for i, f := range countries.Features {
			p := proj.Path(f.Geometry)
			if len(p) == 0 {
				continue
			}
			els = append(els, scene.Element{
				Key:   featureKey(f, i),
				Class: "country",
				Kind:  scene.KindPath,
				Path:  p,
				Style: scene.Style{Fill: ColorLand, Stroke: ColorBorder, StrokeWidth: 1},
			})
		}
	}

	maxV := 0.0
	for _, t := range totals {
		if t.Total > maxV {
			maxV = t.Total
		}
	}
	r := scale.NewSqrt(0, maxV, 0, MaxBubbleRadius)
	for _, t := range totals {
		cx, cy := proj.Project(t.Lon, t.Lat)
		els = append(els, scene.Element{
			Key:   t.Name,
			Class: "bubble",
			Kind:  scene.KindCircle,
			X:     cx,
			Y:     cy,
			R:     r.Map(t.Total),
			Style: scene.Style{Fill: ColorBar, Opacity: 0.5, Stroke: ColorOutline, StrokeWidth: 1},
		})
	}
	place(s, MapMargin, els...)
	return s
}

// 国家图元键：优先 feature id，其次 name 属性，最后用下标
func featureKey(f *geojson.Feature, i int) string {
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	if n, ok := f.Properties["name"].(string); ok && n != "" {
		return n
	}
	return "#" + itoa(i)
}

// LegendEntry：图例条目
type LegendEntry struct {
	Region string  `json:"region"`
	Total  float64 `json:"total"`
	Text   string  `json:"text"`

	// Visitor：访客所在区域
	Visitor bool `json:"visitor,omitempty"`
}

// Legend：按合计降序的图例，数值保留一位小数并加 "M"
func Legend(totals []RegionTotal) []LegendEntry {
	sorted := append([]RegionTotal(nil), totals...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Total > sorted[j].Total })
	out := make([]LegendEntry, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, LegendEntry{Region: t.Name, Total: t.Total, Text: scale.FormatFixed(t.Total, 1) + "M"})
	}
	return out
}

// MarkVisitor：标记访客所在区域（region 为空时不变）
func MarkVisitor(entries []LegendEntry, region string) []LegendEntry {
	if region == "" {
		return entries
	}
	out := append([]LegendEntry(nil), entries...)
	for i := range out {
		out[i].Visitor = out[i].Region == region
	}
	return out
}
