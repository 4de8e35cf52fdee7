package geo

import (
	"math"

	geojson "github.com/paulmach/go.geojson"

	"vgsales-dash/internal/scene"
)

// 墨卡托在极点发散，纬度截断到 Web Mercator 的有效范围
const maxMercatorLat = 85.05112878

// DefaultMapScale：地图默认缩放
const DefaultMapScale = 130

// Mercator：球面墨卡托投影（与 d3.geoMercator 的 scale/translate 语义相同）
type Mercator struct {
	Scale float64
	TX    float64
	TY    float64
}

// FitMercator：按绘图区生成投影，平移到 (w/2, h/1.5)
// 约束：scale <= 0 时按宽度铺满（w / 2π）
func FitMercator(width, height, scale float64) Mercator {
	if scale <= 0 {
		scale = width / (2 * math.Pi)
	}
	return Mercator{Scale: scale, TX: width / 2, TY: height / 1.5}
}

// Project：经纬度（度）→ 平面坐标（y 轴向下）
func (m Mercator) Project(lon, lat float64) (float64, float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	lambda := lon * math.Pi / 180
	phi := lat * math.Pi / 180
	x := m.Scale*lambda + m.TX
	y := -m.Scale*math.Log(math.Tan(math.Pi/4+phi/2)) + m.TY
	return x, y
}

// Path：面几何的投影轮廓，每个环一段闭合子路径；非面几何返回空路径
func (m Mercator) Path(g *geojson.Geometry) scene.Path {
	var p scene.Path
	if g == nil {
		return p
	}
	switch {
	case g.IsPolygon():
		m.appendPolygon(&p, g.Polygon)
	case g.IsMultiPolygon():
		for _, poly := range g.MultiPolygon {
			m.appendPolygon(&p, poly)
		}
	}
	return p
}

func (m Mercator) appendPolygon(p *scene.Path, rings [][][]float64) {
	for _, r := range rings {
		if len(r) == 0 {
			continue
		}
		for i, c := range r {
			if len(c) < 2 {
				continue
			}
			x, y := m.Project(c[0], c[1])
			if i == 0 {
				p.MoveTo(x, y)
			} else {
				p.LineTo(x, y)
			}
		}
		p.Close()
	}
}
