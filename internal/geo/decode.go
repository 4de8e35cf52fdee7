package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
)

var (
	// ErrNoCountries：拓扑文件缺少 countries 对象
	ErrNoCountries = errors.New("geo: topology has no countries object")
	// ErrUnsupported：既不是 FeatureCollection 也不是 Topology
	ErrUnsupported = errors.New("geo: unsupported geometry document")
)

// CountriesObject：TopoJSON 中国家边界对象的名称
const CountriesObject = "countries"

// Decode：解析 GeoJSON FeatureCollection 或 TopoJSON Topology（取 countries 对象）
func Decode(b []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, fmt.Errorf("geo: decode: %w", err)
	}
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(b)
		if err != nil {
			return nil, fmt.Errorf("geo: decode geojson: %w", err)
		}
		return fc, nil
	case "Topology":
		return decodeTopology(b, CountriesObject)
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnsupported, head.Type)
	}
}

type topology struct {
	Transform *struct {
		Scale     [2]float64 `json:"scale"`
		Translate [2]float64 `json:"translate"`
	} `json:"transform"`
	Arcs    [][][]float64              `json:"arcs"`
	Objects map[string]json.RawMessage `json:"objects"`
}

type topoGeometry struct {
	Type       string          `json:"type"`
	ID         any             `json:"id"`
	Properties map[string]any  `json:"properties"`
	Arcs       json.RawMessage `json:"arcs"`
	Geometries []topoGeometry  `json:"geometries"`
}

// 文档注释：TopoJSON → GeoJSON
// 背景：世界地图通常以拓扑格式分发（共享边只存一次），这里做与 topojson.feature 相同的还原。
// 约束：量化坐标逐弧差分还原后再套 transform；负弧下标 ~i 表示反向；环首尾拼接时去掉重复点；点数不足 4 的环补首点。
func decodeTopology(b []byte, object string) (*geojson.FeatureCollection, error) {
	var t topology
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("geo: decode topology: %w", err)
	}
	raw, ok := t.Objects[object]
	if !ok {
		return nil, ErrNoCountries
	}
	var root topoGeometry
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("geo: decode object %s: %w", object, err)
	}
	arcs := absoluteArcs(&t)
	fc := geojson.NewFeatureCollection()
	var walk func(g topoGeometry) error
	walk = func(g topoGeometry) error {
		if g.Type == "GeometryCollection" {
			for _, c := range g.Geometries {
				if err := walk(c); err != nil {
					return err
				}
			}
			return nil
		}
		geom, err := topoToGeometry(g, arcs)
		if err != nil {
			return err
		}
		if geom == nil {
			return nil
		}
		f := geojson.NewFeature(geom)
		f.ID = g.ID
		for k, v := range g.Properties {
			f.SetProperty(k, v)
		}
		fc.AddFeature(f)
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return fc, nil
}

func absoluteArcs(t *topology) [][][2]float64 {
	out := make([][][2]float64, len(t.Arcs))
	for i, arc := range t.Arcs {
		pts := make([][2]float64, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if t.Transform == nil {
				pts = append(pts, [2]float64{p[0], p[1]})
				continue
			}
			x += p[0]
			y += p[1]
			pts = append(pts, [2]float64{
				x*t.Transform.Scale[0] + t.Transform.Translate[0],
				y*t.Transform.Scale[1] + t.Transform.Translate[1],
			})
		}
		out[i] = pts
	}
	return out
}

// topoToGeometry：只还原面类型，其他类型（点、线、空几何）返回 nil
func topoToGeometry(g topoGeometry, arcs [][][2]float64) (*geojson.Geometry, error) {
	switch g.Type {
	case "Polygon":
		var rings [][]int
		if err := json.Unmarshal(g.Arcs, &rings); err != nil {
			return nil, fmt.Errorf("geo: polygon arcs: %w", err)
		}
		poly, err := polygon(rings, arcs)
		if err != nil {
			return nil, err
		}
		return geojson.NewPolygonGeometry(poly), nil
	case "MultiPolygon":
		var polys [][][]int
		if err := json.Unmarshal(g.Arcs, &polys); err != nil {
			return nil, fmt.Errorf("geo: multipolygon arcs: %w", err)
		}
		out := make([][][][]float64, 0, len(polys))
		for _, rings := range polys {
			poly, err := polygon(rings, arcs)
			if err != nil {
				return nil, err
			}
			out = append(out, poly)
		}
		return geojson.NewMultiPolygonGeometry(out...), nil
	default:
		return nil, nil
	}
}

func polygon(rings [][]int, arcs [][][2]float64) ([][][]float64, error) {
	out := make([][][]float64, 0, len(rings))
	for _, r := range rings {
		rg, err := ring(r, arcs)
		if err != nil {
			return nil, err
		}
		out = append(out, rg)
	}
	return out, nil
}

func ring(idx []int, arcs [][][2]float64) ([][]float64, error) {
	var pts [][]float64
	for _, i := range idx {
		reverse := i < 0
		if reverse {
			i = ^i
		}
		if i >= len(arcs) {
			return nil, fmt.Errorf("geo: arc index %d out of range", i)
		}
		if len(pts) > 0 {
			pts = pts[:len(pts)-1]
		}
		a := arcs[i]
		start := len(pts)
		for _, p := range a {
			pts = append(pts, []float64{p[0], p[1]})
		}
		if reverse {
			for l, r := start, len(pts)-1; l < r; l, r = l+1, r-1 {
				pts[l], pts[r] = pts[r], pts[l]
			}
		}
	}
	for len(pts) > 0 && len(pts) < 4 {
		pts = append(pts, pts[0])
	}
	return pts, nil
}
