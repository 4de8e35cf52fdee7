package views

import (
	"sort"

	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/scale"
	"vgsales-dash/internal/scene"
)

// TopN：柱状图保留的条数（标题写的是 Top 20，实际取 25 条，沿用既有展示）
const TopN = 25

// BarTitle：柱状图标题
const BarTitle = "Top 20 Games"

// BarMargin：柱状图留白
var BarMargin = Margin{Top: 50, Right: 30, Bottom: 30, Left: 150}

// RankedGame：排名条目
type RankedGame struct {
	Name     string  `json:"name"`
	Platform string  `json:"platform"`
	Genre    string  `json:"genre"`
	Year     int     `json:"year"`
	Value    float64 `json:"value"`
}

// RankTop：按区域销量降序取前 TopN 条
// 约束：剔除销量 <= 0 的记录；同值保持原始顺序
func RankTop(records []dataset.Record, region dataset.RegionKey) []RankedGame {
	out := make([]RankedGame, 0, TopN)
	for _, r := range records {
		v := r.Sales(region)
		if v <= 0 {
			continue
		}
		out = append(out, RankedGame{Name: r.Name, Platform: r.Platform, Genre: r.Genre, Year: r.Year, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

// BarChart：横向柱状图，纵轴为游戏名（带状比例尺），横轴为销量 [0, max]
// 约束：空集合时横轴定义域为 [0, 1]；重名游戏共用同一条带，图元键追加序号保持唯一
func BarChart(ranked []RankedGame, size Size) *scene.Scene {
	s := scene.New(size.Width, size.Height)
	w, h := inner(size, BarMargin)

	names := make([]string, len(ranked))
	maxV := 0.0
	for i, g := range ranked {
		names[i] = g.Name
		if g.Value > maxV {
			maxV = g.Value
		}
	}
	if maxV <= 0 {
		maxV = 1
	}
	y := scale.NewBand(names, 0, h, 0.2)
	x := scale.NewLinear(0, maxV, 0, w)

	var els []scene.Element
	seen := map[string]int{}
	for _, g := range ranked {
		pos, _ := y.Map(g.Name)
		els = append(els, scene.Element{
			Key:   uniqueKey(seen, g.Name),
			Class: "bar",
			Kind:  scene.KindRect,
			X:     0,
			Y:     pos,
			W:     x.Map(g.Value),
			H:     y.Bandwidth(),
			Style: scene.Style{Fill: ColorBar},
		})
	}

	var yTicks []tick
	for _, n := range y.Domain() {
		pos, _ := y.Map(n)
		yTicks = append(yTicks, tick{pos: pos + y.Bandwidth()/2, label: scale.TruncateLabel(n, 15)})
	}
	els = append(els, axisLeft("y-axis", h, yTicks)...)
	els = append(els, axisBottom("x-axis", h, w, linearTicks(x, 10), 0)...)
	els = append(els, axisTitle(-BarMargin.Left+20, h/2, "Game Titles"))

	place(s, BarMargin, els...)
	s.Add(chartTitle(size, BarMargin, BarTitle))
	return s
}

func uniqueKey(seen map[string]int, k string) string {
	seen[k]++
	if n := seen[k]; n > 1 {
		return k + "#" + itoa(n)
	}
	return k
}
