// 包 views：三个视图（Top-N 柱状图、逐年折线图、地图气泡）的聚合计算与图元生成
// 背景：每个视图只依赖传入的过滤结果和区域键，从零构建整张画布；视图之间不共享任何可变状态
package views

import (
	"math"
	"strconv"

	"vgsales-dash/internal/scale"
	"vgsales-dash/internal/scene"
)

// Size：画布尺寸（像素）
type Size struct {
	Width  float64
	Height float64
}

// Margin：绘图区四周留白
type Margin struct {
	Top, Right, Bottom, Left float64
}

// 配色
const (
	ColorBar     = "#4682b4"
	ColorLand    = "#e0e0e0"
	ColorBorder  = "#999999"
	ColorOutline = "#333333"
	ColorAxis    = "#000000"
)

const (
	axisFontSize  = 10
	titleFontSize = 16
	tickSize      = 6
	tickPadding   = 3
)

// inner：扣除留白后的绘图区宽高（不小于 0）
func inner(s Size, m Margin) (float64, float64) {
	return math.Max(0, s.Width-m.Left-m.Right), math.Max(0, s.Height-m.Top-m.Bottom)
}

// chartTitle：画布顶部居中的粗体标题（画布坐标）
func chartTitle(s Size, m Margin, text string) scene.Element {
	return scene.Element{
		Class: "title",
		Kind:  scene.KindText,
		X:     s.Width / 2,
		Y:     m.Top / 2,
		Text:  text,
		Style: scene.Style{Fill: ColorAxis, FontSize: titleFontSize, FontWeight: "bold", Anchor: "middle"},
	}
}

// axisTitle：纵轴标题，逆时针旋转 90°（绘图区坐标）
func axisTitle(x, y float64, text string) scene.Element {
	return scene.Element{
		Class: "axis-title",
		Kind:  scene.KindText,
		X:     x,
		Y:     y,
		Text:  text,
		Style: scene.Style{Fill: ColorAxis, FontSize: titleFontSize, Anchor: "middle", Rotate: -90},
	}
}

func axisLine(class string, x1, y1, x2, y2 float64) scene.Element {
	return scene.Element{
		Class: class,
		Kind:  scene.KindLine,
		X:     x1,
		Y:     y1,
		X2:    x2,
		Y2:    y2,
		Style: scene.Style{Stroke: ColorAxis, StrokeWidth: 1},
	}
}

func tickLabel(class string, x, y float64, text, anchor string, rotate float64) scene.Element {
	return scene.Element{
		Class: class,
		Kind:  scene.KindText,
		X:     x,
		Y:     y,
		Text:  text,
		Style: scene.Style{Fill: ColorAxis, FontSize: axisFontSize, Anchor: anchor, Rotate: rotate},
	}
}

// tick 描述一个刻度：位置与文本
type tick struct {
	pos   float64
	label string
}

// axisLeft：左侧纵轴，刻度线向左，标签右对齐
func axisLeft(class string, length float64, ticks []tick) []scene.Element {
	els := []scene.Element{
		axisLine(class, -tickSize, 0, 0, 0),
		axisLine(class, 0, 0, 0, length),
		axisLine(class, 0, length, -tickSize, length),
	}
	for _, t := range ticks {
		els = append(els,
			axisLine(class, -tickSize, t.pos, 0, t.pos),
			tickLabel(class, -(tickSize+tickPadding), t.pos+0.32*axisFontSize, t.label, "end", 0),
		)
	}
	return els
}

// axisBottom：底部横轴（绘图区坐标，y 为轴所在高度）
// 约束：rotate 非 0 时标签绕刻度原点旋转并右对齐
func axisBottom(class string, y, length float64, ticks []tick, rotate float64) []scene.Element {
	els := []scene.Element{
		axisLine(class, 0, y+tickSize, 0, y),
		axisLine(class, 0, y, length, y),
		axisLine(class, length, y, length, y+tickSize),
	}
	dy := tickSize + tickPadding + 0.71*axisFontSize
	for _, t := range ticks {
		els = append(els, axisLine(class, t.pos, y, t.pos, y+tickSize))
		if rotate == 0 {
			els = append(els, tickLabel(class, t.pos, y+dy, t.label, "middle", 0))
			continue
		}
		rad := rotate * math.Pi / 180
		lx := t.pos - dy*math.Sin(rad)
		ly := y + dy*math.Cos(rad)
		els = append(els, tickLabel(class, lx, ly, t.label, "end", rotate))
	}
	return els
}

// linearTicks：线性轴刻度，标签保留一位小数
func linearTicks(l scale.Linear, count int) []tick {
	vals := l.Ticks(count)
	out := make([]tick, 0, len(vals))
	for _, v := range vals {
		out = append(out, tick{pos: l.Map(v), label: scale.FormatFixed(v, 1)})
	}
	return out
}

// place：把绘图区坐标系的图元整体平移到画布
func place(s *scene.Scene, m Margin, els ...scene.Element) {
	for _, e := range els {
		s.Add(scene.Translate(e, m.Left, m.Top))
	}
}

func itoa(v int) string { return strconv.Itoa(v) }
