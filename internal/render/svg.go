// 包 render：把 scene 图元画成 SVG
// 背景：绘制交给 go-chart 的矢量渲染器，本包只负责坐标取整、样式换算与文本对齐（渲染器只支持左对齐，需先量宽再平移起点）
package render

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"vgsales-dash/internal/scene"
)

// 三次曲线折线化的分段数
const curveSegments = 12

// SVG：渲染整张画布
func SVG(s *scene.Scene) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("render: nil scene")
	}
	r, err := chart.SVG(px(s.Width), px(s.Height))
	if err != nil {
		return nil, fmt.Errorf("render: new svg renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("render: default font: %w", err)
	}
	r.SetFont(font)
	for _, e := range s.Elements {
		r.ResetStyle()
		r.SetFont(font)
		draw(r, e)
	}
	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, fmt.Errorf("render: save: %w", err)
	}
	return buf.Bytes(), nil
}

func draw(r chart.Renderer, e scene.Element) {
	fill, hasFill := color(e.Style.Fill, e.Style.Opacity)
	stroke, hasStroke := color(e.Style.Stroke, e.Style.Opacity)
	r.SetFillColor(fill)
	r.SetStrokeColor(stroke)
	r.SetStrokeWidth(e.Style.StrokeWidth)

	switch e.Kind {
	case scene.KindRect:
		r.MoveTo(px(e.X), px(e.Y))
		r.LineTo(px(e.X+e.W), px(e.Y))
		r.LineTo(px(e.X+e.W), px(e.Y+e.H))
		r.LineTo(px(e.X), px(e.Y+e.H))
		r.Close()
		paint(r, hasFill, hasStroke)
	case scene.KindCircle:
		if !hasStroke {
			r.SetStrokeWidth(0)
		}
		if e.R <= 0 {
			return
		}
		r.Circle(radius(e.R), px(e.X), px(e.Y))
	case scene.KindLine:
		r.MoveTo(px(e.X), px(e.Y))
		r.LineTo(px(e.X2), px(e.Y2))
		r.Stroke()
	case scene.KindPath:
		if len(e.Path) == 0 {
			return
		}
		for _, c := range e.Path.Flatten(curveSegments) {
			switch c.Op {
			case scene.OpMove:
				r.MoveTo(px(c.P[0].X), px(c.P[0].Y))
			case scene.OpLine:
				r.LineTo(px(c.P[0].X), px(c.P[0].Y))
			case scene.OpClose:
				r.Close()
			}
		}
		paint(r, hasFill, hasStroke)
	case scene.KindText:
		text(r, e, fill)
	}
}

func paint(r chart.Renderer, fill, stroke bool) {
	switch {
	case fill && stroke:
		r.FillStroke()
	case fill:
		r.Fill()
	default:
		r.Stroke()
	}
}

// text：按 Anchor 把锚点换算为起点；旋转文本沿旋转后的基线方向平移
func text(r chart.Renderer, e scene.Element, c drawing.Color) {
	size := e.Style.FontSize
	if size <= 0 {
		size = 10
	}
	// 渲染器字号单位为磅
	r.SetFontSize(size * 72 / r.GetDPI())
	r.SetFontColor(c)
	body := html.EscapeString(e.Text)

	var f float64
	switch e.Style.Anchor {
	case "middle":
		f = 0.5
	case "end":
		f = 1
	}
	w := float64(r.MeasureText(e.Text).Width())
	theta := e.Style.Rotate * math.Pi / 180
	x := e.X - f*w*math.Cos(theta)
	y := e.Y - f*w*math.Sin(theta)
	if theta != 0 {
		r.SetTextRotation(theta)
		defer r.ClearTextRotation()
	}
	r.Text(body, px(x), px(y))
}

// radius：渲染器按整数像素截断半径；这里四舍五入，正半径至少取 1
func radius(r float64) float64 {
	return math.Max(1, math.Round(r))
}

// color：解析 "#rrggbb"；空串为不绘制（透明）
func color(hex string, opacity float64) (drawing.Color, bool) {
	if hex == "" || hex == "none" {
		return drawing.ColorTransparent, false
	}
	c := drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	if opacity > 0 && opacity < 1 {
		c = c.WithAlpha(uint8(math.Round(opacity * 255)))
	}
	return c, true
}

func px(v float64) int { return int(math.Round(v)) }
