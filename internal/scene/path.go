package scene

import (
	"math"
	"strconv"
	"strings"
)

// Op：路径指令
type Op byte

const (
	OpMove  Op = 'M'
	OpLine  Op = 'L'
	OpCubic Op = 'C'
	OpClose Op = 'Z'
)

// Point：平面坐标
type Point struct{ X, Y float64 }

// Cmd：单条路径指令；OpCubic 依次为控制点1、控制点2、终点，其余只用 P[0]
type Cmd struct {
	Op Op
	P  [3]Point
}

// Path：路径指令序列
type Path []Cmd

func (p *Path) MoveTo(x, y float64) { *p = append(*p, Cmd{Op: OpMove, P: [3]Point{{x, y}}}) }
func (p *Path) LineTo(x, y float64) { *p = append(*p, Cmd{Op: OpLine, P: [3]Point{{x, y}}}) }
func (p *Path) Close()              { *p = append(*p, Cmd{Op: OpClose}) }

func (p *Path) CubicTo(x1, y1, x2, y2, x, y float64) {
	*p = append(*p, Cmd{Op: OpCubic, P: [3]Point{{x1, y1}, {x2, y2}, {x, y}}})
}

// Offset：整体平移后的新路径
func (p Path) Offset(dx, dy float64) Path {
	out := make(Path, len(p))
	for i, c := range p {
		for j := range c.P {
			c.P[j].X += dx
			c.P[j].Y += dy
		}
		out[i] = c
	}
	return out
}

// String：SVG path 的 d 属性
func (p Path) String() string {
	var b strings.Builder
	for _, c := range p {
		b.WriteByte(byte(c.Op))
		switch c.Op {
		case OpMove, OpLine:
			writePoint(&b, c.P[0])
		case OpCubic:
			writePoint(&b, c.P[0])
			b.WriteByte(',')
			writePoint(&b, c.P[1])
			b.WriteByte(',')
			writePoint(&b, c.P[2])
		}
	}
	return b.String()
}

func writePoint(b *strings.Builder, pt Point) {
	b.WriteString(strconv.FormatFloat(round3(pt.X), 'f', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(round3(pt.Y), 'f', -1, 64))
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// Flatten：三次贝塞尔段按 segments 等分为折线，供只支持直线的后端使用
func (p Path) Flatten(segments int) Path {
	if segments < 1 {
		segments = 1
	}
	var out Path
	var cur Point
	for _, c := range p {
		switch c.Op {
		case OpCubic:
			for i := 1; i <= segments; i++ {
				t := float64(i) / float64(segments)
				pt := cubicAt(cur, c.P[0], c.P[1], c.P[2], t)
				out.LineTo(pt.X, pt.Y)
			}
			cur = c.P[2]
		case OpClose:
			out = append(out, c)
		default:
			out = append(out, c)
			cur = c.P[0]
		}
	}
	return out
}

func cubicAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// MonotoneX：单调三次插值曲线（与 d3.curveMonotoneX 相同的切线规则）
// 约束：pts 按 X 递增；重合点被忽略；一个点只产生 M，两个点为直线
func MonotoneX(pts []Point) Path {
	var (
		p      Path
		n      int
		x0, y0 float64
		x1, y1 float64
		t0     float64
	)
	for i, pt := range pts {
		if i > 0 && pt.X == x1 && pt.Y == y1 {
			continue
		}
		t1 := math.NaN()
		switch n {
		case 0:
			p.MoveTo(pt.X, pt.Y)
			n = 1
		case 1:
			n = 2
		case 2:
			n = 3
			t1 = slope3(x0, y0, x1, y1, pt.X, pt.Y)
			hermite(&p, x0, y0, x1, y1, slope2(x0, y0, x1, y1, t1), t1)
		default:
			t1 = slope3(x0, y0, x1, y1, pt.X, pt.Y)
			hermite(&p, x0, y0, x1, y1, t0, t1)
		}
		x0, y0, x1, y1 = x1, y1, pt.X, pt.Y
		t0 = t1
	}
	switch n {
	case 2:
		p.LineTo(x1, y1)
	case 3:
		hermite(&p, x0, y0, x1, y1, t0, slope2(x0, y0, x1, y1, t0))
	}
	return p
}

func hermite(p *Path, x0, y0, x1, y1, t0, t1 float64) {
	dx := (x1 - x0) / 3
	p.CubicTo(x0+dx, y0+dx*t0, x1-dx, y1-dx*t1, x1, y1)
}

func slope3(x0, y0, x1, y1, x2, y2 float64) float64 {
	h0 := x1 - x0
	h1 := x2 - x1
	s0 := (y1 - y0) / h0
	s1 := (y2 - y1) / h1
	p := (s0*h1 + s1*h0) / (h0 + h1)
	v := (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(p))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func slope2(x0, y0, x1, y1, t float64) float64 {
	h := x1 - x0
	if h == 0 {
		return t
	}
	return (3*(y1-y0)/h - t) / 2
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
