// 包 scene：与渲染后端无关的图元模型
// 背景：三个视图各自产出一份带键图元集合；渲染层只负责把图元画到 SVG，重绘前后的增删改由 Reconcile 比较得出
package scene

import "sort"

// Kind：图元类型
type Kind string

const (
	KindRect   Kind = "rect"
	KindCircle Kind = "circle"
	KindPath   Kind = "path"
	KindText   Kind = "text"
	KindLine   Kind = "line"
)

// Style：绘制样式；颜色为 "#rrggbb" 或空（不绘制）
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64

	// Opacity 为 0 视为不透明
	Opacity    float64
	FontSize   float64
	FontWeight string

	// Anchor：start | middle | end
	Anchor string

	// Rotate：绕 (X, Y) 旋转角度（度，顺时针为正）
	Rotate float64
}

// Element：单个图元
// 约束：同一 Scene 内 (Class, Key) 唯一；Key 为空的图元（坐标轴、标题）不参与比对
type Element struct {
	Key   string
	Class string
	Kind  Kind

	// rect: X,Y,W,H；circle: X,Y,R；line: X,Y → X2,Y2；text: X,Y 为锚点
	X, Y   float64
	W, H   float64
	X2, Y2 float64
	R      float64
	Text   string
	Path   Path
	Style  Style
}

// Scene：一次渲染的完整图元集合，按绘制顺序排列
type Scene struct {
	Width    float64
	Height   float64
	Elements []Element
}

// New：创建空画布
func New(width, height float64) *Scene {
	return &Scene{Width: width, Height: height}
}

// Add：追加图元（后加的覆盖在上层）
func (s *Scene) Add(els ...Element) {
	s.Elements = append(s.Elements, els...)
}

// Translate：把图元平移 (dx, dy)，用于边距内的绘图区
func Translate(e Element, dx, dy float64) Element {
	e.X += dx
	e.Y += dy
	if e.Kind == KindLine {
		e.X2 += dx
		e.Y2 += dy
	}
	if len(e.Path) > 0 {
		e.Path = e.Path.Offset(dx, dy)
	}
	return e
}

// ByClass：按类别筛出图元（保持顺序）
func (s *Scene) ByClass(class string) []Element {
	var out []Element
	for _, e := range s.Elements {
		if e.Class == class {
			out = append(out, e)
		}
	}
	return out
}

// Diff：两次渲染之间的键集合差异，元素形如 "class/key"
type Diff struct {
	Added   []string `json:"added"`
	Updated []string `json:"updated"`
	Removed []string `json:"removed"`
}

// Empty：无任何变化
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Reconcile：按 class+key 计算 enter/update/exit
// 约束：prev 为 nil 时全部视为新增；两边都存在的键一律计入 Updated（属性整体重写）
func Reconcile(prev, next *Scene) Diff {
	before := keys(prev)
	after := keys(next)
	var d Diff
	for k := range after {
		if before[k] {
			d.Updated = append(d.Updated, k)
		} else {
			d.Added = append(d.Added, k)
		}
	}
	for k := range before {
		if !after[k] {
			d.Removed = append(d.Removed, k)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Updated)
	sort.Strings(d.Removed)
	return d
}

func keys(s *Scene) map[string]bool {
	m := map[string]bool{}
	if s == nil {
		return m
	}
	for _, e := range s.Elements {
		if e.Key == "" {
			continue
		}
		m[e.Class+"/"+e.Key] = true
	}
	return m
}
