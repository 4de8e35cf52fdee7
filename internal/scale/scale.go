// 包 scale：图表比例尺（分类带状 / 点位 / 线性 / 平方根）与刻度、标签格式化
// 背景：计算规则与浏览器端 d3 保持一致（带宽、留白、刻度步长），保证服务端渲染与原交互版本像素级接近
package scale

import (
	"math"
	"strconv"
)

// Band：分类带状比例尺；Point 比例尺是 paddingInner=1 的特例（带宽为 0）
type Band struct {
	domain       []string
	index        map[string]int
	r0, r1       float64
	paddingInner float64
	paddingOuter float64
	align        float64
	start        float64
	step         float64
	bandwidth    float64
}

// NewBand：d3.scaleBand().range([r0, r1]).padding(p)
// 约束：定义域去重并保留首次出现顺序
func NewBand(domain []string, r0, r1, padding float64) *Band {
	b := &Band{r0: r0, r1: r1, paddingInner: padding, paddingOuter: padding, align: 0.5}
	b.setDomain(domain)
	return b
}

// NewPoint：d3.scalePoint().range([r0, r1]).padding(p)
func NewPoint(domain []string, r0, r1, padding float64) *Band {
	b := &Band{r0: r0, r1: r1, paddingInner: 1, paddingOuter: padding, align: 0.5}
	b.setDomain(domain)
	return b
}

func (b *Band) setDomain(domain []string) {
	b.index = make(map[string]int, len(domain))
	b.domain = b.domain[:0]
	for _, d := range domain {
		if _, ok := b.index[d]; ok {
			continue
		}
		b.index[d] = len(b.domain)
		b.domain = append(b.domain, d)
	}
	b.rescale()
}

func (b *Band) rescale() {
	n := float64(len(b.domain))
	start, stop := b.r0, b.r1
	if stop < start {
		start, stop = stop, start
	}
	b.step = (stop - start) / math.Max(1, n-b.paddingInner+b.paddingOuter*2)
	b.start = start + (stop-start-b.step*(n-b.paddingInner))*b.align
	b.bandwidth = b.step * (1 - b.paddingInner)
}

// Map：取值的起始位置；不在定义域返回 false
// 约束：反向区间（r1 < r0）时位置序列整体倒置
func (b *Band) Map(v string) (float64, bool) {
	i, ok := b.index[v]
	if !ok {
		return 0, false
	}
	if b.r1 < b.r0 {
		return b.start + b.step*float64(len(b.domain)-1-i), true
	}
	return b.start + b.step*float64(i), true
}

// Bandwidth：带宽（点位比例尺为 0）
func (b *Band) Bandwidth() float64 { return b.bandwidth }

// Step：相邻取值间距
func (b *Band) Step() float64 { return b.step }

// Domain：去重后的定义域（拷贝）
func (b *Band) Domain() []string { return append([]string(nil), b.domain...) }

// Linear：线性比例尺
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

// NewLinear：d3.scaleLinear().domain([d0, d1]).range([r0, r1])
func NewLinear(d0, d1, r0, r1 float64) Linear { return Linear{D0: d0, D1: d1, R0: r0, R1: r1} }

// Map：定义域退化（d0==d1）时映射到值域中点
func (l Linear) Map(v float64) float64 {
	t := 0.5
	if l.D1 != l.D0 {
		t = (v - l.D0) / (l.D1 - l.D0)
	}
	return l.R0 + t*(l.R1-l.R0)
}

// Ticks：约 count 个“整齐”刻度值
func (l Linear) Ticks(count int) []float64 { return Ticks(l.D0, l.D1, count) }

// Sqrt：平方根比例尺（面积与数值成正比）
type Sqrt struct {
	D0, D1 float64
	R0, R1 float64
}

// NewSqrt：d3.scaleSqrt().domain([d0, d1]).range([r0, r1])
func NewSqrt(d0, d1, r0, r1 float64) Sqrt { return Sqrt{D0: d0, D1: d1, R0: r0, R1: r1} }

// Map：负值按 -sqrt(|v|) 处理，与 d3 一致
func (s Sqrt) Map(v float64) float64 {
	a, b := signedSqrt(s.D0), signedSqrt(s.D1)
	t := 0.5
	if b != a {
		t = (signedSqrt(v) - a) / (b - a)
	}
	return s.R0 + t*(s.R1-s.R0)
}

func signedSqrt(v float64) float64 {
	if v < 0 {
		return -math.Sqrt(-v)
	}
	return math.Sqrt(v)
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Ticks：d3.ticks 的刻度生成规则（步长取 1/2/5/10 × 10^k）
func Ticks(start, stop float64, count int) []float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	i1, i2, inc := tickSpec(start, stop, float64(count))
	if i2 < i1 {
		return nil
	}
	n := int(i2-i1) + 1
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		k := i1 + float64(i)
		if inc < 0 {
			out[i] = k / -inc
		} else {
			out[i] = k * inc
		}
	}
	if reverse {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func tickSpec(start, stop, count float64) (float64, float64, float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	var i1, i2, inc float64
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && 0.5 <= count && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

// FormatFixed：定点小数格式（".1f"）
func FormatFixed(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if s == "-"+strconv.FormatFloat(0, 'f', digits, 64) {
		return s[1:]
	}
	return s
}

// TruncateLabel：超过 n 个字符的标签截断并追加 "..."
func TruncateLabel(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// TickInterval：刻度抽稀间隔 ceil(count / (width / spacing))，最小 1
func TickInterval(count int, width, spacing float64) int {
	if count <= 0 || width <= 0 || spacing <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(count) / (width / spacing)))
	if n < 1 {
		return 1
	}
	return n
}

// ThinTicks：按抽稀间隔保留第 0, k, 2k... 个值
func ThinTicks[T any](values []T, width, spacing float64) []T {
	k := TickInterval(len(values), width, spacing)
	out := make([]T, 0, len(values)/k+1)
	for i, v := range values {
		if i%k == 0 {
			out = append(out, v)
		}
	}
	return out
}
