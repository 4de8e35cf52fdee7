package scale

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBandPadding(t *testing.T) {
	b := NewBand([]string{"a", "b", "c", "b"}, 0, 100, 0.2)
	if got := len(b.Domain()); got != 3 {
		t.Fatalf("expected de-duplicated domain of 3, got %d", got)
	}
	if !near(b.Step(), 31.25) || !near(b.Bandwidth(), 25) {
		t.Fatalf("step/bandwidth: %v %v", b.Step(), b.Bandwidth())
	}
	want := map[string]float64{"a": 6.25, "b": 37.5, "c": 68.75}
	for k, w := range want {
		if got, ok := b.Map(k); !ok || !near(got, w) {
			t.Fatalf("Map(%s) = %v %v, want %v", k, got, ok, w)
		}
	}
	if _, ok := b.Map("z"); ok {
		t.Fatalf("unknown value must not map")
	}
}

func TestBandReversedRange(t *testing.T) {
	b := NewBand([]string{"a", "b"}, 100, 0, 0)
	a, _ := b.Map("a")
	bb, _ := b.Map("b")
	if !near(a, 50) || !near(bb, 0) {
		t.Fatalf("reversed band positions: a=%v b=%v", a, bb)
	}
}

func TestPointPadding(t *testing.T) {
	p := NewPoint([]string{"1990", "1991", "1992", "1993"}, 0, 100, 0.5)
	if p.Bandwidth() != 0 {
		t.Fatalf("point scale bandwidth must be 0")
	}
	for i, w := range []float64{12.5, 37.5, 62.5, 87.5} {
		got, _ := p.Map(p.Domain()[i])
		if !near(got, w) {
			t.Fatalf("point %d: got %v want %v", i, got, w)
		}
	}
	single := NewPoint([]string{"2005"}, 0, 100, 0.5)
	if got, _ := single.Map("2005"); !near(got, 50) {
		t.Fatalf("single point should be centered, got %v", got)
	}
}

func TestLinear(t *testing.T) {
	l := NewLinear(0, 10, 300, 0)
	if !near(l.Map(0), 300) || !near(l.Map(10), 0) || !near(l.Map(5), 150) {
		t.Fatalf("linear mapping off: %v %v %v", l.Map(0), l.Map(10), l.Map(5))
	}
	flat := NewLinear(3, 3, 0, 100)
	if !near(flat.Map(3), 50) {
		t.Fatalf("degenerate domain should map to range midpoint")
	}
}

func TestTicks(t *testing.T) {
	cases := []struct {
		start, stop float64
		count       int
		want        []float64
	}{
		{0, 1, 10, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}},
		{0, 82.74, 10, []float64{0, 10, 20, 30, 40, 50, 60, 70, 80}},
		{0, 1.5, 10, []float64{0, 0.2, 0.4, 0.6, 0.8, 1, 1.2, 1.4}},
		{0, 0, 10, []float64{0}},
		{0, 5, 0, nil},
	}
	for _, c := range cases {
		got := Ticks(c.start, c.stop, c.count)
		if len(got) != len(c.want) {
			t.Fatalf("Ticks(%v,%v,%d) = %v, want %v", c.start, c.stop, c.count, got, c.want)
		}
		for i := range got {
			if !near(got[i], c.want[i]) {
				t.Fatalf("Ticks(%v,%v,%d)[%d] = %v, want %v", c.start, c.stop, c.count, i, got[i], c.want[i])
			}
		}
	}
}

func TestSqrtIsAreaProportional(t *testing.T) {
	s := NewSqrt(0, 100, 0, 50)
	if !near(s.Map(100), 50) || !near(s.Map(25), 25) || s.Map(0) != 0 {
		t.Fatalf("sqrt mapping: %v %v %v", s.Map(100), s.Map(25), s.Map(0))
	}
}

func TestFormatAndTruncate(t *testing.T) {
	if FormatFixed(1.25, 1) != "1.2" && FormatFixed(1.25, 1) != "1.3" {
		t.Fatalf("unexpected rounding: %s", FormatFixed(1.25, 1))
	}
	if FormatFixed(-0.01, 1) != "0.0" {
		t.Fatalf("negative zero should print as 0.0, got %s", FormatFixed(-0.01, 1))
	}
	if got := TruncateLabel("Grand Theft Auto V", 15); got != "Grand Theft Aut..." {
		t.Fatalf("truncate: %q", got)
	}
	if got := TruncateLabel("Tetris", 15); got != "Tetris" {
		t.Fatalf("short label changed: %q", got)
	}
	if got := TruncateLabel("ポケットモンスター赤・緑・青・ピカチュウ", 15); len([]rune(got)) != 18 {
		t.Fatalf("truncate must count runes: %q", got)
	}
}

func TestThinTicks(t *testing.T) {
	years := make([]int, 37)
	for i := range years {
		years[i] = 1980 + i
	}
	// 可绘制宽度 710 → 710/50 = 14.2 个标签位，ceil(37/14.2) = 3
	got := ThinTicks(years, 710, 50)
	if TickInterval(37, 710, 50) != 3 {
		t.Fatalf("interval: %d", TickInterval(37, 710, 50))
	}
	if got[0] != 1980 || got[1] != 1983 || len(got) != 13 {
		t.Fatalf("thinned ticks: %v", got)
	}
	if all := ThinTicks([]int{2001, 2002}, 710, 50); len(all) != 2 {
		t.Fatalf("sparse series must keep every label: %v", all)
	}
	if TickInterval(0, 710, 50) != 1 {
		t.Fatalf("empty series interval must be 1")
	}
}
