package store

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	if err := s.IncrStats(context.Background(), true); err != nil {
		t.Fatalf("nil store IncrStats: %v", err)
	}
	tot, err := s.GetTotals(context.Background())
	if err != nil || *tot != (Totals{}) {
		t.Fatalf("nil store totals: %+v %v", tot, err)
	}
	if _, err := AttachDB(nil).LoadSnapshot(context.Background()); err == nil {
		t.Fatalf("loading without a database must fail")
	}
	if _, err := AttachDB(nil).ReplaceSales(context.Background(), nil); err == nil {
		t.Fatalf("replacing without a database must fail")
	}
}

func TestNilSelectionsIsNoop(t *testing.T) {
	sel := NewSelections(nil)
	if err := sel.IncrSelection(context.Background(), "All|All|Global_Sales"); err != nil {
		t.Fatalf("nil client incr: %v", err)
	}
	top, err := sel.TopSelections(context.Background(), 5)
	if err != nil || top != nil {
		t.Fatalf("nil client top: %v %v", top, err)
	}
}

func TestRankCounts(t *testing.T) {
	got := rankCounts(map[string]string{
		"All|All|Global_Sales":  "10",
		"PS2|All|Global_Sales":  "3",
		"Wii|Sports|NA_Sales":    "10",
		"broken":                              "x",
		"DS|Puzzle|JP_Sales":      "1",
	}, 3)
	want := []SelectionCount{
		{Key: "All|All|Global_Sales", Count: 10},
		{Key: "Wii|Sports|NA_Sales", Count: 10},
		{Key: "PS2|All|Global_Sales", Count: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rankCounts = %+v", got)
	}
}

func TestBloomPositionsStable(t *testing.T) {
	a := bloomPositions([]byte("203.0.113.7"), visitorBloomBits, visitorBloomHash)
	b := bloomPositions([]byte("203.0.113.7"), visitorBloomBits, visitorBloomHash)
	if !reflect.DeepEqual(a, b) || len(a) != visitorBloomHash {
		t.Fatalf("positions not deterministic: %v %v", a, b)
	}
	for _, p := range a {
		if p < 0 || p >= visitorBloomBits {
			t.Fatalf("position out of range: %d", p)
		}
	}
	if reflect.DeepEqual(a, bloomPositions([]byte("203.0.113.8"), visitorBloomBits, visitorBloomHash)) {
		t.Fatalf("different inputs should not collide on every position")
	}
}

func TestFirstVisitWithoutRedis(t *testing.T) {
	first, err := NewSelections(nil).FirstVisit(context.Background(), "203.0.113.7", time.Now())
	if err != nil || first {
		t.Fatalf("nil client must report not-first without error: %v %v", first, err)
	}
}
