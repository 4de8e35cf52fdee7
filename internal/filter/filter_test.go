package filter

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/options"
)

var sample = []dataset.Record{
	{Name: "A", Platform: "PS2", Genre: "Action", Year: 2005, GlobalSales: 1},
	{Name: "B", Platform: "PS3", Genre: "Action", Year: 2008, GlobalSales: 2},
	{Name: "C", Platform: "PS2", Genre: "Sports", Year: 2003, GlobalSales: 3},
	{Name: "D", Platform: "PS3", Genre: "Sports", Year: 2010, GlobalSales: 4},
	{Name: "E", Platform: "PS2", Genre: "Action", Year: 2001, GlobalSales: 5},
}

func names(rs []dataset.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestApplyIdentityWhenAll(t *testing.T) {
	for _, region := range []dataset.RegionKey{dataset.GlobalSales, dataset.NASales, dataset.EUSales, dataset.JPSales, dataset.OtherSales} {
		got := Apply(sample, Selection{Platform: "All", Genre: "All", Region: region})
		if !reflect.DeepEqual(got, sample) {
			t.Fatalf("region %s: expected identity, got %v", region, names(got))
		}
	}
}

func TestApplyPlatformOnly(t *testing.T) {
	for _, genre := range []string{"All", "Action"} {
		for _, region := range []dataset.RegionKey{dataset.GlobalSales, dataset.JPSales} {
			got := Apply(sample, Selection{Platform: "PS2", Genre: genre, Region: region})
			for _, r := range got {
				if r.Platform != "PS2" {
					t.Fatalf("non-PS2 row returned: %+v", r)
				}
			}
		}
	}
	got := names(Apply(sample, Selection{Platform: "PS2", Genre: "All", Region: dataset.GlobalSales}))
	if !reflect.DeepEqual(got, []string{"A", "C", "E"}) {
		t.Fatalf("expected original order A C E, got %v", got)
	}
}

func TestApplyBothFilters(t *testing.T) {
	got := names(Apply(sample, Selection{Platform: "PS2", Genre: "Action", Region: dataset.GlobalSales}))
	if !reflect.DeepEqual(got, []string{"A", "E"}) {
		t.Fatalf("got %v", got)
	}
	if got := Apply(sample, Selection{Platform: "X360", Genre: "All"}); len(got) != 0 {
		t.Fatalf("expected empty subset, got %v", names(got))
	}
}

func TestApplyOrderIndependent(t *testing.T) {
	byPlatform := Apply(sample, Selection{Platform: "PS3", Genre: "All"})
	thenGenre := Apply(byPlatform, Selection{Platform: "All", Genre: "Sports"})
	byGenre := Apply(sample, Selection{Platform: "All", Genre: "Sports"})
	thenPlatform := Apply(byGenre, Selection{Platform: "PS3", Genre: "All"})
	if !reflect.DeepEqual(thenGenre, thenPlatform) {
		t.Fatalf("filter order changed result: %v vs %v", names(thenGenre), names(thenPlatform))
	}
}

func TestParse(t *testing.T) {
	opts := options.Derive(sample)
	sel, err := Parse(url.Values{}, opts)
	if err != nil || sel != Default() {
		t.Fatalf("empty query should give defaults: %+v %v", sel, err)
	}
	sel, err = Parse(url.Values{"platform": {"PS3"}, "genre": {"Sports"}, "region": {"EU_Sales"}}, opts)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if sel.Platform != "PS3" || sel.Genre != "Sports" || sel.Region != dataset.EUSales {
		t.Fatalf("unexpected selection: %+v", sel)
	}
	for _, q := range []url.Values{
		{"platform": {"N64"}},
		{"genre": {"Racing"}},
		{"region": {"Mars_Sales"}},
	} {
		if _, err := Parse(q, opts); !errors.Is(err, ErrUnknownOption) {
			t.Fatalf("query %v: expected ErrUnknownOption, got %v", q, err)
		}
	}
}

func TestSelectionKey(t *testing.T) {
	if k := Default().Key(); k != "All|All|Global_Sales" {
		t.Fatalf("key: %q", k)
	}
}
