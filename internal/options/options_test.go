package options

import (
	"testing"

	"vgsales-dash/internal/dataset"
)

func values(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDerive(t *testing.T) {
	recs := []dataset.Record{
		{Name: "a", Platform: "PS3", Genre: "Shooter"},
		{Name: "b", Platform: "PS2", Genre: "Action"},
		{Name: "c", Platform: "PCFX", Genre: "Adventure"},
		{Name: "d", Platform: "PS2", Genre: "Action"},
		{Name: "e", Platform: "3DS", Genre: "Role-Playing"},
	}
	o := Derive(recs)
	if got := values(o.Platforms); !equal(got, []string{"All", "3DS", "PS2", "PS3"}) {
		t.Fatalf("platforms: %v", got)
	}
	if o.Platforms[1].Label != "Nintendo 3DS" || o.Platforms[2].Label != "PlayStation 2" {
		t.Fatalf("platform labels not remapped: %+v", o.Platforms)
	}
	if got := values(o.Genres); !equal(got, []string{"All", "Action", "Adventure", "Role-Playing", "Shooter"}) {
		t.Fatalf("genres: %v", got)
	}
	if got := values(o.Regions); !equal(got, []string{"Global_Sales", "NA_Sales", "EU_Sales", "JP_Sales", "Other_Sales"}) {
		t.Fatalf("regions: %v", got)
	}
	if o.Has(AxisPlatform, "PCFX") {
		t.Fatalf("platform outside allow-list must be dropped")
	}
	if !o.Has(AxisGenre, "Adventure") {
		t.Fatalf("genres are not allow-listed; Adventure must stay")
	}
	if o.Label(AxisRegion, "NA_Sales") != "North America" {
		t.Fatalf("region label: %q", o.Label(AxisRegion, "NA_Sales"))
	}
}

func TestDeriveEmpty(t *testing.T) {
	o := Derive(nil)
	if !equal(values(o.Platforms), []string{"All"}) || !equal(values(o.Genres), []string{"All"}) {
		t.Fatalf("empty dataset should only yield All: %+v", o)
	}
	if len(o.Regions) != 5 {
		t.Fatalf("region list is fixed, got %d", len(o.Regions))
	}
}
