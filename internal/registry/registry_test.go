package registry

import (
	"testing"

	"github.com/KaramelBytes/metricdeck-cli/internal/catalog"
)

func TestDefaultListsEveryArea(t *testing.T) {
	r := Default()
	if r.Len() != len(catalog.Entries()) {
		t.Fatalf("len = %d", r.Len())
	}
	total := 0
	for _, a := range r.Areas() {
		n := len(r.List(string(a), ""))
		if n == 0 {
			t.Fatalf("area %s is empty", a)
		}
		total += n
	}
	if total != r.Len() {
		t.Fatalf("areas cover %d of %d metrics", total, r.Len())
	}
}

func TestListFilters(t *testing.T) {
	r := Default()
	if got := r.List("nope", ""); len(got) != 0 {
		t.Fatalf("unknown area should be empty, got %d", len(got))
	}
	got := r.List("", "weekly")
	if len(got) == 0 {
		t.Fatalf("query should match names case-insensitively")
	}
	for _, d := range got {
		if d.Area != catalog.AreaTrend {
			t.Fatalf("unexpected match %s %q", d.ID, d.Name)
		}
	}
	ch := r.List("CHANNEL", "a1_00")
	if len(ch) != 9 || ch[0].ID != "A1_001" || ch[8].ID != "A1_009" {
		t.Fatalf("channel query = %d entries", len(ch))
	}
}

func TestLookup(t *testing.T) {
	r := Default()
	d, ok := r.Lookup("a6_009")
	if !ok || d.ID != "A6_009" || d.Func == nil {
		t.Fatalf("lookup = %+v, %v", d, ok)
	}
	if _, ok := r.Lookup("A9_999"); ok {
		t.Fatalf("unknown id should not resolve")
	}
}

func TestNewKeepsFirstDuplicate(t *testing.T) {
	r := New([]catalog.Entry{
		{ID: "X_1", Name: "first"},
		{ID: "X_1", Name: "second"},
	})
	if d, _ := r.Lookup("x_1"); r.Len() != 1 || d.Name != "first" {
		t.Fatalf("duplicate handling: len=%d name=%q", r.Len(), d.Name)
	}
}
