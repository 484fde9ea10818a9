package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

const fixture = `Depth,Code,Name
1,500,Fashion
2,50000,Women's Clothing
2,1234,Kitchen
3,500001234,Dresses
`

func TestNames(t *testing.T) {
	tx, err := Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cases := []struct {
		got, want string
	}{
		{tx.MidName("50000"), "Women's Clothing"},
		{tx.MidName("01234"), "Kitchen"},
		{tx.MidName("99999"), "unclassified_99999"},
		{tx.MidName(""), Uncategorized},
		{tx.SubName("500001234"), "Dresses"},
		{tx.SubName("500009999"), "Women's Clothing (sub-unclassified)"},
		{tx.SubName("77777"), "unclassified_77777"},
	}
	for i, c := range cases {
		if c.got != c.want {
			t.Fatalf("case %d: got %q, want %q", i, c.got, c.want)
		}
	}
}

func TestPaddedLookupPrefersFileOrder(t *testing.T) {
	src := "Depth,Code,Name\n2,234,First\n2,0234,Second\n2,234,First renamed\n"
	for i := 0; i < 20; i++ {
		tx, err := Parse(strings.NewReader(src))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if got := tx.MidName("00234"); got != "First renamed" {
			t.Fatalf("run %d: got %q, want %q", i, got, "First renamed")
		}
		if got := tx.MidName("0234"); got != "Second" {
			t.Fatalf("exact match should win: %q", got)
		}
	}
}

func TestEnrichNilTaxonomy(t *testing.T) {
	src := table.New(table.Col(prepare.CategoryCode, table.KindString))
	src.Append(table.Str("500001234.0"))
	out := Enrich(src, nil)
	if got := out.Value(0, ColMidName).String(); got != Uncategorized {
		t.Fatalf("mid name = %q", got)
	}
	if got := out.Value(0, ColSubCode).String(); got != "500001234" {
		t.Fatalf("sub code = %q", got)
	}
}

func TestEnrichWithTaxonomy(t *testing.T) {
	tx, err := Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src := table.New(table.Col(prepare.CategoryCode, table.KindString))
	src.Append(table.Str("500001234"))
	src.Append(table.Null(table.KindString))
	out := Enrich(src, tx)
	if got := out.Value(0, ColSubName).String(); got != "Dresses" {
		t.Fatalf("sub name = %q", got)
	}
	if got := out.Value(1, ColMidName).String(); got != Uncategorized {
		t.Fatalf("empty code mid name = %q", got)
	}
}

func TestLoaderMissingFileIsNil(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "none.csv"))
	tx, err := l.Get()
	if err != nil || tx != nil {
		t.Fatalf("missing file: tx=%v err=%v", tx, err)
	}
}

func TestLoaderLoadsOnce(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cat.csv")
	if err := os.WriteFile(p, []byte(fixture), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l := NewLoader(p)
	first, err := l.Get()
	if err != nil || first == nil {
		t.Fatalf("Get: %v", err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	second, err := l.Get()
	if err != nil || second != first {
		t.Fatalf("second Get should reuse the loaded taxonomy")
	}
}
