package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/metricdeck-cli/internal/catalog"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

func result() *table.Table {
	t := table.New(table.Col("channel", table.KindString), table.Col(catalog.Revenue, table.KindNumber))
	t.Append(table.Str("A|1"), table.Num(100))
	t.Append(table.Null(table.KindString), table.Num(50.5))
	return t.WithScalar(catalog.PatternScalar, 12.5)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, result()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "\ufeffchannel,total_revenue\nA|1,100\n,50.5\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
}

func TestWriteCSVFileAtomic(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "r.csv")
	if err := WriteCSVFile(p, result()); err != nil {
		t.Fatalf("WriteCSVFile: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(b), "\ufeffchannel") {
		t.Fatalf("content = %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(result(), "Channel revenue")
	for _, want := range []string{
		"## Channel revenue",
		"Rows: 2",
		"Total revenue: 150.5",
		"pattern_strength: 12.5",
		"| channel | total_revenue |",
		"| A/1 | 100 |",
		"|  | 50.5 |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(table.Message("missing column: x"))
	if s.Rows != 1 || s.TotalRevenue != nil || len(s.Scalars) != 0 {
		t.Fatalf("summary = %+v", s)
	}
	s = Summarize(result())
	if s.TotalRevenue == nil || *s.TotalRevenue != 150.5 {
		t.Fatalf("revenue total missing")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, result()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[0], "channel") || !strings.Contains(lines[1], "100") {
		t.Fatalf("text = %q", buf.String())
	}
}
