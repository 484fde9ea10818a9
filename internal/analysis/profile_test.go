package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

func lines() *table.Table {
	t := table.New(
		table.Col(prepare.OrderTimestamp, table.KindTime),
		table.Col(prepare.Channel, table.KindString),
		table.Col(prepare.LineAmount, table.KindNumber),
	)
	ts := func(d int) table.Value { return table.Time(time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC)) }
	t.Append(ts(1), table.Str("A"), table.Num(100))
	t.Append(ts(3), table.Str("A"), table.Num(300))
	t.Append(table.Null(table.KindTime), table.Str("B|x"), table.Null(table.KindNumber))
	return t
}

func TestProfileColumns(t *testing.T) {
	r := Profile(lines(), "orders.csv", 2)
	if r.Rows != 3 || len(r.Cols) != 3 || len(r.Samples) != 2 {
		t.Fatalf("report = %+v", r)
	}
	amount := r.Cols[2]
	if amount.NonNull != 2 || amount.Missing != 1 || amount.Min != 100 || amount.Max != 300 || amount.Mean != 200 || amount.Std != 100 {
		t.Fatalf("amount = %+v", amount)
	}
	ch := r.Cols[1]
	if ch.Unique != 2 || ch.TopValues[0].Value != "A" || ch.TopValues[0].Count != 2 {
		t.Fatalf("channel = %+v", ch)
	}
	if ts := r.Cols[0]; ts.First != "2024-03-01 09:00:00" || ts.Last != "2024-03-03 09:00:00" {
		t.Fatalf("timestamp range = %q..%q", ts.First, ts.Last)
	}
}

func TestProfileWarnings(t *testing.T) {
	r := Profile(lines(), "", 0)
	joined := strings.Join(r.Warnings, "\n")
	for _, want := range []string{prepare.Seller, prepare.CategoryCode, "1 rows have an unparseable order timestamp"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("warnings missing %q: %v", want, r.Warnings)
		}
	}
	if strings.Contains(joined, "missing canonical column "+prepare.Channel) {
		t.Fatalf("present column reported missing")
	}
}

func TestMarkdown(t *testing.T) {
	md := Profile(lines(), "orders.csv", 5).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: orders.csv",
		"Rows: 3",
		"- line_amount: number (non-null 2, missing 33.3%); min 100, max 300, mean 200, std 100",
		"- channel: string (non-null 3, missing 0.0%); top: A(2), B/x(1)",
		"[HEAD AND SAMPLE ROWS]",
		"[NOTES]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
