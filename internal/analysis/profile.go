// Package analysis profiles a prepared dataset: per-column kinds, coverage
// and value statistics, rendered as a compact Markdown report.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/metricdeck-cli/internal/aggregate"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

// Report is a markdown-friendly profile of a canonical table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
}

// ColumnSummary captures the kind and statistics of one column.
type ColumnSummary struct {
	Name    string
	Kind    table.Kind
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Temporal range, rendered as strings
	First string
	Last  string
	// Categorical top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

const topValues = 5

// required are the canonical columns most metrics depend on.
var required = []string{
	prepare.OrderTimestamp, prepare.LineAmount, prepare.Channel,
	prepare.Seller, prepare.CategoryCode, prepare.OrderStatus,
}

// Profile summarizes every column of t and keeps up to sampleRows rows.
func Profile(t *table.Table, name string, sampleRows int) *Report {
	r := &Report{Name: name, Rows: t.Len()}
	for _, c := range t.Columns() {
		r.Cols = append(r.Cols, summarize(t, c))
	}
	head := t.Head(sampleRows)
	if sampleRows > 0 {
		for i := 0; i < head.Len(); i++ {
			row := make([]string, 0, len(r.Cols))
			for _, c := range t.Columns() {
				row = append(row, head.Value(i, c).String())
			}
			r.Samples = append(r.Samples, row)
		}
	}
	for _, c := range required {
		if !t.Has(c) {
			r.Warnings = append(r.Warnings, fmt.Sprintf("missing canonical column %s; metrics using it return a placeholder", c))
		}
	}
	if t.Has(prepare.OrderTimestamp) {
		for _, cs := range r.Cols {
			if cs.Name == prepare.OrderTimestamp && cs.Missing > 0 {
				r.Warnings = append(r.Warnings, fmt.Sprintf("%d rows have an unparseable order timestamp", cs.Missing))
			}
		}
	}
	return r
}

func summarize(t *table.Table, col string) ColumnSummary {
	cs := ColumnSummary{Name: col, Kind: t.Kind(col)}
	counts := map[string]int{}
	var nums []float64
	var first, last table.Value
	for _, v := range t.Values(col) {
		if v.IsNull() {
			cs.Missing++
			continue
		}
		cs.NonNull++
		counts[v.String()]++
		switch v.Kind() {
		case table.KindNumber, table.KindInt:
			nums = append(nums, v.Float())
		case table.KindTime, table.KindDate:
			if first.IsNull() || table.Compare(v, first) < 0 {
				first = v
			}
			if last.IsNull() || table.Compare(v, last) > 0 {
				last = v
			}
		}
	}
	cs.Unique = len(counts)
	if len(nums) > 0 {
		cs.Min, cs.Max = math.Inf(1), math.Inf(-1)
		for _, x := range nums {
			cs.Min = math.Min(cs.Min, x)
			cs.Max = math.Max(cs.Max, x)
		}
		cs.Mean = aggregate.Mean(nums)
		cs.Std = aggregate.StdDev(nums)
	}
	cs.First, cs.Last = first.String(), last.String()
	if cs.Kind == table.KindString {
		for v, n := range counts {
			cs.TopValues = append(cs.TopValues, CategoryCount{Value: v, Count: n})
		}
		sort.Slice(cs.TopValues, func(i, j int) bool {
			a, b := cs.TopValues[i], cs.TopValues[j]
			if a.Count == b.Count {
				return a.Value < b.Value
			}
			return a.Count > b.Count
		})
		if len(cs.TopValues) > topValues {
			cs.TopValues = cs.TopValues[:topValues]
		}
	}
	return cs
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		missPct := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case table.KindNumber, table.KindInt:
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			}
		case table.KindTime, table.KindDate:
			if c.First != "" {
				b.WriteString(fmt.Sprintf("; %s to %s", c.First, c.Last))
			}
		case table.KindString:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(r.Cols))
		seps := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = safeName(c.Name)
			seps[i] = "---"
		}
		b.WriteString("| " + strings.Join(names, " | ") + " |\n")
		b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
		for _, row := range r.Samples {
			vals := make([]string, len(row))
			for i, val := range row {
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				vals[i] = safeVal(val)
			}
			b.WriteString("| " + strings.Join(vals, " | ") + " |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
