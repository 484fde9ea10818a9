package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/metricdeck-cli/internal/catalog"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

// Summary is the headline of a result table.
type Summary struct {
	Rows         int            `json:"rows"`
	TotalRevenue *float64       `json:"total_revenue,omitempty"`
	Scalars      []table.Scalar `json:"scalars,omitempty"`
}

// Summarize reports the row count, the revenue total when the result has a
// revenue column, and any scalars the metric attached.
func Summarize(t *table.Table) Summary {
	s := Summary{Rows: t.Len(), Scalars: t.Scalars()}
	if t.Has(catalog.Revenue) {
		total := t.Sum(catalog.Revenue)
		s.TotalRevenue = &total
	}
	return s
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Markdown renders t as a pipe table preceded by its summary.
func Markdown(t *table.Table, title string) string {
	var b strings.Builder
	if title = strings.TrimSpace(title); title != "" {
		fmt.Fprintf(&b, "## %s\n\n", safeVal(title))
	}
	s := Summarize(t)
	fmt.Fprintf(&b, "Rows: %d\n", s.Rows)
	if s.TotalRevenue != nil {
		fmt.Fprintf(&b, "Total revenue: %s\n", formatFloat(*s.TotalRevenue))
	}
	for _, sc := range s.Scalars {
		fmt.Fprintf(&b, "%s: %s\n", safeName(sc.Name), formatFloat(sc.Value))
	}
	b.WriteString("\n")

	cols := t.Columns()
	if len(cols) == 0 {
		return b.String()
	}
	head := make([]string, len(cols))
	sep := make([]string, len(cols))
	for i, c := range cols {
		head[i] = safeVal(safeName(c))
		sep[i] = "---"
	}
	fmt.Fprintf(&b, "| %s |\n| %s |\n", strings.Join(head, " | "), strings.Join(sep, " | "))
	row := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			row[j] = safeVal(t.Value(i, c).String())
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(row, " | "))
	}
	return b.String()
}

// WriteText writes t as aligned columns for terminals.
func WriteText(w io.Writer, t *table.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cols := t.Columns()
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	row := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			row[j] = t.Value(i, c).String()
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	for _, sc := range t.Scalars() {
		fmt.Fprintf(tw, "\n%s:\t%s", sc.Name, formatFloat(sc.Value))
	}
	if len(t.Scalars()) > 0 {
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
