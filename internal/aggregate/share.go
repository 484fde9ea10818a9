package aggregate

import (
	"regexp"

	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

// Result column names shared by the share and rate primitives.
const (
	SharePct    = "share_pct"
	CumSharePct = "cum_share_pct"
	TotalCount  = "total_count"
	IssueCount  = "issue_count"
	RatePct     = "rate_pct"
)

// MarketShare sums valueCol per group into outName and adds share_pct,
// sorted by share descending.
func MarketShare(t *table.Table, keys []string, valueCol, outName string) *table.Table {
	g := SafeGroupSum(t, keys, valueCol, outName)
	total := g.Sum(outName)
	g = g.WithColumn(SharePct, table.KindNumber, func(r table.Record) table.Value {
		return table.Num(Pct(r.Get(outName).Float(), total))
	})
	return g.SortBy(table.Desc(SharePct))
}

// ShareOf adds share_pct = valueCol over the table total. Used on tables
// that are already aggregated.
func ShareOf(t *table.Table, valueCol string) *table.Table {
	total := t.Sum(valueCol)
	return t.WithColumn(SharePct, table.KindNumber, func(r table.Record) table.Value {
		return table.Num(Pct(r.Get(valueCol).Float(), total))
	})
}

// ShareWithin adds outCol = valueCol as a percentage of its partition total.
func ShareWithin(t *table.Table, partitionBy []string, valueCol, outCol string) *table.Table {
	parts := t.Present(partitionBy...)
	key := func(r table.Record) string {
		kv := make([]table.Value, len(parts))
		for i, p := range parts {
			kv[i] = r.Get(p)
		}
		return table.GroupKey(kv)
	}
	totals := map[string]float64{}
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		totals[key(r)] += r.Get(valueCol).Float()
	}
	return t.WithColumn(outCol, table.KindNumber, func(r table.Record) table.Value {
		return table.Num(Pct(r.Get(valueCol).Float(), totals[key(r)]))
	})
}

// Contribution sums valueCol per group, sorts descending and adds share_pct
// and a running cum_share_pct. The running total accumulates unrounded
// shares so the last row reaches 100.
func Contribution(t *table.Table, keys []string, valueCol, outName string) *table.Table {
	g := SafeGroupSum(t, keys, valueCol, outName).SortBy(table.Desc(outName))
	total := g.Sum(outName)
	cum := make([]float64, g.Len())
	var run float64
	for i := 0; i < g.Len(); i++ {
		run += SafeDiv(g.Value(i, outName).Float(), total) * 100
		cum[i] = run
	}
	g = g.WithColumn(SharePct, table.KindNumber, func(r table.Record) table.Value {
		return table.Num(Pct(r.Get(outName).Float(), total))
	})
	return g.WithColumn(CumSharePct, table.KindNumber, func(r table.Record) table.Value {
		return table.Num(Round2(cum[r.Index()]))
	})
}

// Matches reports whether order_status or claim_note matches re. Nulls
// never match.
func Matches(r table.Record, re *regexp.Regexp) bool {
	for _, col := range []string{prepare.OrderStatus, prepare.ClaimNote} {
		v := r.Get(col)
		if !v.IsNull() && re.MatchString(v.String()) {
			return true
		}
	}
	return false
}

// IssueRate counts rows per group and the rows whose status or claim note
// matches re. rate_pct is 0 for empty groups.
func IssueRate(t *table.Table, keys []string, re *regexp.Regexp) *table.Table {
	g := GroupBy(t, keys,
		Count(TotalCount),
		Agg{Name: IssueCount, Kind: table.KindInt, Fn: func(rows []table.Record) table.Value {
			n := 0
			for _, r := range rows {
				if Matches(r, re) {
					n++
				}
			}
			return table.Int(int64(n))
		}},
	)
	return g.WithColumn(RatePct, table.KindNumber, func(r table.Record) table.Value {
		return table.Num(Pct(r.Get(IssueCount).Float(), r.Get(TotalCount).Float()))
	})
}
