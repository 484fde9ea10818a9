// Package catalog implements the metric functions. Each metric is a pure
// function of the canonical table and the shared filter parameters and
// returns a fresh result table.
package catalog

import (
	"regexp"

	"github.com/KaramelBytes/metricdeck-cli/internal/aggregate"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

// Func computes one metric.
type Func func(canonical *table.Table, p filter.Params) *table.Table

// Area groups metrics by business domain.
type Area string

const (
	AreaChannel  Area = "channel"
	AreaProduct  Area = "product"
	AreaCustomer Area = "customer"
	AreaSeller   Area = "seller"
	AreaCategory Area = "category"
	AreaTrend    Area = "trend"
)

// Areas lists the areas in declaration order.
var Areas = []Area{AreaChannel, AreaProduct, AreaCustomer, AreaSeller, AreaCategory, AreaTrend}

// Entry declares one metric.
type Entry struct {
	ID   string
	Name string
	Area Area
	Func Func
}

// Entries returns every metric in declaration order.
func Entries() []Entry {
	var out []Entry
	for _, group := range [][]Entry{
		channelEntries, productEntries, customerEntries,
		sellerEntries, categoryEntries, trendEntries,
	} {
		out = append(out, group...)
	}
	return out
}

// Result column names.
const (
	Revenue        = "total_revenue"
	Orders         = "order_count"
	AvgOrderValue  = "avg_order_value"
	Settlement     = "total_settlement"
	TotalQuantity  = "total_quantity"
	MarginPct      = "margin_pct"
	Customers      = "customer_count"
	Value          = "value"
	Metric         = "metric"
	Week           = "week"
	PriceBand      = "price_band"
	PurchaseBucket = "purchase_count"
	LTV            = "ltv"
	Score          = "score"
	PatternScalar  = "pattern_strength"
)

// Issue patterns over order_status and claim_note.
var (
	cancelRE   = regexp.MustCompile(`cancel|취소`)
	returnRE   = regexp.MustCompile(`return|반품`)
	exchangeRE = regexp.MustCompile(`exchange|교환`)
	claimRE    = regexp.MustCompile(`cancel|return|exchange|claim|취소|반품|교환|클레임`)
)

// need returns a placeholder when any column is absent, nil otherwise.
func need(t *table.Table, cols ...string) *table.Table {
	for _, c := range cols {
		if !t.Has(c) {
			return table.Message("missing column: " + c)
		}
	}
	return nil
}

func revenueBy(d *table.Table, keys ...string) *table.Table {
	return aggregate.SafeGroupSum(d, keys, prepare.LineAmount, Revenue)
}

func ordersBy(d *table.Table, keys ...string) *table.Table {
	return aggregate.SafeGroupCount(d, keys, Orders)
}

// rankRevenue ranks revenue per group and keeps the top n.
func rankRevenue(d *table.Table, n int, keys ...string) *table.Table {
	return aggregate.RankBy(revenueBy(d, keys...), Revenue, n)
}

func rankOrders(d *table.Table, n int, keys ...string) *table.Table {
	return aggregate.RankBy(ordersBy(d, keys...), Orders, n)
}

// rankWithin dense-ranks inner groups by revenue inside each outer group and
// keeps the n highest-revenue rows (all when n <= 0).
func rankWithin(d *table.Table, n int, outer, inner string) *table.Table {
	g := revenueBy(d, outer, inner)
	g = aggregate.DenseRankWithin(g, aggregate.KeyColumns(d, []string{outer}), Revenue, false, aggregate.Rank)
	return g.SortBy(table.Desc(Revenue)).Head(n)
}

// shareWithin is each inner group's revenue share inside its outer group.
func shareWithin(d *table.Table, outer, inner string) *table.Table {
	g := revenueBy(d, outer, inner)
	outerCols := aggregate.KeyColumns(d, []string{outer})
	g = aggregate.ShareWithin(g, outerCols, Revenue, aggregate.SharePct)
	keys := make([]table.SortKey, 0, len(outerCols)+1)
	for _, c := range outerCols {
		keys = append(keys, table.Asc(c))
	}
	return g.SortBy(append(keys, table.Desc(aggregate.SharePct))...)
}

// dailyShare is each key's share of the day's revenue.
func dailyShare(d *table.Table, key string) *table.Table {
	if m := need(d, prepare.OrderDate); m != nil {
		return m
	}
	g := revenueBy(d, prepare.OrderDate, key)
	g = aggregate.ShareWithin(g, []string{prepare.OrderDate}, Revenue, aggregate.SharePct)
	return g.SortBy(table.Asc(prepare.OrderDate), table.Desc(aggregate.SharePct))
}

// aovBy reports revenue, order count and revenue per order line.
func aovBy(d *table.Table, keys ...string) *table.Table {
	g := aggregate.GroupBy(d, keys,
		aggregate.Sum(prepare.LineAmount, Revenue),
		aggregate.Count(Orders),
	)
	g = g.WithColumn(AvgOrderValue, table.KindNumber, func(r table.Record) table.Value {
		return table.Num(aggregate.Round2(aggregate.SafeDiv(r.Get(Revenue).Float(), r.Get(Orders).Float())))
	})
	return g.SortBy(table.Desc(AvgOrderValue))
}

// previous returns the comparison set for growth metrics: the equal-length
// window before p, or the current set when p has no full window.
func previous(t *table.Table, p filter.Params, cur *table.Table) *table.Table {
	pp, ok := filter.PreviousWindow(p)
	if !ok {
		return cur
	}
	return filter.Apply(t, pp)
}

func revenueGrowth(t *table.Table, p filter.Params, keys ...string) *table.Table {
	cur := filter.Apply(t, p)
	return aggregate.ChangeAnalysis(cur, previous(t, p, cur), keys, prepare.LineAmount)
}

func orderGrowth(t *table.Table, p filter.Params, keys ...string) *table.Table {
	cur := filter.Apply(t, p)
	return aggregate.ChangeAnalysisCount(cur, previous(t, p, cur), keys)
}

// issueRate applies every filter except cancellation exclusion; canceled
// rows always count toward issue rates.
func issueRate(t *table.Table, p filter.Params, re *regexp.Regexp, keys ...string) *table.Table {
	d := filter.ApplyKeepCanceled(t, p)
	return aggregate.IssueRate(d, keys, re).SortBy(table.Desc(aggregate.RatePct))
}

// kv builds a two-column metric/value table for single-figure metrics.
func kv(pairs ...any) *table.Table {
	out := table.New(table.Col(Metric, table.KindString), table.Col(Value, table.KindNumber))
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		var v float64
		switch x := pairs[i+1].(type) {
		case float64:
			v = x
		case int:
			v = float64(x)
		}
		out.Append(table.Str(name), table.Num(v))
	}
	return out
}
