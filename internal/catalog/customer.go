package catalog

import (
	"sort"
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/aggregate"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/samber/lo"
)

var customerEntries = []Entry{
	{"A3_001", "Total customers", AreaCustomer, customerTotal},
	{"A3_002", "Repurchase rate", AreaCustomer, customerRepurchaseRate},
	{"A3_003", "Top customer revenue share", AreaCustomer, customerTopShare},
	{"A3_004", "Multi-product purchase rate", AreaCustomer, customerMultiProductRate},
	{"A3_005", "Average products per customer", AreaCustomer, customerAvgProducts},
	{"A3_006", "New customer rate", AreaCustomer, customerNewRate},
	{"A3_007", "Customer churn rate", AreaCustomer, customerChurnRate},
	{"A3_008", "Repeat customer revenue share", AreaCustomer, customerRepeatRevenueShare},
	{"A3_009", "Purchase count distribution", AreaCustomer, customerPurchaseDistribution},
	{"A3_010", "Average customer LTV", AreaCustomer, customerAvgLTV},
	{"A3_011", "Customer LTV ranking", AreaCustomer, customerLTVRanking},
}

const (
	topCustomers  = 10
	churnHorizon  = 90 * 24 * time.Hour
	ltvHorizonDay = 730.0
)

// profile summarizes one customer's order lines.
type profile struct {
	key      string
	lines    int
	revenue  float64
	products map[string]struct{}
	days     map[int64]struct{}
	first    time.Time
	last     time.Time
}

// profiles groups d by customer key in first-seen order.
func profiles(d *table.Table) []*profile {
	byKey := map[string]*profile{}
	var out []*profile
	for i := 0; i < d.Len(); i++ {
		r := d.Row(i)
		k := r.Get(prepare.CustomerKey).String()
		c, ok := byKey[k]
		if !ok {
			c = &profile{key: k, products: map[string]struct{}{}, days: map[int64]struct{}{}}
			byKey[k] = c
			out = append(out, c)
		}
		c.lines++
		c.revenue += r.Get(prepare.LineAmount).Float()
		if pv := r.Get(prepare.ProductName); !pv.IsNull() {
			c.products[pv.String()] = struct{}{}
		}
		if ts := r.Get(prepare.OrderTimestamp); !ts.IsNull() {
			at := ts.Time()
			if c.first.IsZero() || at.Before(c.first) {
				c.first = at
			}
			if at.After(c.last) {
				c.last = at
			}
			y, m, dd := at.Date()
			c.days[time.Date(y, m, dd, 0, 0, 0, 0, time.UTC).Unix()] = struct{}{}
		}
	}
	return out
}

func repeatCustomers(d *table.Table) map[string]bool {
	repeat := map[string]bool{}
	for _, c := range profiles(d) {
		if c.lines >= 2 {
			repeat[c.key] = true
		}
	}
	return repeat
}

// ltv projects a customer's value as average order value times the number
// of purchase intervals that fit in two years. Customers with a single
// purchase day are valued at their total spend.
func (c *profile) ltv() float64 {
	aov := aggregate.SafeDiv(c.revenue, float64(c.lines))
	if len(c.days) < 2 {
		return c.revenue
	}
	days := lo.Keys(c.days)
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	span := float64(days[len(days)-1]-days[0]) / 86400
	interval := span / float64(len(days)-1)
	if interval <= 0 {
		return c.revenue
	}
	return aov * (ltvHorizonDay / interval)
}

func customerTotal(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey); m != nil {
		return m
	}
	return kv(Customers, len(profiles(d)))
}

func customerRepurchaseRate(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey); m != nil {
		return m
	}
	ps := profiles(d)
	repeat := lo.CountBy(ps, func(c *profile) bool { return c.lines >= 2 })
	return kv(
		Customers, len(ps),
		"repeat_customers", repeat,
		"repurchase_rate_pct", aggregate.Pct(float64(repeat), float64(len(ps))),
	)
}

func customerTopShare(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey); m != nil {
		return m
	}
	g := aggregate.Contribution(d, []string{prepare.CustomerKey}, prepare.LineAmount, Revenue).Head(topCustomers)
	top := 0.0
	if g.Len() > 0 {
		top = g.Value(g.Len()-1, aggregate.CumSharePct).Float()
	}
	return g.WithScalar("top_share_pct", top)
}

func customerMultiProductRate(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey, prepare.ProductName); m != nil {
		return m
	}
	ps := profiles(d)
	multi := lo.CountBy(ps, func(c *profile) bool { return len(c.products) >= 2 })
	return kv(
		Customers, len(ps),
		"multi_product_customers", multi,
		"multi_product_rate_pct", aggregate.Pct(float64(multi), float64(len(ps))),
	)
}

func customerAvgProducts(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey, prepare.ProductName); m != nil {
		return m
	}
	counts := lo.Map(profiles(d), func(c *profile, _ int) float64 { return float64(len(c.products)) })
	return kv(
		Customers, len(counts),
		"avg_products_per_customer", aggregate.Round2(aggregate.Mean(counts)),
	)
}

// firstAndLast indexes every customer's first and last purchase over the
// whole canonical table.
func firstAndLast(t *table.Table) (map[string]*profile, time.Time) {
	idx := map[string]*profile{}
	var latest time.Time
	for _, c := range profiles(t) {
		idx[c.key] = c
		if c.last.After(latest) {
			latest = c.last
		}
	}
	return idx, latest
}

func customerNewRate(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey, prepare.OrderTimestamp); m != nil {
		return m
	}
	ps := profiles(d)
	var start time.Time
	if p.DateFrom != nil {
		start = *p.DateFrom
	} else {
		for _, c := range ps {
			if !c.first.IsZero() && (start.IsZero() || c.first.Before(start)) {
				start = c.first
			}
		}
	}
	history, _ := firstAndLast(t)
	fresh := lo.CountBy(ps, func(c *profile) bool {
		h := history[c.key]
		return h != nil && !h.first.IsZero() && !h.first.Before(start)
	})
	return kv(
		Customers, len(ps),
		"new_customers", fresh,
		"new_customer_rate_pct", aggregate.Pct(float64(fresh), float64(len(ps))),
	)
}

func customerChurnRate(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey, prepare.OrderTimestamp); m != nil {
		return m
	}
	ps := profiles(d)
	history, latest := firstAndLast(t)
	cutoff := latest.Add(-churnHorizon)
	churned := lo.CountBy(ps, func(c *profile) bool {
		h := history[c.key]
		return h != nil && !h.last.IsZero() && h.last.Before(cutoff)
	})
	return kv(
		Customers, len(ps),
		"churned_customers", churned,
		"churn_rate_pct", aggregate.Pct(float64(churned), float64(len(ps))),
	)
}

func customerRepeatRevenueShare(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey); m != nil {
		return m
	}
	var repeat, once float64
	var nRepeat, nOnce int
	for _, c := range profiles(d) {
		if c.lines >= 2 {
			repeat += c.revenue
			nRepeat++
		} else {
			once += c.revenue
			nOnce++
		}
	}
	out := table.New(
		table.Col("segment", table.KindString),
		table.Col(Customers, table.KindInt),
		table.Col(Revenue, table.KindNumber),
	)
	out.Append(table.Str("repeat"), table.Int(int64(nRepeat)), table.Num(repeat))
	out.Append(table.Str("one_time"), table.Int(int64(nOnce)), table.Num(once))
	return aggregate.ShareOf(out, Revenue)
}

var purchaseBuckets = []string{"1", "2", "3", "4", "5+"}

func bucketOf(lines int) string {
	if lines >= 5 {
		return "5+"
	}
	return purchaseBuckets[lines-1]
}

func customerPurchaseDistribution(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey); m != nil {
		return m
	}
	counts := lo.CountValuesBy(profiles(d), func(c *profile) string { return bucketOf(c.lines) })
	out := table.New(table.Col(PurchaseBucket, table.KindString), table.Col(Customers, table.KindInt))
	for _, b := range purchaseBuckets {
		out.Append(table.Str(b), table.Int(int64(counts[b])))
	}
	return aggregate.ShareOf(out, Customers)
}

func customerAvgLTV(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey); m != nil {
		return m
	}
	ps := profiles(d)
	ltvs := lo.Map(ps, func(c *profile, _ int) float64 { return c.ltv() })
	return kv(
		Customers, len(ps),
		"avg_ltv", aggregate.Round2(aggregate.Mean(ltvs)),
		"avg_order_value", aggregate.Round2(aggregate.SafeDiv(d.Sum(prepare.LineAmount), float64(d.Len()))),
	)
}

func customerLTVRanking(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey); m != nil {
		return m
	}
	out := table.New(
		table.Col(prepare.CustomerKey, table.KindString),
		table.Col(Revenue, table.KindNumber),
		table.Col(Orders, table.KindInt),
		table.Col(LTV, table.KindNumber),
	)
	for _, c := range profiles(d) {
		out.Append(table.Str(c.key), table.Num(c.revenue), table.Int(int64(c.lines)), table.Num(aggregate.Round2(c.ltv())))
	}
	return aggregate.RankBy(out, LTV, p.TopNOr(50))
}
