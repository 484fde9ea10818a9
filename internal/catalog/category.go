package catalog

import (
	"fmt"

	"github.com/KaramelBytes/metricdeck-cli/internal/aggregate"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/KaramelBytes/metricdeck-cli/internal/taxonomy"
)

const topCategories = 5

var categoryEntries = append(append(
	categoryLevel(1, "mid-category", prepare.CategoryMidCode),
	categoryLevel(12, "category", prepare.CategoryCode)...),
	Entry{"A5_023", "Mid-category name revenue", AreaCategory, categoryNameRevenue(taxonomy.ColMidName)},
	Entry{"A5_024", "Sub-category name revenue", AreaCategory, categoryNameRevenue(taxonomy.ColSubName)},
)

// categoryLevel declares the eleven per-level category metrics starting at
// id A5_<first>, all grouped by key.
func categoryLevel(first int, label, key string) []Entry {
	specs := []struct {
		name string
		fn   Func
	}{
		{"%s revenue", func(t *table.Table, p filter.Params) *table.Table {
			return revenueBy(filter.Apply(t, p), key).SortBy(table.Desc(Revenue))
		}},
		{"%s seller revenue rank", func(t *table.Table, p filter.Params) *table.Table {
			return rankRevenue(filter.Apply(t, p), p.TopNOr(30), key, prepare.Seller)
		}},
		{"%s product revenue rank", func(t *table.Table, p filter.Params) *table.Table {
			return rankRevenue(filter.Apply(t, p), p.TopNOr(50), key, prepare.ProductName)
		}},
		{"Seller share within %s", func(t *table.Table, p filter.Params) *table.Table {
			return shareWithin(filter.Apply(t, p), key, prepare.Seller)
		}},
		{"%s order count", func(t *table.Table, p filter.Params) *table.Table {
			return ordersBy(filter.Apply(t, p), key).SortBy(table.Desc(Orders))
		}},
		{"%s average order value", func(t *table.Table, p filter.Params) *table.Table {
			return aovBy(filter.Apply(t, p), key)
		}},
		{"%s revenue rank", func(t *table.Table, p filter.Params) *table.Table {
			return rankRevenue(filter.Apply(t, p), p.TopN, key)
		}},
		{"%s market share", func(t *table.Table, p filter.Params) *table.Table {
			return aggregate.MarketShare(filter.Apply(t, p), []string{key}, prepare.LineAmount, Revenue)
		}},
		{"%s share trend", func(t *table.Table, p filter.Params) *table.Table {
			return dailyShare(filter.Apply(t, p), key)
		}},
		{"Top 5 %s", func(t *table.Table, p filter.Params) *table.Table {
			return topRevenue(filter.Apply(t, p), key, topCategories)
		}},
		{"Top 5 %s growth", func(t *table.Table, p filter.Params) *table.Table {
			return topGrowth(t, p, key, topCategories)
		}},
	}
	out := make([]Entry, len(specs))
	for i, s := range specs {
		out[i] = Entry{
			ID:   fmt.Sprintf("A5_%03d", first+i),
			Name: capitalize(fmt.Sprintf(s.name, label)),
			Area: AreaCategory,
			Func: s.fn,
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func topRevenue(d *table.Table, key string, n int) *table.Table {
	return revenueBy(d, key).SortBy(table.Desc(Revenue)).Head(n)
}

// topGrowth restricts both periods to the current top n groups by revenue.
func topGrowth(t *table.Table, p filter.Params, key string, n int) *table.Table {
	cur := filter.Apply(t, p)
	top := topRevenue(cur, key, n)
	keyCol := aggregate.KeyColumns(cur, []string{key})[0]
	keep := map[string]bool{}
	for _, v := range top.Values(keyCol) {
		keep[table.GroupKey([]table.Value{v})] = true
	}
	in := func(r table.Record) bool {
		if keyCol == aggregate.AllColumn {
			return true
		}
		return keep[table.GroupKey([]table.Value{r.Get(keyCol)})]
	}
	prev := previous(t, p, cur)
	return aggregate.ChangeAnalysis(cur.Filter(in), prev.Filter(in), []string{key}, prepare.LineAmount)
}

// categoryNameRevenue groups revenue by a taxonomy name column added during
// dataset enrichment.
func categoryNameRevenue(col string) Func {
	return func(t *table.Table, p filter.Params) *table.Table {
		d := filter.Apply(t, p)
		if m := need(d, col); m != nil {
			return m
		}
		g := aggregate.GroupBy(d, []string{col},
			aggregate.Sum(prepare.LineAmount, Revenue),
			aggregate.Count(Orders),
		)
		return aggregate.ShareOf(g, Revenue).SortBy(table.Desc(Revenue))
	}
}
