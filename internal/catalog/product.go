package catalog

import (
	"github.com/KaramelBytes/metricdeck-cli/internal/aggregate"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

var productEntries = []Entry{
	{"A2_001", "Product revenue rank", AreaProduct, productRevenueRank},
	{"A2_002", "Product order rank", AreaProduct, productOrderRank},
	{"A2_003", "Hit product contribution", AreaProduct, productContribution},
	{"A2_004", "Product cancellation rate", AreaProduct, productCancelRate},
	{"A2_005", "Product return rate", AreaProduct, productReturnRate},
	{"A2_006", "Product revenue growth", AreaProduct, productRevenueGrowth},
	{"A2_007", "Product revenue rank (extended)", AreaProduct, productRevenueRankWide},
	{"A2_008", "Price band revenue distribution", AreaProduct, productPriceBands},
	{"A2_009", "Product claim rate", AreaProduct, productClaimRate},
	{"A2_010", "Repeat customer product contribution", AreaProduct, productRepeatContribution},
}

const hitProducts = 20

func productRevenueRank(t *table.Table, p filter.Params) *table.Table {
	return rankRevenue(filter.Apply(t, p), p.TopNOr(30), prepare.ProductName)
}

func productOrderRank(t *table.Table, p filter.Params) *table.Table {
	return rankOrders(filter.Apply(t, p), p.TopNOr(30), prepare.ProductName)
}

func productContribution(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	return aggregate.Contribution(d, []string{prepare.ProductName}, prepare.LineAmount, Revenue).Head(hitProducts)
}

func productCancelRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, cancelRE, prepare.ProductName)
}

func productReturnRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, returnRE, prepare.ProductName)
}

func productRevenueGrowth(t *table.Table, p filter.Params) *table.Table {
	return revenueGrowth(t, p, prepare.ProductName)
}

func productRevenueRankWide(t *table.Table, p filter.Params) *table.Table {
	return rankRevenue(filter.Apply(t, p), p.TopNOr(50), prepare.ProductName)
}

var priceBands = []struct {
	label string
	upper float64
}{
	{"<10k", 10000},
	{"10k-30k", 30000},
	{"30k-50k", 50000},
	{"50k-100k", 100000},
	{"100k+", 0},
}

func bandOf(price float64) string {
	for _, b := range priceBands {
		if b.upper == 0 || price < b.upper {
			return b.label
		}
	}
	return priceBands[len(priceBands)-1].label
}

// productPriceBands buckets unit_price (line_amount when no unit price
// exists) and reports revenue, order count and revenue share per band.
func productPriceBands(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	priceCol := prepare.UnitPrice
	if !d.Has(priceCol) {
		priceCol = prepare.LineAmount
	}
	if m := need(d, priceCol); m != nil {
		return m
	}
	d = d.Filter(func(r table.Record) bool { return !r.Get(priceCol).IsNull() })
	d = d.WithColumn(PriceBand, table.KindString, func(r table.Record) table.Value {
		return table.Str(bandOf(r.Get(priceCol).Float()))
	})
	g := aggregate.GroupBy(d, []string{PriceBand},
		aggregate.Sum(prepare.LineAmount, Revenue),
		aggregate.Count(Orders),
	)
	g = aggregate.ShareOf(g, Revenue)
	order := map[string]int{}
	for i, b := range priceBands {
		order[b.label] = i
	}
	return g.SortFunc(func(a, b table.Record) bool {
		return order[a.Get(PriceBand).String()] < order[b.Get(PriceBand).String()]
	})
}

func productClaimRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, claimRE, prepare.ProductName)
}

// productRepeatContribution is product revenue contribution restricted to
// customers with at least two order lines in the filtered set.
func productRepeatContribution(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.CustomerKey); m != nil {
		return m
	}
	repeat := repeatCustomers(d)
	d = d.Filter(func(r table.Record) bool { return repeat[r.Get(prepare.CustomerKey).String()] })
	return aggregate.Contribution(d, []string{prepare.ProductName}, prepare.LineAmount, Revenue).Head(hitProducts)
}
