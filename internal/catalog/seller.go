package catalog

import (
	"github.com/KaramelBytes/metricdeck-cli/internal/aggregate"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

var sellerEntries = []Entry{
	{"A4_001", "Seller revenue", AreaSeller, sellerRevenue},
	{"A4_002", "Seller order count", AreaSeller, sellerOrders},
	{"A4_003", "Seller average order value", AreaSeller, sellerAOV},
	{"A4_004", "Seller total settlement", AreaSeller, sellerSettlement},
	{"A4_005", "Seller total quantity", AreaSeller, sellerQuantity},
	{"A4_006", "Seller revenue rank", AreaSeller, sellerRankTop},
	{"A4_007", "Seller revenue growth vs previous period", AreaSeller, sellerGrowth},
	{"A4_008", "Seller revenue growth vs whole market", AreaSeller, sellerGrowthMarket},
	{"A4_009", "Seller revenue rank (all)", AreaSeller, sellerRankAll},
	{"A4_010", "Seller average margin rate", AreaSeller, sellerMargin},
	{"A4_011", "Seller margin rank", AreaSeller, sellerMarginRank},
	{"A4_012", "Seller cancellation rate", AreaSeller, sellerCancelRate},
	{"A4_013", "Seller return rate", AreaSeller, sellerReturnRate},
	{"A4_014", "Seller exchange rate", AreaSeller, sellerExchangeRate},
	{"A4_015", "Seller claim rate", AreaSeller, sellerClaimRate},
}

func sellerRevenue(t *table.Table, p filter.Params) *table.Table {
	return revenueBy(filter.Apply(t, p), prepare.Seller).SortBy(table.Desc(Revenue))
}

func sellerOrders(t *table.Table, p filter.Params) *table.Table {
	return ordersBy(filter.Apply(t, p), prepare.Seller).SortBy(table.Desc(Orders))
}

func sellerAOV(t *table.Table, p filter.Params) *table.Table {
	return aovBy(filter.Apply(t, p), prepare.Seller)
}

func sellerSettlement(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.SettlementAmount); m != nil {
		return m
	}
	return aggregate.SafeGroupSum(d, []string{prepare.Seller}, prepare.SettlementAmount, Settlement).
		SortBy(table.Desc(Settlement))
}

func sellerQuantity(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.Quantity); m != nil {
		return m
	}
	return aggregate.SafeGroupSum(d, []string{prepare.Seller}, prepare.Quantity, TotalQuantity).
		SortBy(table.Desc(TotalQuantity))
}

func sellerRankTop(t *table.Table, p filter.Params) *table.Table {
	return rankRevenue(filter.Apply(t, p), p.TopNOr(30), prepare.Seller)
}

func sellerGrowth(t *table.Table, p filter.Params) *table.Table {
	return revenueGrowth(t, p, prepare.Seller)
}

// sellerGrowthMarket compares the filtered period against every order line
// of the previous window, regardless of channel, seller or status filters.
func sellerGrowthMarket(t *table.Table, p filter.Params) *table.Table {
	cur := filter.Apply(t, p)
	prev := cur
	if pp, ok := filter.PreviousWindow(p); ok {
		prev = filter.ByDate(t, pp.DateFrom, pp.DateTo)
	}
	return aggregate.ChangeAnalysis(cur, prev, []string{prepare.Seller}, prepare.LineAmount)
}

func sellerRankAll(t *table.Table, p filter.Params) *table.Table {
	return rankRevenue(filter.Apply(t, p), p.TopN, prepare.Seller)
}

func margins(d *table.Table) *table.Table {
	g := aggregate.GroupBy(d, []string{prepare.Seller},
		aggregate.Sum(prepare.LineAmount, Revenue),
		aggregate.Sum(prepare.SettlementAmount, Settlement),
	)
	return g.WithColumn(MarginPct, table.KindNumber, func(r table.Record) table.Value {
		return table.Num(aggregate.Pct(r.Get(Settlement).Float(), r.Get(Revenue).Float()))
	})
}

func sellerMargin(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.SettlementAmount); m != nil {
		return m
	}
	return margins(d).SortBy(table.Desc(MarginPct))
}

func sellerMarginRank(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	if m := need(d, prepare.SettlementAmount); m != nil {
		return m
	}
	return aggregate.RankBy(margins(d), MarginPct, p.TopN)
}

func sellerCancelRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, cancelRE, prepare.Seller)
}

func sellerReturnRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, returnRE, prepare.Seller)
}

func sellerExchangeRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, exchangeRE, prepare.Seller)
}

func sellerClaimRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, claimRE, prepare.Seller)
}
