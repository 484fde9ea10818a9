package catalog

import (
	"github.com/KaramelBytes/metricdeck-cli/internal/aggregate"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

var channelEntries = []Entry{
	{"A1_001", "Channel revenue share", AreaChannel, channelRevenueShare},
	{"A1_002", "Channel order share", AreaChannel, channelOrderShare},
	{"A1_003", "Channel seller revenue rank", AreaChannel, channelSellerRank},
	{"A1_004", "Seller share within channel", AreaChannel, channelSellerShare},
	{"A1_005", "Channel revenue growth", AreaChannel, channelRevenueGrowth},
	{"A1_006", "Channel order growth", AreaChannel, channelOrderGrowth},
	{"A1_007", "Channel share trend", AreaChannel, channelShareTrend},
	{"A1_008", "Channel revenue rank", AreaChannel, channelRank},
	{"A1_009", "Seller rank within channel", AreaChannel, channelSellerRankWithin},
	{"A1_010", "Product rank within channel", AreaChannel, channelProductRank},
	{"A1_011", "Channel cancellation rate", AreaChannel, channelCancelRate},
	{"A1_012", "Channel return rate", AreaChannel, channelReturnRate},
	{"A1_013", "Channel claim rate", AreaChannel, channelClaimRate},
	{"A1_014", "Channel revenue contribution", AreaChannel, channelContribution},
}

func channelRevenueShare(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	return aggregate.MarketShare(d, []string{prepare.Channel}, prepare.LineAmount, Revenue)
}

func channelOrderShare(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	g := ordersBy(d, prepare.Channel)
	return aggregate.ShareOf(g, Orders).SortBy(table.Desc(aggregate.SharePct))
}

func channelSellerRank(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	return rankRevenue(d, p.TopNOr(30), prepare.Channel, prepare.Seller)
}

func channelSellerShare(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	return shareWithin(d, prepare.Channel, prepare.Seller)
}

func channelRevenueGrowth(t *table.Table, p filter.Params) *table.Table {
	return revenueGrowth(t, p, prepare.Channel)
}

func channelOrderGrowth(t *table.Table, p filter.Params) *table.Table {
	return orderGrowth(t, p, prepare.Channel)
}

func channelShareTrend(t *table.Table, p filter.Params) *table.Table {
	return dailyShare(filter.Apply(t, p), prepare.Channel)
}

func channelRank(t *table.Table, p filter.Params) *table.Table {
	return rankRevenue(filter.Apply(t, p), 0, prepare.Channel)
}

func channelSellerRankWithin(t *table.Table, p filter.Params) *table.Table {
	return rankWithin(filter.Apply(t, p), p.TopN, prepare.Channel, prepare.Seller)
}

func channelProductRank(t *table.Table, p filter.Params) *table.Table {
	return rankWithin(filter.Apply(t, p), p.TopNOr(50), prepare.Channel, prepare.ProductName)
}

func channelCancelRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, cancelRE, prepare.Channel)
}

func channelReturnRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, returnRE, prepare.Channel)
}

func channelClaimRate(t *table.Table, p filter.Params) *table.Table {
	return issueRate(t, p, claimRE, prepare.Channel)
}

func channelContribution(t *table.Table, p filter.Params) *table.Table {
	d := filter.Apply(t, p)
	return aggregate.Contribution(d, []string{prepare.Channel}, prepare.LineAmount, Revenue)
}
