package catalog

import (
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/aggregate"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/samber/lo"
)

// Weekday score columns.
const (
	Consistency = "consistency_score"
	Magnitude   = "magnitude_score"
)

const peakHours = 3

var trendEntries = []Entry{
	{"A6_001", "Daily revenue", AreaTrend, timed(dailyRevenue)},
	{"A6_002", "Daily order count", AreaTrend, timed(dailyOrders)},
	{"A6_003", "Weekly revenue", AreaTrend, timed(weeklyRevenue)},
	{"A6_004", "Bi-weekly revenue growth", AreaTrend, timed(weeklyGrowth)},
	{"A6_005", "Hourly revenue pattern", AreaTrend, timed(hourlyRevenue)},
	{"A6_006", "Hourly order pattern", AreaTrend, timed(hourlyOrders)},
	{"A6_007", "Peak hours", AreaTrend, timed(peakHourRank)},
	{"A6_008", "Weekday revenue pattern", AreaTrend, timed(weekdayRevenue)},
	{"A6_009", "Weekday pattern score", AreaTrend, timed(weekdayScore)},
	{"A6_010", "Daily revenue by channel", AreaTrend, timed(dailyChannelRevenue)},
	{"A6_011", "Daily revenue of top mid-categories", AreaTrend, timed(dailyTopCategoryRevenue)},
}

// timed wraps a trend metric so it reports a placeholder when the source
// had no order timestamp.
func timed(fn func(d *table.Table) *table.Table) Func {
	return func(t *table.Table, p filter.Params) *table.Table {
		if m := need(t, prepare.OrderTimestamp); m != nil {
			return m
		}
		return fn(filter.Apply(t, p))
	}
}

func dailyRevenue(d *table.Table) *table.Table {
	return revenueBy(d, prepare.OrderDate).SortBy(table.Asc(prepare.OrderDate))
}

func dailyOrders(d *table.Table) *table.Table {
	return ordersBy(d, prepare.OrderDate).SortBy(table.Asc(prepare.OrderDate))
}

// weekLabel renders the Monday-to-Sunday week containing day.
func weekLabel(day time.Time) string {
	start := day.AddDate(0, 0, -prepare.WeekdayIndex(day.Weekday()))
	return start.Format(time.DateOnly) + "/" + start.AddDate(0, 0, 6).Format(time.DateOnly)
}

func withWeek(d *table.Table) *table.Table {
	return d.WithColumn(Week, table.KindString, func(r table.Record) table.Value {
		v := r.Get(prepare.OrderDate)
		if v.IsNull() {
			return table.Null(table.KindString)
		}
		return table.Str(weekLabel(v.Time()))
	})
}

func weeklyRevenue(d *table.Table) *table.Table {
	return revenueBy(withWeek(d), Week).SortBy(table.Asc(Week))
}

// weeklyGrowth pairs each week with the calendar week before it. Weeks
// without sales inside the series count as zero revenue.
func weeklyGrowth(d *table.Table) *table.Table {
	weeks := weeklyRevenue(d).Filter(func(r table.Record) bool { return !r.Get(Week).IsNull() })
	out := table.New(
		table.Col(Week, table.KindString),
		table.Col(aggregate.Current, table.KindNumber),
		table.Col(aggregate.Previous, table.KindNumber),
		table.Col(aggregate.ChangePct, table.KindNumber),
	)
	if weeks.Len() == 0 {
		return out
	}
	revenue := map[string]float64{}
	for i := 0; i < weeks.Len(); i++ {
		revenue[weeks.Value(i, Week).String()] = weeks.Value(i, Revenue).Float()
	}
	first, err1 := time.Parse(time.DateOnly, weeks.Value(0, Week).String()[:10])
	last, err2 := time.Parse(time.DateOnly, weeks.Value(weeks.Len()-1, Week).String()[:10])
	if err1 != nil || err2 != nil {
		return out
	}
	prev := revenue[weekLabel(first)]
	for start := first.AddDate(0, 0, 7); !start.After(last); start = start.AddDate(0, 0, 7) {
		label := weekLabel(start)
		cur := revenue[label]
		out.Append(table.Str(label), table.Num(cur), table.Num(prev), table.Num(aggregate.GrowthPct(cur, prev)))
		prev = cur
	}
	return out
}

// withStrength attaches the coefficient of variation of col across buckets.
func withStrength(g *table.Table, col string) *table.Table {
	cv := aggregate.CoefficientOfVariation(g.Floats(col))
	return g.WithScalar(PatternScalar, aggregate.Round2(cv*100))
}

func hourlyRevenue(d *table.Table) *table.Table {
	g := revenueBy(d, prepare.HourOfDay).SortBy(table.Asc(prepare.HourOfDay))
	return withStrength(g, Revenue)
}

func hourlyOrders(d *table.Table) *table.Table {
	g := ordersBy(d, prepare.HourOfDay).SortBy(table.Asc(prepare.HourOfDay))
	return withStrength(g, Orders)
}

func peakHourRank(d *table.Table) *table.Table {
	hours := revenueBy(d, prepare.HourOfDay).Filter(func(r table.Record) bool {
		return !r.Get(prepare.HourOfDay).IsNull()
	})
	return aggregate.RankBy(hours, Revenue, peakHours)
}

// byWeekday orders rows Mon..Sun with unknown labels last.
func byWeekday(t *table.Table) *table.Table {
	pos := make(map[string]int, len(prepare.WeekdayLabels))
	for i, l := range prepare.WeekdayLabels {
		pos[l] = i
	}
	order := func(r table.Record) int {
		if i, ok := pos[r.Get(prepare.Weekday).String()]; ok {
			return i
		}
		return len(pos)
	}
	return t.SortFunc(func(a, b table.Record) bool { return order(a) < order(b) })
}

func weekdayRevenue(d *table.Table) *table.Table {
	g := byWeekday(revenueBy(d, prepare.Weekday))
	return withStrength(g, Revenue)
}

// weekdayScore blends how steady each weekday's daily revenue is with how
// large it is relative to the strongest weekday.
func weekdayScore(d *table.Table) *table.Table {
	daily := revenueBy(d, prepare.OrderDate, prepare.Weekday).Filter(func(r table.Record) bool {
		return !r.Get(prepare.Weekday).IsNull()
	})
	perDay := map[string][]float64{}
	for i := 0; i < daily.Len(); i++ {
		wd := daily.Value(i, prepare.Weekday).String()
		perDay[wd] = append(perDay[wd], daily.Value(i, Revenue).Float())
	}
	means := lo.MapValues(perDay, func(xs []float64, _ string) float64 { return aggregate.Mean(xs) })
	best := lo.Max(lo.Values(means))

	out := table.New(
		table.Col(prepare.Weekday, table.KindString),
		table.Col(Revenue, table.KindNumber),
		table.Col(Consistency, table.KindNumber),
		table.Col(Magnitude, table.KindNumber),
		table.Col(Score, table.KindNumber),
	)
	for _, wd := range prepare.WeekdayLabels {
		xs, ok := perDay[wd]
		if !ok {
			continue
		}
		c := 100 / (1 + aggregate.CoefficientOfVariation(xs))
		m := aggregate.SafeDiv(means[wd], best) * 100
		out.Append(
			table.Str(wd),
			table.Num(lo.Sum(xs)),
			table.Num(aggregate.Round2(c)),
			table.Num(aggregate.Round2(m)),
			table.Num(aggregate.Round2(0.6*c+0.4*m)),
		)
	}
	return out
}

func dailyChannelRevenue(d *table.Table) *table.Table {
	return revenueBy(d, prepare.OrderDate, prepare.Channel).
		SortBy(table.Asc(prepare.OrderDate), table.Desc(Revenue))
}

func dailyTopCategoryRevenue(d *table.Table) *table.Table {
	top := topRevenue(d, prepare.CategoryMidCode, topCategories)
	keep := lo.SliceToMap(top.Values(prepare.CategoryMidCode), func(v table.Value) (string, bool) {
		return v.String(), true
	})
	d = d.Filter(func(r table.Record) bool { return keep[r.Get(prepare.CategoryMidCode).String()] })
	return revenueBy(d, prepare.OrderDate, prepare.CategoryMidCode).
		SortBy(table.Asc(prepare.OrderDate), table.Desc(Revenue))
}
