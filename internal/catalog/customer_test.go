package catalog

import (
	"testing"
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/aggregate"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

func runOn(t *testing.T, id string, src *table.Table, p filter.Params) *table.Table {
	t.Helper()
	for _, e := range Entries() {
		if e.ID == id {
			return e.Func(src, p)
		}
	}
	t.Fatalf("no entry %s", id)
	return nil
}

func figures(out *table.Table) map[string]float64 {
	got := map[string]float64{}
	for i := 0; i < out.Len(); i++ {
		got[out.Value(i, Metric).String()] = out.Value(i, Value).Float()
	}
	return got
}

// buyers spans January to June 2024. Kim first bought before March, Lee buys
// five lines on one March day and again in June, Park buys every ten days in
// March. The last order in the table is Lee's on June 30.
func buyers() *table.Table {
	s := table.Str
	t := table.New(
		table.Col(prepare.OrderTimestamp, table.KindTime),
		table.Col(prepare.BuyerName, table.KindString),
		table.Col(prepare.BuyerPhone, table.KindString),
		table.Col(prepare.ProductName, table.KindString),
		table.Col(prepare.LineAmount, table.KindNumber),
	)
	on := func(m time.Month, d int) table.Value {
		return table.Time(time.Date(2024, m, d, 10, 0, 0, 0, time.UTC))
	}
	t.Append(on(time.January, 10), s("Kim"), s("1111"), s("P1"), table.Num(100))
	t.Append(on(time.March, 5), s("Kim"), s("1111"), s("P1"), table.Num(100))
	for i := 0; i < 5; i++ {
		t.Append(on(time.March, 10), s("Lee"), s("2222"), s("P2"), table.Num(20))
	}
	t.Append(on(time.June, 30), s("Lee"), s("2222"), s("P2"), table.Num(20))
	for _, d := range []int{2, 12, 22} {
		t.Append(on(time.March, d), s("Park"), s("3333"), s("P3"), table.Num(60))
	}
	return prepare.Derive(t)
}

func march(t *testing.T) filter.Params {
	t.Helper()
	from, err := filter.ParseDay("2024-03-01", false)
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	to, err := filter.ParseDay("2024-03-31", true)
	if err != nil {
		t.Fatalf("to: %v", err)
	}
	return filter.Params{DateFrom: from, DateTo: to}
}

func TestCustomerFigures(t *testing.T) {
	cases := []struct {
		id   string
		want map[string]float64
	}{
		{"A3_006", map[string]float64{Customers: 3, "new_customers": 2, "new_customer_rate_pct": 66.67}},
		{"A3_007", map[string]float64{Customers: 3, "churned_customers": 2, "churn_rate_pct": 66.67}},
		{"A3_010", map[string]float64{Customers: 3, "avg_ltv": 1526.67, "avg_order_value": 42.22}},
	}
	for _, c := range cases {
		got := figures(runOn(t, c.id, buyers(), march(t)))
		for k, w := range c.want {
			if g, ok := got[k]; !ok || !near(g, w) {
				t.Fatalf("%s %s = %v, want %v (all: %v)", c.id, k, g, w, got)
			}
		}
	}
}

func TestPurchaseDistributionBuckets(t *testing.T) {
	out := runOn(t, "A3_009", buyers(), march(t))
	want := []struct {
		bucket string
		n      int64
	}{{"1", 1}, {"2", 0}, {"3", 1}, {"4", 0}, {"5+", 1}}
	if out.Len() != len(want) {
		t.Fatalf("rows = %d", out.Len())
	}
	for i, w := range want {
		r := out.Row(i)
		if r.Get(PurchaseBucket).String() != w.bucket || r.Get(Customers).Int() != w.n {
			t.Fatalf("row %d = %v, want %s=%d", i, r.Map(), w.bucket, w.n)
		}
	}
	if got := out.Value(0, aggregate.SharePct).Float(); got != 33.33 {
		t.Fatalf("share of single buyers = %v", got)
	}
}

func TestLTVRanking(t *testing.T) {
	out := runOn(t, "A3_011", buyers(), march(t))
	if out.Len() != 3 {
		t.Fatalf("rows = %d", out.Len())
	}
	top := out.Row(0)
	if top.Get(prepare.CustomerKey).String() != "Park_3333" || top.Get(LTV).Float() != 4380 {
		t.Fatalf("top = %v", top.Map())
	}
	for i := 1; i < out.Len(); i++ {
		if got := out.Value(i, LTV).Float(); got != 100 {
			t.Fatalf("single-day buyers are valued at total spend, row %d = %v", i, got)
		}
	}
}

func TestLTVWithoutTimestamps(t *testing.T) {
	src := table.New(
		table.Col(prepare.BuyerName, table.KindString),
		table.Col(prepare.LineAmount, table.KindNumber),
	)
	src.Append(table.Str("Kim"), table.Num(30))
	src.Append(table.Str("Kim"), table.Num(70))
	src.Append(table.Str("Lee"), table.Num(50))
	src = prepare.Derive(src)

	got := figures(runOn(t, "A3_010", src, filter.Params{}))
	if got["avg_ltv"] != 75 {
		t.Fatalf("avg ltv = %v, want 75", got)
	}
	rank := runOn(t, "A3_011", src, filter.Params{})
	if rank.Has("message") || rank.Value(0, LTV).Float() != 100 {
		t.Fatalf("ranking = %v", rank.Row(0).Map())
	}
}

func TestWeeklyGrowthFillsEmptyWeeks(t *testing.T) {
	src := table.New(
		table.Col(prepare.OrderDate, table.KindDate),
		table.Col(prepare.LineAmount, table.KindNumber),
	)
	src.Append(table.Date(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)), table.Num(100))
	src.Append(table.Date(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)), table.Num(50))

	out := weeklyGrowth(src)
	want := []struct {
		week            string
		cur, prev, diff float64
	}{
		{"2024-03-11/2024-03-17", 0, 100, -100},
		{"2024-03-18/2024-03-24", 50, 0, 100},
	}
	if out.Len() != len(want) {
		t.Fatalf("rows = %d", out.Len())
	}
	for i, w := range want {
		r := out.Row(i)
		if r.Get(Week).String() != w.week || r.Get(aggregate.Current).Float() != w.cur ||
			r.Get(aggregate.Previous).Float() != w.prev || r.Get(aggregate.ChangePct).Float() != w.diff {
			t.Fatalf("row %d = %v", i, r.Map())
		}
	}
}
