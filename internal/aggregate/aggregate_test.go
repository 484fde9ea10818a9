package aggregate

import (
	"regexp"
	"testing"

	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

func lines() *table.Table {
	t := table.New(
		table.Col(prepare.Channel, table.KindString),
		table.Col(prepare.Seller, table.KindString),
		table.Col(prepare.OrderStatus, table.KindString),
		table.Col(prepare.ClaimNote, table.KindString),
		table.Col(prepare.LineAmount, table.KindNumber),
	)
	s, n := table.Str, table.Null(table.KindString)
	t.Append(s("A"), s("S1"), s("ordered"), n, table.Num(100))
	t.Append(s("B"), s("S1"), s("ordered"), n, table.Num(200))
	t.Append(s("A"), s("S2"), s("canceled"), n, table.Num(50))
	t.Append(n, s("S2"), s("ordered"), s("반품 요청"), table.Null(table.KindNumber))
	return t
}

func TestSafeGroupSumFallbackToAll(t *testing.T) {
	out := SafeGroupSum(lines(), []string{"region"}, prepare.LineAmount, "total_revenue")
	if out.Len() != 1 || out.Value(0, AllColumn).String() != AllLabel {
		t.Fatalf("expected a single ALL group, got %v", out.Columns())
	}
	if got := out.Value(0, "total_revenue").Float(); got != 350 {
		t.Fatalf("total = %v", got)
	}
}

func TestSafeGroupSumNullKeyAndMissingValue(t *testing.T) {
	out := SafeGroupSum(lines(), []string{prepare.Channel, "region"}, prepare.LineAmount, "v")
	if out.Len() != 3 {
		t.Fatalf("groups = %d, want 3 (A, B, null)", out.Len())
	}
	if out.Value(0, prepare.Channel).String() != "A" || out.Value(0, "v").Float() != 150 {
		t.Fatalf("first group wrong")
	}
	if !out.Value(2, prepare.Channel).IsNull() || out.Value(2, "v").Float() != 0 {
		t.Fatalf("null key group should sort last with sum 0")
	}
	missing := SafeGroupSum(lines(), []string{prepare.Channel}, "settlement_amount", "v")
	if missing.Sum("v") != 0 || missing.Len() != 3 {
		t.Fatalf("absent value column should sum as 0")
	}
}

func TestSafeGroupCount(t *testing.T) {
	out := SafeGroupCount(lines(), []string{prepare.Seller}, "n")
	if out.Len() != 2 || out.Value(0, "n").Int() != 2 || out.Value(1, "n").Int() != 2 {
		t.Fatalf("counts wrong")
	}
}

func TestDenseRank(t *testing.T) {
	src := table.New(table.Col("v", table.KindNumber))
	for _, v := range []float64{100, 100, 50} {
		src.Append(table.Num(v))
	}
	out := DenseRank(src, "v", false, Rank)
	want := []int64{1, 1, 2}
	for i, w := range want {
		if got := out.Value(i, Rank).Int(); got != w {
			t.Fatalf("rank[%d] = %d, want %d", i, got, w)
		}
	}
	asc := DenseRank(src, "v", true, Rank)
	if asc.Value(2, Rank).Int() != 1 || asc.Value(0, Rank).Int() != 2 {
		t.Fatalf("ascending ranks wrong")
	}
	absent := DenseRank(src, "nope", false, Rank)
	if absent.Value(0, Rank).Int() != 1 || absent.Value(2, Rank).Int() != 1 {
		t.Fatalf("absent column should rank everything 1")
	}
}

func TestDenseRankWithin(t *testing.T) {
	g := SafeGroupSum(lines(), []string{prepare.Channel, prepare.Seller}, prepare.LineAmount, "v")
	out := DenseRankWithin(g, []string{prepare.Channel}, "v", false, Rank)
	for i := 0; i < out.Len(); i++ {
		if out.Value(i, Rank).Int() != 1 && out.Value(i, prepare.Channel).String() != "A" {
			t.Fatalf("only channel A has two sellers")
		}
	}
	for i := 0; i < out.Len(); i++ {
		if out.Value(i, prepare.Seller).String() == "S2" && out.Value(i, prepare.Channel).String() == "A" {
			if out.Value(i, Rank).Int() != 2 {
				t.Fatalf("A/S2 should rank 2 within A")
			}
		}
	}
}

func TestIssueRate(t *testing.T) {
	re := regexp.MustCompile(`cancel|return|반품|취소`)
	out := IssueRate(lines(), []string{prepare.Seller}, re)
	if out.Value(0, TotalCount).Int() != 2 || out.Value(0, IssueCount).Int() != 0 || out.Value(0, RatePct).Float() != 0 {
		t.Fatalf("S1 rate wrong")
	}
	if out.Value(1, IssueCount).Int() != 2 || out.Value(1, RatePct).Float() != 100 {
		t.Fatalf("S2 counts status and claim note matches: %v", out.Value(1, IssueCount))
	}
	empty := IssueRate(lines().Head(0), nil, re)
	if empty.Len() != 0 {
		t.Fatalf("empty input should give no groups")
	}
}

func TestContributionReaches100(t *testing.T) {
	src := table.New(table.Col("k", table.KindString), table.Col("v", table.KindNumber))
	for i, v := range []float64{1, 1, 1} {
		src.Append(table.Str(string(rune('a'+i))), table.Num(v))
	}
	out := Contribution(src, []string{"k"}, "v", "total")
	if got := out.Value(2, CumSharePct).Float(); got != 100 {
		t.Fatalf("last cumulative share = %v, want 100", got)
	}
	if got := out.Value(0, SharePct).Float(); got != 33.33 {
		t.Fatalf("share = %v", got)
	}
	if got := out.Value(1, CumSharePct).Float(); got != 66.67 {
		t.Fatalf("second cumulative share = %v", got)
	}
}

func TestMarketShare(t *testing.T) {
	out := MarketShare(lines(), []string{prepare.Channel}, prepare.LineAmount, "total_revenue")
	if out.Value(0, prepare.Channel).String() != "B" || out.Value(0, SharePct).Float() != 57.14 {
		t.Fatalf("top share row = %s %v", out.Value(0, prepare.Channel), out.Value(0, SharePct))
	}
}

func TestShareWithin(t *testing.T) {
	g := SafeGroupSum(lines(), []string{prepare.Channel, prepare.Seller}, prepare.LineAmount, "v")
	out := ShareWithin(g, []string{prepare.Channel}, "v", "share")
	for i := 0; i < out.Len(); i++ {
		ch, sel := out.Value(i, prepare.Channel).String(), out.Value(i, prepare.Seller).String()
		if ch == "A" && sel == "S1" && out.Value(i, "share").Float() != 66.67 {
			t.Fatalf("A/S1 share = %v", out.Value(i, "share"))
		}
	}
}

func TestChangeAnalysisZeroBaseline(t *testing.T) {
	cur := table.New(table.Col("k", table.KindString), table.Col("v", table.KindNumber))
	cur.Append(table.Str("new"), table.Num(10))
	cur.Append(table.Str("flat"), table.Num(0))
	cur.Append(table.Str("up"), table.Num(150))
	cur.Append(table.Str("negative"), table.Num(-10))
	prev := table.New(table.Col("k", table.KindString), table.Col("v", table.KindNumber))
	prev.Append(table.Str("flat"), table.Num(0))
	prev.Append(table.Str("up"), table.Num(100))
	prev.Append(table.Str("gone"), table.Num(40))

	out := ChangeAnalysis(cur, prev, []string{"k"}, "v")
	got := map[string]float64{}
	for i := 0; i < out.Len(); i++ {
		got[out.Value(i, "k").String()] = out.Value(i, ChangePct).Float()
	}
	want := map[string]float64{"new": 100, "flat": 0, "up": 50, "gone": -100, "negative": 0}
	for k, w := range want {
		if got[k] != w {
			t.Fatalf("%s change = %v, want %v", k, got[k], w)
		}
	}
	if out.Value(0, ChangePct).Float() != 100 || out.Value(out.Len()-1, "k").String() != "gone" {
		t.Fatalf("rows should be sorted by change descending")
	}
}

func TestGrowthPct(t *testing.T) {
	cases := []struct{ cur, prev, want float64 }{
		{10, 0, 100},
		{0, 0, 0},
		{-10, 0, 0},
		{150, 100, 50},
		{1, 3, -66.67},
	}
	for _, c := range cases {
		if got := GrowthPct(c.cur, c.prev); got != c.want {
			t.Fatalf("GrowthPct(%v,%v) = %v, want %v", c.cur, c.prev, got, c.want)
		}
	}
}

func TestStats(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if Mean(xs) != 5 || StdDev(xs) != 2 {
		t.Fatalf("mean/std = %v/%v", Mean(xs), StdDev(xs))
	}
	if CoefficientOfVariation([]float64{0, 0}) != 0 {
		t.Fatalf("zero mean cv should be 0")
	}
	if SafeDiv(1, 0) != 0 || Pct(1, 3) != 33.33 {
		t.Fatalf("safe div / pct wrong")
	}
}
