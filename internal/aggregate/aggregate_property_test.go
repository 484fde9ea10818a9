package aggregate

import (
	"fmt"
	"testing"

	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func numbers(name string, vs []float64) *table.Table {
	t := table.New(table.Col("k", table.KindString), table.Col(name, table.KindNumber))
	for i, v := range vs {
		t.Append(table.Str(fmt.Sprintf("k%03d", i)), table.Num(v))
	}
	return t
}

func TestDenseRankProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("dense ranks are consecutive and order-preserving", prop.ForAll(
		func(ints []int) bool {
			vs := make([]float64, len(ints))
			distinct := map[int]bool{}
			for i, x := range ints {
				vs[i] = float64(x)
				distinct[x] = true
			}
			out := DenseRank(numbers("v", vs), "v", false, Rank)
			maxRank := int64(0)
			for i := 0; i < out.Len(); i++ {
				ri := out.Value(i, Rank).Int()
				if ri > maxRank {
					maxRank = ri
				}
				for j := 0; j < out.Len(); j++ {
					rj := out.Value(j, Rank).Int()
					switch {
					case vs[i] == vs[j] && ri != rj:
						return false
					case vs[i] > vs[j] && ri >= rj:
						return false
					}
				}
			}
			return maxRank == int64(len(distinct))
		},
		gen.SliceOf(gen.IntRange(0, 20)),
	))

	properties.TestingRun(t)
}

func TestContributionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("cumulative share is non-decreasing and ends at 100", prop.ForAll(
		func(vs []float64) bool {
			var total float64
			for _, v := range vs {
				total += v
			}
			out := Contribution(numbers("v", vs), []string{"k"}, "v", "total")
			if total == 0 {
				return out.Sum(SharePct) == 0
			}
			prev := 0.0
			for i := 0; i < out.Len(); i++ {
				c := out.Value(i, CumSharePct).Float()
				if c+1e-9 < prev {
					return false
				}
				prev = c
			}
			return out.Value(out.Len()-1, CumSharePct).Float() == 100
		},
		gen.SliceOf(gen.Float64Range(0, 1e6)),
	))

	properties.Property("group sums preserve the table total", prop.ForAll(
		func(vs []float64) bool {
			src := numbers("v", vs)
			all := SafeGroupSum(src, nil, "v", "total")
			if len(vs) == 0 {
				return all.Len() == 0
			}
			diff := all.Value(0, "total").Float() - src.Sum("v")
			return diff < 1e-6 && diff > -1e-6
		},
		gen.SliceOf(gen.Float64Range(0, 1e6)),
	))

	properties.TestingRun(t)
}
