package aggregate

import (
	"sort"

	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

// Rank is the default rank column name.
const Rank = "rank"

// DenseRank adds a 1-based dense rank of sortCol. Ties share a rank and the
// next distinct value gets the following integer. An absent column or a
// null cell ranks as 0-valued.
func DenseRank(t *table.Table, sortCol string, ascending bool, rankCol string) *table.Table {
	return DenseRankWithin(t, nil, sortCol, ascending, rankCol)
}

// DenseRankWithin ranks sortCol separately inside each partition.
func DenseRankWithin(t *table.Table, partitionBy []string, sortCol string, ascending bool, rankCol string) *table.Table {
	parts := t.Present(partitionBy...)
	val := func(r table.Record) table.Value {
		v := r.Get(sortCol)
		if v.IsNull() {
			return table.Num(0)
		}
		return v
	}
	buckets := map[string][]table.Value{}
	partKey := func(r table.Record) string {
		kv := make([]table.Value, len(parts))
		for i, p := range parts {
			kv[i] = r.Get(p)
		}
		return table.GroupKey(kv)
	}
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		k := partKey(r)
		buckets[k] = append(buckets[k], val(r))
	}
	ranks := map[string][]table.Value{}
	for k, vs := range buckets {
		sort.SliceStable(vs, func(a, b int) bool {
			c := table.Compare(vs[a], vs[b])
			if ascending {
				return c < 0
			}
			return c > 0
		})
		var distinct []table.Value
		for _, v := range vs {
			if len(distinct) == 0 || table.Compare(distinct[len(distinct)-1], v) != 0 {
				distinct = append(distinct, v)
			}
		}
		ranks[k] = distinct
	}
	return t.WithColumn(rankCol, table.KindInt, func(r table.Record) table.Value {
		distinct := ranks[partKey(r)]
		v := val(r)
		i := sort.Search(len(distinct), func(i int) bool {
			c := table.Compare(distinct[i], v)
			if ascending {
				return c >= 0
			}
			return c <= 0
		})
		return table.Int(int64(i + 1))
	})
}

// RankBy sorts by valueCol descending, adds a dense rank and keeps topN rows
// (all rows when topN <= 0).
func RankBy(t *table.Table, valueCol string, topN int) *table.Table {
	out := DenseRank(t, valueCol, false, Rank).SortBy(table.Desc(valueCol))
	return out.Head(topN)
}
