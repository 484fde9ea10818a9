// Package aggregate holds the grouping, ranking, share and change
// primitives that metric functions are composed from.
package aggregate

import (
	"sort"

	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

// AllColumn and AllLabel name the single group used when none of the grouping keys
// exist in a table.
const (
	AllColumn = "group"
	AllLabel  = "ALL"
)

// Agg computes one output column from the rows of a group.
type Agg struct {
	Name string
	Kind table.Kind
	Fn   func(rows []table.Record) table.Value
}

// Sum adds col over the group. Absent columns and nulls count as 0.
func Sum(col, name string) Agg {
	return Agg{Name: name, Kind: table.KindNumber, Fn: func(rows []table.Record) table.Value {
		var s float64
		for _, r := range rows {
			s += r.Get(col).Float()
		}
		return table.Num(s)
	}}
}

// Count counts rows in the group.
func Count(name string) Agg {
	return Agg{Name: name, Kind: table.KindInt, Fn: func(rows []table.Record) table.Value {
		return table.Int(int64(len(rows)))
	}}
}

// MeanOf averages the non-null values of col; a group with none is 0.
func MeanOf(col, name string) Agg {
	return Agg{Name: name, Kind: table.KindNumber, Fn: func(rows []table.Record) table.Value {
		var s float64
		n := 0
		for _, r := range rows {
			if v := r.Get(col); !v.IsNull() {
				s += v.Float()
				n++
			}
		}
		return table.Num(SafeDiv(s, float64(n)))
	}}
}

// CountDistinct counts distinct non-null values of col.
func CountDistinct(col, name string) Agg {
	return Agg{Name: name, Kind: table.KindInt, Fn: func(rows []table.Record) table.Value {
		seen := map[string]struct{}{}
		for _, r := range rows {
			if v := r.Get(col); !v.IsNull() {
				seen[table.GroupKey([]table.Value{v})] = struct{}{}
			}
		}
		return table.Int(int64(len(seen)))
	}}
}

// MinOf and MaxOf pick the extreme non-null value of col.
func MinOf(col, name string, kind table.Kind) Agg { return extreme(col, name, kind, -1) }
func MaxOf(col, name string, kind table.Kind) Agg { return extreme(col, name, kind, 1) }

func extreme(col, name string, kind table.Kind, sign int) Agg {
	return Agg{Name: name, Kind: kind, Fn: func(rows []table.Record) table.Value {
		best := table.Null(kind)
		for _, r := range rows {
			v := r.Get(col)
			if v.IsNull() {
				continue
			}
			if best.IsNull() || table.Compare(v, best)*sign > 0 {
				best = v
			}
		}
		return best
	}}
}

type group struct {
	keys []table.Value
	rows []table.Record
}

// partition splits t by the present subset of keys. When no key exists the
// whole table is one group labelled AllLabel under AllColumn. Null keys form
// their own group. Groups are ordered by key ascending with nulls last.
func partition(t *table.Table, keys []string) ([]table.Column, []*group) {
	present := t.Present(keys...)
	var cols []table.Column
	if len(present) == 0 {
		cols = []table.Column{table.Col(AllColumn, table.KindString)}
	} else {
		for _, k := range present {
			cols = append(cols, table.Col(k, t.Kind(k)))
		}
	}
	index := map[string]*group{}
	var groups []*group
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		var kv []table.Value
		if len(present) == 0 {
			kv = []table.Value{table.Str(AllLabel)}
		} else {
			kv = make([]table.Value, len(present))
			for j, k := range present {
				kv[j] = r.Get(k)
			}
		}
		id := table.GroupKey(kv)
		g, ok := index[id]
		if !ok {
			g = &group{keys: kv}
			index[id] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, r)
	}
	sortGroups(groups)
	return cols, groups
}

func sortGroups(groups []*group) {
	sort.SliceStable(groups, func(a, b int) bool {
		ka, kb := groups[a].keys, groups[b].keys
		for i := range ka {
			if c := table.Compare(ka[i], kb[i]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// GroupBy aggregates t by the present subset of keys.
func GroupBy(t *table.Table, keys []string, aggs ...Agg) *table.Table {
	cols, groups := partition(t, keys)
	for _, a := range aggs {
		cols = append(cols, table.Col(a.Name, a.Kind))
	}
	out := table.New(cols...)
	for _, g := range groups {
		vals := append([]table.Value(nil), g.keys...)
		for _, a := range aggs {
			vals = append(vals, a.Fn(g.rows))
		}
		out.Append(vals...)
	}
	return out
}

// KeyColumns returns the grouping columns GroupBy would emit for keys.
func KeyColumns(t *table.Table, keys []string) []string {
	present := t.Present(keys...)
	if len(present) == 0 {
		return []string{AllColumn}
	}
	return present
}

// SafeGroupSum sums valueCol per group into outName.
func SafeGroupSum(t *table.Table, keys []string, valueCol, outName string) *table.Table {
	return GroupBy(t, keys, Sum(valueCol, outName))
}

// SafeGroupCount counts rows per group into outName.
func SafeGroupCount(t *table.Table, keys []string, outName string) *table.Table {
	return GroupBy(t, keys, Count(outName))
}

// SafeGroupMean averages valueCol per group into outName.
func SafeGroupMean(t *table.Table, keys []string, valueCol, outName string) *table.Table {
	return GroupBy(t, keys, MeanOf(valueCol, outName))
}

// SafeGroupDistinct counts distinct values of col per group into outName.
func SafeGroupDistinct(t *table.Table, keys []string, col, outName string) *table.Table {
	return GroupBy(t, keys, CountDistinct(col, outName))
}
