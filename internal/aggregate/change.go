package aggregate

import (
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

// Change analysis result columns.
const (
	Current   = "current"
	Previous  = "previous"
	Delta     = "delta"
	ChangePct = "change_pct"
)

// ChangeAnalysis compares valueCol sums per group between two periods.
func ChangeAnalysis(cur, prev *table.Table, keys []string, valueCol string) *table.Table {
	return compare(
		SafeGroupSum(cur, keys, valueCol, Current),
		SafeGroupSum(prev, keys, valueCol, Current),
		KeyColumns(cur, keys),
	)
}

// ChangeAnalysisCount compares row counts per group between two periods.
func ChangeAnalysisCount(cur, prev *table.Table, keys []string) *table.Table {
	return compare(
		SafeGroupCount(cur, keys, Current),
		SafeGroupCount(prev, keys, Current),
		KeyColumns(cur, keys),
	)
}

// compare outer-joins two aggregates that both carry their measure in
// Current and emits current, previous, delta and change_pct sorted by
// change_pct descending.
func compare(cur, prev *table.Table, keyCols []string) *table.Table {
	cols := make([]table.Column, 0, len(keyCols)+4)
	for _, k := range keyCols {
		kind := cur.Kind(k)
		if !cur.Has(k) {
			kind = prev.Kind(k)
		}
		cols = append(cols, table.Col(k, kind))
	}
	cols = append(cols,
		table.Col(Current, table.KindNumber),
		table.Col(Previous, table.KindNumber),
		table.Col(Delta, table.KindNumber),
		table.Col(ChangePct, table.KindNumber),
	)
	out := table.New(cols...)

	keyOf := func(t *table.Table, i int) ([]table.Value, string) {
		kv := make([]table.Value, len(keyCols))
		for j, k := range keyCols {
			kv[j] = t.Value(i, k)
		}
		return kv, table.GroupKey(kv)
	}
	prevVals := map[string]float64{}
	for i := 0; i < prev.Len(); i++ {
		_, id := keyOf(prev, i)
		prevVals[id] += prev.Value(i, Current).Float()
	}
	emit := func(kv []table.Value, c, p float64) {
		vals := append([]table.Value(nil), kv...)
		vals = append(vals,
			table.Num(c), table.Num(p),
			table.Num(Round2(c-p)), table.Num(GrowthPct(c, p)),
		)
		out.Append(vals...)
	}
	seen := map[string]bool{}
	for i := 0; i < cur.Len(); i++ {
		kv, id := keyOf(cur, i)
		seen[id] = true
		emit(kv, cur.Value(i, Current).Float(), prevVals[id])
	}
	for i := 0; i < prev.Len(); i++ {
		kv, id := keyOf(prev, i)
		if seen[id] {
			continue
		}
		seen[id] = true
		emit(kv, 0, prevVals[id])
	}
	return out.SortBy(table.Desc(ChangePct))
}
