// Package table holds the nullable, column-typed tabular value every metric
// reads and returns. A Table is append-only while it is being built and is
// treated as immutable afterwards; derived tables share row storage.
package table

import (
	"fmt"
	"sort"
)

// Scalar is a named summary number carried alongside a result table.
type Scalar struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Table is an ordered set of typed columns.
type Table struct {
	cols    []string
	kinds   []Kind
	index   map[string]int
	rows    [][]Value
	scalars []Scalar
}

// Column describes one column for New.
type Column struct {
	Name string
	Kind Kind
}

// Col is shorthand for a Column literal.
func Col(name string, kind Kind) Column { return Column{Name: name, Kind: kind} }

// New creates an empty table. Duplicate names keep the first occurrence.
func New(cols ...Column) *Table {
	t := &Table{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			continue
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, c.Name)
		t.kinds = append(t.kinds, c.Kind)
	}
	return t
}

// Message builds the one-row placeholder returned when a metric cannot run.
func Message(msg string) *Table {
	t := New(Col("message", KindString))
	t.Append(Str(msg))
	return t
}

// Append adds a row. It panics when the arity does not match the columns.
func (t *Table) Append(vals ...Value) {
	if len(vals) != len(t.cols) {
		panic(fmt.Sprintf("table: append %d values to %d columns", len(vals), len(t.cols)))
	}
	row := make([]Value, len(vals))
	copy(row, vals)
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int { return len(t.rows) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// HasAll reports whether every named column exists.
func (t *Table) HasAll(cols ...string) bool {
	for _, c := range cols {
		if !t.Has(c) {
			return false
		}
	}
	return true
}

// Present filters names down to the columns that exist, keeping order.
func (t *Table) Present(cols ...string) []string {
	var out []string
	for _, c := range cols {
		if t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Kind returns the column kind, KindString for absent columns.
func (t *Table) Kind(col string) Kind {
	if j, ok := t.index[col]; ok {
		return t.kinds[j]
	}
	return KindString
}

// Value returns the cell at row i, or a null when the column is absent.
func (t *Table) Value(i int, col string) Value {
	j, ok := t.index[col]
	if !ok {
		return Null(KindString)
	}
	return t.rows[i][j]
}

// Row returns a read-only view of row i.
func (t *Table) Row(i int) Record { return Record{t: t, i: i} }

// Values returns a column as a slice. Absent columns produce nulls.
func (t *Table) Values(col string) []Value {
	out := make([]Value, len(t.rows))
	for i := range t.rows {
		out[i] = t.Value(i, col)
	}
	return out
}

// Floats returns a column's numeric content with nulls as 0.
func (t *Table) Floats(col string) []float64 {
	out := make([]float64, len(t.rows))
	for i := range t.rows {
		out[i] = t.Value(i, col).Float()
	}
	return out
}

// Sum adds a numeric column; absent columns sum to 0.
func (t *Table) Sum(col string) float64 {
	var s float64
	for i := range t.rows {
		s += t.Value(i, col).Float()
	}
	return s
}

// Distinct returns the non-null values of col in first-seen order.
func (t *Table) Distinct(col string) []Value {
	seen := map[string]struct{}{}
	var out []Value
	for i := range t.rows {
		v := t.Value(i, col)
		if v.IsNull() {
			continue
		}
		k := v.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Scalars returns the summary numbers attached to the table.
func (t *Table) Scalars() []Scalar {
	out := make([]Scalar, len(t.scalars))
	copy(out, t.scalars)
	return out
}

// Scalar looks up a summary number by name.
func (t *Table) Scalar(name string) (float64, bool) {
	for _, s := range t.scalars {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

// WithScalar returns a view carrying an extra (or replaced) summary number.
func (t *Table) WithScalar(name string, v float64) *Table {
	out := t.view(t.rows)
	for i, s := range out.scalars {
		if s.Name == name {
			out.scalars[i].Value = v
			return out
		}
	}
	out.scalars = append(out.scalars, Scalar{Name: name, Value: v})
	return out
}

func (t *Table) view(rows [][]Value) *Table {
	return &Table{
		cols:    t.cols,
		kinds:   t.kinds,
		index:   t.index,
		rows:    rows,
		scalars: append([]Scalar(nil), t.scalars...),
	}
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(Record) bool) *Table {
	rows := make([][]Value, 0, len(t.rows))
	for i, r := range t.rows {
		if keep(Record{t: t, i: i}) {
			rows = append(rows, r)
		}
	}
	return t.view(rows)
}

// Head keeps the first n rows; n <= 0 keeps everything.
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= len(t.rows) {
		return t.view(t.rows)
	}
	return t.view(t.rows[:n:n])
}

// SortFunc returns a stably sorted view.
func (t *Table) SortFunc(less func(a, b Record) bool) *Table {
	idx := make([]int, len(t.rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return less(Record{t: t, i: idx[a]}, Record{t: t, i: idx[b]})
	})
	rows := make([][]Value, len(idx))
	for i, j := range idx {
		rows[i] = t.rows[j]
	}
	return t.view(rows)
}

// SortKey is one column of a multi-column ordering.
type SortKey struct {
	Col  string
	Desc bool
}

// Asc and Desc build sort keys.
func Asc(col string) SortKey  { return SortKey{Col: col} }
func Desc(col string) SortKey { return SortKey{Col: col, Desc: true} }

// SortBy orders rows by the given keys. Nulls sort last in either direction.
func (t *Table) SortBy(keys ...SortKey) *Table {
	return t.SortFunc(func(a, b Record) bool {
		for _, k := range keys {
			av, bv := a.Get(k.Col), b.Get(k.Col)
			if av.IsNull() != bv.IsNull() {
				return bv.IsNull()
			}
			c := Compare(av, bv)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// WithColumn returns a copy with column name computed per row. An existing
// column of that name is replaced in place.
func (t *Table) WithColumn(name string, kind Kind, fn func(Record) Value) *Table {
	j, exists := t.index[name]
	out := &Table{scalars: append([]Scalar(nil), t.scalars...)}
	if exists {
		out.cols, out.index = t.cols, t.index
		out.kinds = append([]Kind(nil), t.kinds...)
		out.kinds[j] = kind
	} else {
		out.cols = append(append([]string(nil), t.cols...), name)
		out.kinds = append(append([]Kind(nil), t.kinds...), kind)
		out.index = make(map[string]int, len(out.cols))
		for i, c := range out.cols {
			out.index[c] = i
		}
		j = len(out.cols) - 1
	}
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		row := make([]Value, len(out.cols))
		copy(row, r)
		row[j] = fn(Record{t: t, i: i})
		out.rows[i] = row
	}
	return out
}

// Rename maps column names. Unknown sources and names that would collide
// with an existing column are ignored.
func (t *Table) Rename(mapping map[string]string) *Table {
	cols := append([]string(nil), t.cols...)
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	for i, c := range t.cols {
		to, ok := mapping[c]
		if !ok || to == c {
			continue
		}
		if _, taken := index[to]; taken {
			continue
		}
		delete(index, c)
		index[to] = i
		cols[i] = to
	}
	out := t.view(t.rows)
	out.cols, out.index = cols, index
	return out
}

// Select projects onto the named columns, skipping absent ones.
func (t *Table) Select(cols ...string) *Table {
	present := t.Present(cols...)
	specs := make([]Column, len(present))
	idx := make([]int, len(present))
	for i, c := range present {
		idx[i] = t.index[c]
		specs[i] = Col(c, t.kinds[idx[i]])
	}
	out := New(specs...)
	out.scalars = append([]Scalar(nil), t.scalars...)
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		row := make([]Value, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		out.rows[i] = row
	}
	return out
}

// Record is a read-only row handle.
type Record struct {
	t *Table
	i int
}

// Get returns the cell for col, or a null when the column is absent.
func (r Record) Get(col string) Value { return r.t.Value(r.i, col) }

// Index is the row position in the owning table.
func (r Record) Index() int { return r.i }

// Map exposes the row as plain Go values keyed by column name.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.t.cols))
	for j, c := range r.t.cols {
		m[c] = r.t.rows[r.i][j].Raw()
	}
	return m
}
