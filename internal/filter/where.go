package filter

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

// Predicate is a closed set of row conditions: Eq, In, Range, And, Or, Not
// and RowFunc. Conditions on absent columns are ignored.
type Predicate interface {
	// prune drops conditions that refer to columns missing from t. A nil
	// result means the predicate does not apply.
	prune(t *table.Table) Predicate
	Match(r table.Record) bool
}

// Eq matches cells equal to Value.
type Eq struct {
	Col   string
	Value any
}

// In matches cells equal to any of Values.
type In struct {
	Col    string
	Values []any
}

// Range matches non-null cells within [Min, Max]. A nil bound is open.
type Range struct {
	Col      string
	Min, Max any
}

// Between is the inclusive range form used in map conditions.
type Between struct {
	Min, Max any
}

type And []Predicate

type Or []Predicate

type Not struct{ P Predicate }

// RowFunc is an arbitrary row condition.
type RowFunc func(table.Record) bool

func (p Eq) prune(t *table.Table) Predicate {
	if !t.Has(p.Col) {
		return nil
	}
	return p
}

func (p Eq) Match(r table.Record) bool { return r.Get(p.Col).Equal(ToValue(p.Value)) }

func (p In) prune(t *table.Table) Predicate {
	if !t.Has(p.Col) {
		return nil
	}
	return p
}

func (p In) Match(r table.Record) bool {
	v := r.Get(p.Col)
	for _, x := range p.Values {
		if v.Equal(ToValue(x)) {
			return true
		}
	}
	return false
}

func (p Range) prune(t *table.Table) Predicate {
	if !t.Has(p.Col) {
		return nil
	}
	return p
}

func (p Range) Match(r table.Record) bool {
	v := r.Get(p.Col)
	if v.IsNull() {
		return false
	}
	if p.Min != nil && table.Compare(v, ToValue(p.Min)) < 0 {
		return false
	}
	if p.Max != nil && table.Compare(v, ToValue(p.Max)) > 0 {
		return false
	}
	return true
}

func pruneAll(t *table.Table, ps []Predicate) []Predicate {
	var out []Predicate
	for _, p := range ps {
		if p == nil {
			continue
		}
		if q := p.prune(t); q != nil {
			out = append(out, q)
		}
	}
	return out
}

func (p And) prune(t *table.Table) Predicate {
	kept := pruneAll(t, p)
	if len(kept) == 0 {
		return nil
	}
	return And(kept)
}

func (p And) Match(r table.Record) bool {
	for _, q := range p {
		if !q.Match(r) {
			return false
		}
	}
	return true
}

func (p Or) prune(t *table.Table) Predicate {
	kept := pruneAll(t, p)
	if len(kept) == 0 {
		return nil
	}
	return Or(kept)
}

func (p Or) Match(r table.Record) bool {
	for _, q := range p {
		if q.Match(r) {
			return true
		}
	}
	return false
}

func (p Not) prune(t *table.Table) Predicate {
	if p.P == nil {
		return nil
	}
	inner := p.P.prune(t)
	if inner == nil {
		return nil
	}
	return Not{P: inner}
}

func (p Not) Match(r table.Record) bool { return !p.P.Match(r) }

func (f RowFunc) prune(*table.Table) Predicate { return f }

func (f RowFunc) Match(r table.Record) bool { return f(r) }

// Where filters t by cond:
//   - string: a CEL expression (empty passes everything)
//   - map[string]any: column to value, list of values or Between, AND-ed
//   - Predicate or func(table.Record) bool
//
// Any other type, including nil, passes t through unchanged.
func Where(t *table.Table, cond any) (*table.Table, error) {
	var p Predicate
	switch c := cond.(type) {
	case nil:
		return t, nil
	case string:
		if c == "" {
			return t, nil
		}
		return whereExpr(t, c)
	case map[string]any:
		p = FromMap(c)
	case Predicate:
		p = c
	case func(table.Record) bool:
		p = RowFunc(c)
	default:
		return t, nil
	}
	p = p.prune(t)
	if p == nil {
		return t, nil
	}
	return t.Filter(p.Match), nil
}

// FromMap converts a column map into an And of Eq, In and Range.
func FromMap(m map[string]any) And {
	var out And
	for col, v := range m {
		switch x := v.(type) {
		case Between:
			out = append(out, Range{Col: col, Min: x.Min, Max: x.Max})
		case []any:
			out = append(out, In{Col: col, Values: x})
		case []string:
			out = append(out, In{Col: col, Values: anySlice(x)})
		case []float64:
			out = append(out, In{Col: col, Values: anySlice(x)})
		case []int:
			out = append(out, In{Col: col, Values: anySlice(x)})
		default:
			out = append(out, Eq{Col: col, Value: v})
		}
	}
	return out
}

func anySlice[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// ToValue converts a plain Go value into a table value.
func ToValue(x any) table.Value {
	switch v := x.(type) {
	case nil:
		return table.Null(table.KindString)
	case table.Value:
		return v
	case string:
		return table.Str(v)
	case float64:
		return table.Num(v)
	case float32:
		return table.Num(float64(v))
	case int:
		return table.Int(int64(v))
	case int64:
		return table.Int(v)
	case int32:
		return table.Int(int64(v))
	case bool:
		return table.Str(fmt.Sprint(v))
	case time.Time:
		return table.Time(v)
	}
	return table.Str(fmt.Sprint(x))
}
