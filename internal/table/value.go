package table

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the logical type of a column.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInt
	KindTime
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindInt:
		return "int"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

const (
	timeLayout = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
)

// Value is a single nullable cell.
type Value struct {
	kind  Kind
	valid bool
	s     string
	f     float64
	i     int64
	t     time.Time
}

// Null returns a missing value of the given kind.
func Null(k Kind) Value { return Value{kind: k} }

func Str(s string) Value { return Value{kind: KindString, valid: true, s: s} }

func Num(f float64) Value { return Value{kind: KindNumber, valid: true, f: f} }

func Int(i int64) Value { return Value{kind: KindInt, valid: true, i: i} }

func Time(t time.Time) Value { return Value{kind: KindTime, valid: true, t: t} }

// Date truncates t to midnight in its own location.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, valid: true, t: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return !v.valid }

// String renders the value for display and export. Null renders as "".
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindTime:
		return v.t.Format(timeLayout)
	case KindDate:
		return v.t.Format(dateLayout)
	default:
		return v.s
	}
}

// Float returns the numeric content; null and non-numeric values are 0.
func (v Value) Float() float64 {
	if !v.valid {
		return 0
	}
	switch v.kind {
	case KindNumber:
		return v.f
	case KindInt:
		return float64(v.i)
	}
	return 0
}

func (v Value) Int() int64 {
	if !v.valid {
		return 0
	}
	switch v.kind {
	case KindInt:
		return v.i
	case KindNumber:
		return int64(v.f)
	}
	return 0
}

func (v Value) Time() time.Time {
	if !v.valid {
		return time.Time{}
	}
	return v.t
}

// Raw exposes the value as a plain Go value (nil when null).
func (v Value) Raw() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindNumber:
		return v.f
	case KindInt:
		return v.i
	case KindTime, KindDate:
		return v.t
	default:
		return v.s
	}
}

// Equal reports whether both values are null or render identically
// under a comparable kind.
func (v Value) Equal(o Value) bool {
	if !v.valid || !o.valid {
		return !v.valid && !o.valid
	}
	return Compare(v, o) == 0
}

func (v Value) numeric() bool { return v.kind == KindNumber || v.kind == KindInt }
func (v Value) temporal() bool { return v.kind == KindTime || v.kind == KindDate }

// Compare orders values with nulls last. Numbers compare numerically, times
// chronologically and everything else lexically on String().
func Compare(a, b Value) int {
	switch {
	case !a.valid && !b.valid:
		return 0
	case !a.valid:
		return 1
	case !b.valid:
		return -1
	}
	switch {
	case a.numeric() && b.numeric():
		af, bf := a.Float(), b.Float()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case a.temporal() && b.temporal():
		return a.t.Compare(b.t)
	}
	return strings.Compare(a.String(), b.String())
}

// key is the grouping identity of a value.
func (v Value) key() string {
	if !v.valid {
		return "\x00"
	}
	switch {
	case v.numeric():
		return "n" + strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case v.temporal():
		return "t" + strconv.FormatInt(v.t.UnixNano(), 10)
	}
	return "s" + v.s
}

// GroupKey joins the grouping identities of several values.
func GroupKey(vals []Value) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(v.key())
	}
	return b.String()
}
