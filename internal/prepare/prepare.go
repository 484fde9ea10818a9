// Package prepare turns a raw order-line export into the canonical table:
// source headers are mapped to canonical names, cells are coerced to typed
// values and the derived grouping columns are synthesized.
//
// Every step is idempotent. Preparing an already prepared table returns an
// equivalent table.
package prepare

import (
	"regexp"
	"strings"

	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"golang.org/x/text/unicode/norm"
)

// Options control preparation.
type Options struct {
	// ColumnMap maps source header names to canonical names.
	ColumnMap map[string]string
	// StatusMap rewrites order_status values (e.g. a localized cancel label to "canceled").
	StatusMap map[string]string
	// DecimalSeparator forces '.' or ','; zero auto-detects per cell.
	DecimalSeparator rune
}

// Prepare runs Standardize, Coerce and Derive.
func Prepare(raw *table.Table, opt Options) *table.Table {
	t := Standardize(raw, opt.ColumnMap)
	t = Coerce(t, opt.DecimalSeparator)
	t = MapStatus(t, opt.StatusMap)
	return Derive(t)
}

func foldHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// Standardize renames source columns to canonical names. Headers match
// case-insensitively after NFC normalization. A rename is skipped when the
// target already exists.
func Standardize(t *table.Table, mapping map[string]string) *table.Table {
	if len(mapping) == 0 {
		return t
	}
	folded := make(map[string]string, len(mapping))
	for src, dst := range mapping {
		folded[foldHeader(src)] = dst
	}
	renames := map[string]string{}
	for _, c := range t.Columns() {
		if dst, ok := folded[foldHeader(c)]; ok && dst != c {
			renames[c] = dst
		}
	}
	if len(renames) == 0 {
		return t
	}
	return t.Rename(renames)
}

// Coerce converts canonical columns to their logical kinds. Unparseable
// cells become null. Columns already of the right kind are left alone.
func Coerce(t *table.Table, decimal rune) *table.Table {
	if t.Has(OrderTimestamp) && t.Kind(OrderTimestamp) != table.KindTime {
		t = t.WithColumn(OrderTimestamp, table.KindTime, func(r table.Record) table.Value {
			v := r.Get(OrderTimestamp)
			if v.IsNull() {
				return table.Null(table.KindTime)
			}
			if v.Kind() == table.KindDate {
				return table.Time(v.Time())
			}
			ts, ok := parseTimestamp(v.String())
			if !ok {
				return table.Null(table.KindTime)
			}
			return table.Time(ts)
		})
	}
	for _, col := range NumericColumns {
		if !t.Has(col) || t.Kind(col) == table.KindNumber {
			continue
		}
		col := col
		t = t.WithColumn(col, table.KindNumber, func(r table.Record) table.Value {
			v := r.Get(col)
			switch {
			case v.IsNull():
				return table.Null(table.KindNumber)
			case v.Kind() == table.KindInt:
				return table.Num(v.Float())
			}
			f, ok := parseNumber(v.String(), decimal)
			if !ok {
				return table.Null(table.KindNumber)
			}
			return table.Num(f)
		})
	}
	for _, col := range CategoricalColumns {
		if !t.Has(col) || t.Kind(col) == table.KindString {
			continue
		}
		col := col
		t = t.WithColumn(col, table.KindString, func(r table.Record) table.Value {
			v := r.Get(col)
			if v.IsNull() {
				return table.Null(table.KindString)
			}
			return table.Str(v.String())
		})
	}
	return t
}

// MapStatus rewrites order_status values found in mapping.
func MapStatus(t *table.Table, mapping map[string]string) *table.Table {
	if len(mapping) == 0 || !t.Has(OrderStatus) {
		return t
	}
	changed := false
	for i := 0; i < t.Len() && !changed; i++ {
		_, changed = mapping[t.Value(i, OrderStatus).String()]
	}
	if !changed {
		return t
	}
	return t.WithColumn(OrderStatus, table.KindString, func(r table.Record) table.Value {
		v := r.Get(OrderStatus)
		if to, ok := mapping[v.String()]; ok && !v.IsNull() {
			return table.Str(to)
		}
		return v
	})
}

var nonDigit = regexp.MustCompile(`\D`)

// Derive adds the customer key, mid-category code and calendar buckets.
// Columns already present are kept as they are.
func Derive(t *table.Table) *table.Table {
	if !t.Has(CustomerKey) {
		t = t.WithColumn(CustomerKey, table.KindString, func(r table.Record) table.Value {
			return table.Str(customerKey(r.Get(BuyerName), r.Get(BuyerPhone)))
		})
	}
	if !t.Has(CategoryMidCode) {
		t = t.WithColumn(CategoryMidCode, table.KindString, func(r table.Record) table.Value {
			return table.Str(midCode(r.Get(CategoryCode)))
		})
	}
	hasTS := t.Has(OrderTimestamp)
	if !t.Has(OrderDate) {
		t = t.WithColumn(OrderDate, table.KindDate, func(r table.Record) table.Value {
			ts := r.Get(OrderTimestamp)
			if !hasTS || ts.IsNull() {
				return table.Null(table.KindDate)
			}
			return table.Date(ts.Time())
		})
	}
	if !t.Has(Weekday) {
		t = t.WithColumn(Weekday, table.KindString, func(r table.Record) table.Value {
			ts := r.Get(OrderTimestamp)
			if !hasTS || ts.IsNull() {
				return table.Null(table.KindString)
			}
			return table.Str(WeekdayLabels[WeekdayIndex(ts.Time().Weekday())])
		})
	}
	if !t.Has(HourOfDay) {
		t = t.WithColumn(HourOfDay, table.KindInt, func(r table.Record) table.Value {
			ts := r.Get(OrderTimestamp)
			if !hasTS || ts.IsNull() {
				return table.Null(table.KindInt)
			}
			return table.Int(int64(ts.Time().Hour()))
		})
	}
	return t
}

func customerKey(name, phone table.Value) string {
	n := strings.TrimSpace(name.String())
	if n == "" {
		n = "unknown"
	}
	return n + "_" + last4(phone)
}

func last4(phone table.Value) string {
	digits := nonDigit.ReplaceAllString(phone.String(), "")
	switch {
	case digits == "":
		return "XXXX"
	case len(digits) > 4:
		return digits[len(digits)-4:]
	}
	return digits
}

func midCode(code table.Value) string {
	s := strings.TrimSpace(code.String())
	s = strings.TrimSuffix(s, ".0")
	digits := nonDigit.ReplaceAllString(s, "")
	if digits == "" {
		return "00000"
	}
	if len(digits) > 5 {
		return digits[:5]
	}
	return digits
}
