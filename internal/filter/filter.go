// Package filter narrows the canonical table by metric parameters and by
// ad hoc row conditions.
package filter

import (
	"log/slog"
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/samber/lo"
)

// Params is the shared filter set every metric accepts.
type Params struct {
	DateFrom *time.Time
	DateTo   *time.Time

	Channels   []string
	Sellers    []string
	Categories []string

	// TopN limits ranked output; zero means the metric's own default.
	TopN int
	// IncludeCanceled keeps rows whose order_status is "canceled".
	IncludeCanceled bool
	// Expr is an extra CEL condition applied after the standard steps.
	Expr string
}

// TopNOr returns p.TopN, or def when TopN is unset.
func (p Params) TopNOr(def int) int {
	if p.TopN > 0 {
		return p.TopN
	}
	return def
}

// HasWindow reports whether both date bounds are set.
func (p Params) HasWindow() bool { return p.DateFrom != nil && p.DateTo != nil }

// Apply runs date bounds, cancellation exclusion, allow-lists and Expr in
// that order. Steps whose column is absent are skipped.
func Apply(t *table.Table, p Params) *table.Table {
	t = ByDate(t, p.DateFrom, p.DateTo)
	if !p.IncludeCanceled {
		t = ExcludeCanceled(t)
	}
	t = ByAllowLists(t, p)
	return byExpr(t, p.Expr)
}

// ApplyKeepCanceled is Apply with canceled rows always kept.
func ApplyKeepCanceled(t *table.Table, p Params) *table.Table {
	p.IncludeCanceled = true
	return Apply(t, p)
}

// ByDate keeps rows with from <= order_timestamp <= to. Rows with a null
// timestamp are dropped once either bound is set.
func ByDate(t *table.Table, from, to *time.Time) *table.Table {
	if (from == nil && to == nil) || !t.Has(prepare.OrderTimestamp) {
		return t
	}
	return t.Filter(func(r table.Record) bool {
		v := r.Get(prepare.OrderTimestamp)
		if v.IsNull() {
			return false
		}
		ts := v.Time()
		if from != nil && ts.Before(*from) {
			return false
		}
		if to != nil && ts.After(*to) {
			return false
		}
		return true
	})
}

// ExcludeCanceled drops rows whose status is canceled. Null statuses stay.
func ExcludeCanceled(t *table.Table) *table.Table {
	if !t.Has(prepare.OrderStatus) {
		return t
	}
	return t.Filter(func(r table.Record) bool {
		return r.Get(prepare.OrderStatus).String() != prepare.StatusCanceled
	})
}

// ByAllowLists restricts channel, seller and category_code. Empty lists
// do not restrict and null cells never pass a non-empty list.
func ByAllowLists(t *table.Table, p Params) *table.Table {
	t = allow(t, prepare.Channel, p.Channels)
	t = allow(t, prepare.Seller, p.Sellers)
	return allow(t, prepare.CategoryCode, p.Categories)
}

func allow(t *table.Table, col string, values []string) *table.Table {
	values = lo.Compact(values)
	if len(values) == 0 || !t.Has(col) {
		return t
	}
	set := lo.SliceToMap(values, func(v string) (string, struct{}) { return v, struct{}{} })
	return t.Filter(func(r table.Record) bool {
		v := r.Get(col)
		if v.IsNull() {
			return false
		}
		_, ok := set[v.String()]
		return ok
	})
}

func byExpr(t *table.Table, expr string) *table.Table {
	if expr == "" {
		return t
	}
	out, err := Where(t, expr)
	if err != nil {
		// the shells validate expressions before running a metric
		slog.Warn("filter expression rejected", "expr", expr, "err", err)
		return t.Filter(func(table.Record) bool { return false })
	}
	return out
}

// PreviousWindow returns the parameters for the window of equal length that
// ends one second before DateFrom. Without both bounds it returns p and false
// and callers compare the current set against itself.
func PreviousWindow(p Params) (Params, bool) {
	if !p.HasWindow() {
		return p, false
	}
	period := p.DateTo.Sub(*p.DateFrom)
	from := p.DateFrom.Add(-period)
	to := p.DateFrom.Add(-time.Second)
	prev := p
	prev.DateFrom, prev.DateTo = &from, &to
	return prev, true
}
