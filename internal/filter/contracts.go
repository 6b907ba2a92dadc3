package filter

import (
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
)

// Filterable is implemented by everything a filter can be evaluated against.
type Filterable interface {
	// Lookup returns the value stored for column. ok is false if there is no such column.
	Lookup(column string) (v value.Value, ok bool)
}

// Rule is implemented by every filter chain and filter condition of a validated filter.
type Rule interface {
	Eval(filterable Filterable) bool

	// Spec renders the rule back to its wire form.
	Spec() *sdtp.FilterSpec

	// ExtractConditions returns every Condition of the rule in document order.
	ExtractConditions() []*Condition
}

// RowView lets a positional row be evaluated by column name.
type RowView struct {
	Row   value.Row
	Index map[string]int
}

func (r RowView) Lookup(column string) (value.Value, bool) {
	i, ok := r.Index[column]
	if !ok || i >= len(r.Row) {
		return value.Null, false
	}

	return r.Row[i], true
}
