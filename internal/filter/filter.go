package filter

import (
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
)

// Filter is a filter validated against the schema of a table. It can only be obtained
// through Validate or Compile.
type Filter struct {
	rule  Rule
	index map[string]int
}

// Matches returns true if the given filterable object matches the rules of this filter.
func (f *Filter) Matches(filterable Filterable) bool {
	return f.rule.Eval(filterable)
}

// Spec renders f back to its wire form. BETWEEN bounds come out ordered and IN sets
// without duplicates.
func (f *Filter) Spec() *sdtp.FilterSpec {
	return f.rule.Spec()
}

// ColumnValues returns every distinct literal the filter compares column against,
// in document order. REGEX patterns are not included.
func (f *Filter) ColumnValues(column string) []value.Value {
	var values []value.Value
	for _, c := range f.rule.ExtractConditions() {
		if c.Column() != column {
			continue
		}

		for _, v := range c.Values() {
			if !contains(values, v) {
				values = append(values, v)
			}
		}
	}

	return values
}

// Evaluate reports whether row matches f. index maps column names to row positions.
// A nil filter matches every row.
func Evaluate(f *Filter, row value.Row, index map[string]int) bool {
	if f == nil {
		return true
	}

	return f.Matches(RowView{Row: row, Index: index})
}

// EvaluateTable returns the rows matching f in their original order.
// The rows must be laid out like the schema f was validated against.
func EvaluateTable(f *Filter, rows []value.Row) []value.Row {
	if f == nil {
		return rows
	}

	matched := make([]value.Row, 0, len(rows))
	for _, row := range rows {
		if Evaluate(f, row, f.index) {
			matched = append(matched, row)
		}
	}

	return matched
}
