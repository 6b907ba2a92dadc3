package filter

import (
	"regexp"

	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
)

// LogicalOp is a type used for grouping the logical operators of a filter.
type LogicalOp string

const (
	// None represents a filter chain type that matches when none of its ruleset matches.
	// With its single argument it is the NOT of the wire format.
	None LogicalOp = sdtp.OpNot
	// All represents a filter chain type that matches when all of its ruleset matches.
	All LogicalOp = sdtp.OpAnd
	// Any represents a filter chain type that matches when at least one of its ruleset matches.
	Any LogicalOp = sdtp.OpOr
)

// Chain is a filter type that wraps other filter rules and itself.
// Therefore, it implements the Rule interface to allow it to be part of its ruleset.
type Chain struct {
	op    LogicalOp // The filter chain operator to be used to evaluate the rules
	rules []Rule
}

// Eval evaluates the filter rule sets recursively based on their operator type.
// Rules are evaluated from left to right and evaluation stops as soon as the result is known.
func (c *Chain) Eval(filterable Filterable) bool {
	switch c.op {
	case None:
		for _, rule := range c.rules {
			if rule.Eval(filterable) {
				return false
			}
		}

		return true
	case All:
		for _, rule := range c.rules {
			if !rule.Eval(filterable) {
				return false
			}
		}

		return true
	case Any:
		for _, rule := range c.rules {
			if rule.Eval(filterable) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

func (c *Chain) Spec() *sdtp.FilterSpec {
	args := make([]*sdtp.FilterSpec, 0, len(c.rules))
	for _, rule := range c.rules {
		args = append(args, rule.Spec())
	}

	return &sdtp.FilterSpec{Operator: string(c.op), Arguments: args}
}

func (c *Chain) ExtractConditions() []*Condition {
	var conditions []*Condition
	for _, rule := range c.rules {
		conditions = append(conditions, rule.ExtractConditions()...)
	}

	return conditions
}

// Op returns the logical operator of this Chain.
func (c *Chain) Op() LogicalOp {
	return c.op
}

// CompOperator is a type used for grouping the individual comparison operators of a filter.
type CompOperator string

// List of the supported comparison operators.
const (
	Equal            CompOperator = sdtp.OpEqual
	UnEqual          CompOperator = sdtp.OpNotEqual
	LessThan         CompOperator = sdtp.OpLess
	LessThanEqual    CompOperator = sdtp.OpLessEqual
	GreaterThan      CompOperator = sdtp.OpGreater
	GreaterThanEqual CompOperator = sdtp.OpGreaterEqual
	In               CompOperator = sdtp.OpIn
	Between          CompOperator = sdtp.OpBetween
	Like             CompOperator = sdtp.OpRegex
)

// Condition represents a single filter condition.
// All it's fields are read-only and aren't supposed to change at runtime. For read access, you can
// check the available exported methods.
type Condition struct {
	op     CompOperator
	column string

	// values holds the operand of binary comparisons, the deduplicated IN set or the
	// ordered BETWEEN bounds.
	values []value.Value

	pattern string
	regex   *regexp.Regexp
}

// Eval evaluates this Condition based on its operator.
// Absent and missing column values never match.
func (c *Condition) Eval(filterable Filterable) bool {
	v, ok := filterable.Lookup(c.column)
	if !ok || v.IsNull() {
		return false
	}

	switch c.op {
	case Equal:
		return value.Equal(v, c.values[0])
	case UnEqual:
		cmp, ok := value.Compare(v, c.values[0])
		return ok && cmp != 0
	case LessThan:
		cmp, ok := value.Compare(v, c.values[0])
		return ok && cmp < 0
	case LessThanEqual:
		cmp, ok := value.Compare(v, c.values[0])
		return ok && cmp <= 0
	case GreaterThan:
		cmp, ok := value.Compare(v, c.values[0])
		return ok && cmp > 0
	case GreaterThanEqual:
		cmp, ok := value.Compare(v, c.values[0])
		return ok && cmp >= 0
	case In:
		for _, member := range c.values {
			if value.Equal(v, member) {
				return true
			}
		}

		return false
	case Between:
		low, ok := value.Compare(v, c.values[0])
		if !ok || low < 0 {
			return false
		}

		high, ok := value.Compare(v, c.values[1])
		return ok && high <= 0
	case Like:
		return v.Type() == sdtp.TypeString && c.regex.MatchString(v.Str())
	default:
		return false
	}
}

func (c *Condition) Spec() *sdtp.FilterSpec {
	spec := &sdtp.FilterSpec{Operator: string(c.op), Column: c.column}
	switch c.op {
	case Like:
		spec.Value = c.pattern
	case In, Between:
		values := make([]any, 0, len(c.values))
		for _, v := range c.values {
			values = append(values, value.Serialize(v))
		}
		spec.Value = values
	default:
		spec.Value = value.Serialize(c.values[0])
	}

	return spec
}

func (c *Condition) ExtractConditions() []*Condition {
	return []*Condition{c}
}

// Op returns the comparison operator of this Condition.
func (c *Condition) Op() CompOperator {
	return c.op
}

// Column returns the column of this Condition.
func (c *Condition) Column() string {
	return c.column
}

// Values returns the typed operands of this Condition. It is empty for REGEX.
func (c *Condition) Values() []value.Value {
	return c.values
}

// Exists checks a column for the absent value: ISNULL when null is set, NOTNULL otherwise.
type Exists struct {
	column string
	null   bool
}

func (e *Exists) Eval(filterable Filterable) bool {
	v, ok := filterable.Lookup(e.column)
	absent := !ok || v.IsNull()

	return absent == e.null
}

func (e *Exists) Spec() *sdtp.FilterSpec {
	if e.null {
		return &sdtp.FilterSpec{Operator: sdtp.OpIsNull, Column: e.column}
	}

	return &sdtp.FilterSpec{Operator: sdtp.OpNotNull, Column: e.column}
}

func (e *Exists) ExtractConditions() []*Condition {
	return nil
}

var (
	_ Rule = (*Chain)(nil)
	_ Rule = (*Exists)(nil)
	_ Rule = (*Condition)(nil)
)
