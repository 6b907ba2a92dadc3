package filter

import (
	"encoding/json"
	"regexp"

	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
)

// Validate checks spec against the schema of a table and compiles it into a Filter.
//
// Operand literals are converted to the column type once, so that evaluation never has
// to convert or check anything. The first failure wins, children are checked in order.
func Validate(spec Spec, schema []sdtp.Column) (*Filter, error) {
	f := &Filter{index: make(map[string]int, len(schema))}
	byName := make(map[string]sdtp.Column, len(schema))
	for i, col := range schema {
		if _, ok := f.index[col.Name]; !ok {
			f.index[col.Name] = i
			byName[col.Name] = col
		}
	}

	rule, err := validateNode(spec, "", byName)
	if err != nil {
		return nil, err
	}

	f.rule = rule
	return f, nil
}

// Compile parses and validates a raw JSON filter document.
func Compile(raw json.RawMessage, schema []sdtp.Column) (*Filter, error) {
	spec, err := ParseJSON(raw)
	if err != nil {
		return nil, err
	}

	return Validate(spec, schema)
}

func validateNode(spec Spec, path string, byName map[string]sdtp.Column) (Rule, error) {
	switch s := spec.(type) {
	case *Combinator:
		return validateCombinator(s, path, byName)
	case *Leaf:
		return validateLeaf(s, path, byName)
	default:
		return nil, sdtp.SpecErrorf(path, "unsupported filter node %T", spec)
	}
}

func validateCombinator(c *Combinator, path string, byName map[string]sdtp.Column) (Rule, error) {
	switch LogicalOp(c.Operator) {
	case All, Any:
		if len(c.Arguments) == 0 {
			return nil, sdtp.SpecErrorf(path, "%s needs at least one argument", c.Operator)
		}
	case None:
		if len(c.Arguments) != 1 {
			return nil, sdtp.SpecErrorf(path, "%s needs exactly one argument, got %d", c.Operator, len(c.Arguments))
		}
	default:
		return nil, sdtp.SpecErrorf(path, "unknown logical operator %q", c.Operator)
	}

	chain := &Chain{op: LogicalOp(c.Operator), rules: make([]Rule, 0, len(c.Arguments))}
	for i, arg := range c.Arguments {
		rule, err := validateNode(arg, childPath(path, c.Operator, i), byName)
		if err != nil {
			return nil, err
		}

		chain.rules = append(chain.rules, rule)
	}

	return chain, nil
}

func validateLeaf(l *Leaf, path string, byName map[string]sdtp.Column) (Rule, error) {
	leafPath := joinPath(path, l.Column)

	col, ok := byName[l.Column]
	if !ok {
		return nil, sdtp.SchemaErrorf(leafPath, "unknown column %q", l.Column)
	}

	switch l.Operator {
	case sdtp.OpIsNull, sdtp.OpNotNull:
		if l.HasOperand {
			return nil, sdtp.SpecErrorf(path, "%s takes no value", l.Operator)
		}

		return &Exists{column: col.Name, null: l.Operator == sdtp.OpIsNull}, nil
	}

	if !l.HasOperand {
		return nil, sdtp.SpecErrorf(path, "%s needs a value", l.Operator)
	}
	if col.Type == sdtp.TypeAny {
		return nil, sdtp.TypeErrorf(leafPath, "column %q of type %s only supports %s and %s",
			col.Name, col.Type, sdtp.OpIsNull, sdtp.OpNotNull)
	}

	c := &Condition{op: CompOperator(l.Operator), column: col.Name}
	switch c.op {
	case Like:
		if col.Type != sdtp.TypeString {
			return nil, sdtp.TypeErrorf(leafPath, "%s needs a %s column, %q is a %s column",
				l.Operator, sdtp.TypeString, col.Name, col.Type)
		}

		pattern, ok := l.Operand.(string)
		if !ok {
			return nil, sdtp.TypeErrorf(leafPath, "%s pattern must be a string", l.Operator)
		}

		// The pattern must parse on its own, or a stray parenthesis could escape the anchors.
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, sdtp.TypeErrorf(leafPath, "invalid pattern %q: %s", pattern, err)
		}

		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, sdtp.TypeErrorf(leafPath, "invalid pattern %q: %s", pattern, err)
		}

		c.pattern = pattern
		c.regex = re
	case In:
		members, ok := l.Operand.([]any)
		if !ok || len(members) == 0 {
			return nil, sdtp.SpecErrorf(path, "%s needs a non-empty array of values", l.Operator)
		}

		for _, m := range members {
			v, err := literal(m, col, leafPath)
			if err != nil {
				return nil, err
			}

			if !contains(c.values, v) {
				c.values = append(c.values, v)
			}
		}
	case Between:
		bounds, ok := l.Operand.([]any)
		if !ok || len(bounds) != 2 {
			return nil, sdtp.SpecErrorf(path, "%s needs an array of exactly two values", l.Operator)
		}

		low, err := literal(bounds[0], col, leafPath)
		if err != nil {
			return nil, err
		}
		high, err := literal(bounds[1], col, leafPath)
		if err != nil {
			return nil, err
		}

		if cmp, _ := value.Compare(low, high); cmp > 0 {
			low, high = high, low
		}

		c.values = []value.Value{low, high}
	case Equal, UnEqual, LessThan, LessThanEqual, GreaterThan, GreaterThanEqual:
		v, err := literal(l.Operand, col, leafPath)
		if err != nil {
			return nil, err
		}

		c.values = []value.Value{v}
	default:
		return nil, sdtp.SpecErrorf(path, "unknown comparison operator %q", l.Operator)
	}

	return c, nil
}

// literal converts an operand to the type of col without any default.
func literal(lit any, col sdtp.Column, path string) (value.Value, error) {
	if lit == nil {
		return value.Null, sdtp.TypeErrorf(path, "null is not a valid %s literal, use %s or %s instead",
			col.Type, sdtp.OpIsNull, sdtp.OpNotNull)
	}

	v, err := value.Parse(lit, col.Type)
	if err != nil {
		return value.Null, sdtp.TypeErrorf(path, "%v is not a valid %s literal for column %q", lit, col.Type, col.Name)
	}

	return v, nil
}

func contains(values []value.Value, v value.Value) bool {
	for _, have := range values {
		if value.Equal(have, v) {
			return true
		}
	}

	return false
}
