package filter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/engagelively/sdtp/pkg/sdtp"
)

// Spec is an unvalidated filter tree, either a *Leaf or a *Combinator.
type Spec interface {
	// Op returns the operator of the node.
	Op() string

	isSpec()
}

// Leaf compares one column against its operand.
type Leaf struct {
	Operator string
	Column   string

	// Operand is the raw literal as decoded from the wire. HasOperand tells a missing
	// operand apart from an explicit null.
	Operand    any
	HasOperand bool
}

// Combinator joins its arguments with AND, OR or NOT.
type Combinator struct {
	Operator  string
	Arguments []Spec
}

func (l *Leaf) Op() string       { return l.Operator }
func (c *Combinator) Op() string { return c.Operator }

func (*Leaf) isSpec()       {}
func (*Combinator) isSpec() {}

var leafOperators = map[string]bool{
	sdtp.OpEqual:        true,
	sdtp.OpNotEqual:     true,
	sdtp.OpLess:         true,
	sdtp.OpLessEqual:    true,
	sdtp.OpGreater:      true,
	sdtp.OpGreaterEqual: true,
	sdtp.OpIn:           true,
	sdtp.OpBetween:      true,
	sdtp.OpRegex:        true,
	sdtp.OpIsNull:       true,
	sdtp.OpNotNull:      true,
}

var combinators = map[string]bool{
	sdtp.OpAnd: true,
	sdtp.OpOr:  true,
	sdtp.OpNot: true,
}

// Parse turns a decoded JSON document into a Spec tree.
//
// Only the shape of the document is checked here. Arity, columns and operand types are
// left to Validate. All errors are SpecErrors carrying the path of the offending node.
func Parse(doc any) (Spec, error) {
	return parseNode(doc, "")
}

// ParseJSON decodes raw and parses it into a Spec tree. Numbers are kept as json.Number.
func ParseJSON(raw []byte) (Spec, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, sdtp.SpecErrorf("", "filter is not valid JSON: %s", err)
	}
	if dec.More() {
		return nil, sdtp.SpecErrorf("", "filter contains trailing data")
	}

	return Parse(doc)
}

func parseNode(doc any, path string) (Spec, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, sdtp.SpecErrorf(path, "filter node must be an object, got %s", jsonKind(doc))
	}

	rawOp, ok := obj["operator"]
	if !ok {
		return nil, sdtp.SpecErrorf(path, "filter node has no operator")
	}
	op, ok := rawOp.(string)
	if !ok {
		return nil, sdtp.SpecErrorf(path, "operator must be a string, got %s", jsonKind(rawOp))
	}

	switch {
	case combinators[op]:
		rawArgs, ok := obj["arguments"]
		if !ok {
			return nil, sdtp.SpecErrorf(path, "%s needs an arguments array", op)
		}
		args, ok := rawArgs.([]any)
		if !ok {
			return nil, sdtp.SpecErrorf(path, "arguments of %s must be an array, got %s", op, jsonKind(rawArgs))
		}

		c := &Combinator{Operator: op, Arguments: make([]Spec, 0, len(args))}
		for i, arg := range args {
			child, err := parseNode(arg, childPath(path, op, i))
			if err != nil {
				return nil, err
			}

			c.Arguments = append(c.Arguments, child)
		}

		return c, nil
	case leafOperators[op]:
		rawColumn, ok := obj["column"]
		if !ok {
			return nil, sdtp.SpecErrorf(path, "%s needs a column", op)
		}
		column, ok := rawColumn.(string)
		if !ok {
			return nil, sdtp.SpecErrorf(path, "column must be a string, got %s", jsonKind(rawColumn))
		}

		operand, has := obj["value"]

		return &Leaf{Operator: op, Column: column, Operand: operand, HasOperand: has}, nil
	default:
		return nil, sdtp.SpecErrorf(path, "unknown operator %q", op)
	}
}

// childPath returns the path of the i-th argument of an op node found at path.
func childPath(path, op string, i int) string {
	return joinPath(path, fmt.Sprintf("%s[%d]", op, i))
}

func joinPath(path, segment string) string {
	if path == "" {
		return segment
	}

	return path + "." + segment
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number, float64:
		return "a number"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
