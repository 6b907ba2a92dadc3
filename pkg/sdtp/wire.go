package sdtp

import (
	"encoding/json"
)

// Filter operators as they appear in the "operator" field of a filter document.
const (
	OpAnd = "AND"
	OpOr  = "OR"
	OpNot = "NOT"

	OpEqual        = "EQ"
	OpNotEqual     = "NE"
	OpLess         = "LT"
	OpLessEqual    = "LE"
	OpGreater      = "GT"
	OpGreaterEqual = "GE"
	OpIn           = "IN"
	OpBetween      = "BETWEEN"
	OpRegex        = "REGEX"
	OpIsNull       = "ISNULL"
	OpNotNull      = "NOTNULL"
)

// Request is the body of a get_filtered_rows call.
//
// Filter is kept raw so that the server can parse it into its own, validated representation.
type Request struct {
	Table   string          `json:"table"`
	Filter  json.RawMessage `json:"filter,omitempty"`
	Columns []string        `json:"columns,omitempty"`
}

// Response is the successful answer to a Request.
type Response struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ErrorResponse is the body sent for every failed request.
type ErrorResponse struct {
	ErrorKind Kind   `json:"error_kind"`
	Message   string `json:"message"`
	Path      string `json:"path,omitempty"`
}

// RangeSpec holds the smallest and largest value of a column.
type RangeSpec struct {
	MinVal any `json:"min_val"`
	MaxVal any `json:"max_val"`
}

// FilterSpec is the wire form of a filter document, used by clients to build requests.
//
// Leaves set Column and, depending on the operator, Value. Combinators set Arguments.
type FilterSpec struct {
	Operator  string        `json:"operator"`
	Column    string        `json:"column,omitempty"`
	Value     any           `json:"value,omitempty"`
	Arguments []*FilterSpec `json:"arguments,omitempty"`
}

// And builds an AND combinator.
func And(args ...*FilterSpec) *FilterSpec {
	return &FilterSpec{Operator: OpAnd, Arguments: args}
}

// Or builds an OR combinator.
func Or(args ...*FilterSpec) *FilterSpec {
	return &FilterSpec{Operator: OpOr, Arguments: args}
}

// Not builds a NOT combinator.
func Not(arg *FilterSpec) *FilterSpec {
	return &FilterSpec{Operator: OpNot, Arguments: []*FilterSpec{arg}}
}

// Leaf builds a comparison on column.
func Leaf(operator, column string, value any) *FilterSpec {
	return &FilterSpec{Operator: operator, Column: column, Value: value}
}
