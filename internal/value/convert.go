package value

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/engagelively/sdtp/pkg/sdtp"
)

// Default is an explicitly configured substitute for wire values that are missing or
// fail to parse. The zero Default means "no default".
type Default struct {
	wire any
	set  bool
}

// NoDefault disables substitution.
var NoDefault = Default{}

// DefaultOf returns a Default substituting the given wire value.
func DefaultOf(wire any) Default {
	return Default{wire: wire, set: true}
}

// IsSet reports whether d carries a substitute.
func (d Default) IsSet() bool { return d.set }

// Wire returns the configured wire value of d.
func (d Default) Wire() any { return d.wire }

// Check makes sure d yields a valid value of type t.
func (d Default) Check(t sdtp.Type) error {
	if !d.set {
		return nil
	}

	_, err := d.value(t)
	return err
}

func (d Default) value(t sdtp.Type) (Value, error) {
	if d.wire == nil {
		return Null, sdtp.ConversionErrorf("the default for a %s column must not be null", t)
	}

	v, err := Parse(d.wire, t)
	if err != nil {
		return Null, sdtp.ConversionErrorf("default %v is not a valid %s", d.wire, t)
	}

	return v, nil
}

// Parse strictly converts a wire value to a Value of type t.
// A nil wire value yields Null. Failures are ConversionErrors.
func Parse(wire any, t sdtp.Type) (Value, error) {
	if wire == nil {
		return Null, nil
	}
	if b, ok := wire.([]byte); ok {
		// SQL drivers hand out text columns as byte slices.
		wire = string(b)
	}

	var (
		v   Value
		err error
	)
	switch t {
	case sdtp.TypeString:
		s, ok := wire.(string)
		if !ok {
			return Null, mismatch(wire, t)
		}
		v = String(s)
	case sdtp.TypeNumber:
		v, err = parseNumber(wire)
	case sdtp.TypeBoolean:
		v, err = parseBoolean(wire)
	case sdtp.TypeDate:
		switch w := wire.(type) {
		case string:
			var d time.Time
			if d, err = ParseDate(w); err == nil {
				v = Date(d)
			}
		case time.Time:
			v = Date(w)
		default:
			return Null, mismatch(wire, t)
		}
	case sdtp.TypeTimeOfDay:
		switch w := wire.(type) {
		case string:
			var d time.Duration
			if d, err = ParseClock(w); err == nil {
				v = TimeOfDay(d)
			}
		case time.Time:
			v = Clock(w)
		default:
			return Null, mismatch(wire, t)
		}
	case sdtp.TypeDateTime:
		switch w := wire.(type) {
		case string:
			var (
				dt    time.Time
				zoned bool
			)
			if dt, zoned, err = ParseDateTime(w); err == nil {
				v = Value{typ: sdtp.TypeDateTime, t: dt, zoned: zoned}
			}
		case time.Time:
			v = DateTime(w)
		default:
			return Null, mismatch(wire, t)
		}
	case sdtp.TypeAny:
		v = Any(wire)
	default:
		return Null, sdtp.ConversionErrorf("unknown column type %s", t)
	}

	if err != nil {
		var e *sdtp.Error
		if errors.As(err, &e) {
			return Null, e
		}

		return Null, sdtp.ConversionErrorf("%s", err)
	}

	return v, nil
}

// Convert turns a wire value into a Value of type t, substituting def when the wire
// value is absent or fails to parse.
//
// Without a default, an absent wire value yields Null and an unparsable one fails with
// a ConversionError. With a default that itself is not a valid t, Convert always fails.
func Convert(wire any, t sdtp.Type, def Default) (Value, error) {
	if wire != nil {
		v, err := Parse(wire, t)
		if err == nil {
			return v, nil
		}
		if !def.set {
			return Null, err
		}

		dv, derr := def.value(t)
		if derr != nil {
			return Null, sdtp.ConversionErrorf("%s, and %s", sdtp.AsError(err).Message, sdtp.AsError(derr).Message)
		}

		return dv, nil
	}

	if !def.set {
		return Null, nil
	}

	return def.value(t)
}

// ConvertRow converts one wire row against the given columns.
// defaults is either nil or holds one Default per column.
func ConvertRow(wire []any, columns []sdtp.Column, defaults []Default) (Row, error) {
	if len(wire) != len(columns) {
		return nil, sdtp.ConversionErrorf("row has %d values, but the table has %d columns", len(wire), len(columns))
	}

	row := make(Row, len(wire))
	for i, w := range wire {
		def := NoDefault
		if defaults != nil {
			def = defaults[i]
		}

		v, err := Convert(w, columns[i].Type, def)
		if err != nil {
			e := sdtp.AsError(err)
			return nil, sdtp.ConversionErrorf("column %q: %s", columns[i].Name, e.Message)
		}

		row[i] = v
	}

	return row, nil
}

// Serialize returns the wire representation of v. Temporal values become strings of
// the same grammar Parse accepts, Null becomes nil.
func Serialize(v Value) any {
	switch v.typ {
	case sdtp.TypeString:
		return v.s
	case sdtp.TypeNumber:
		return v.f
	case sdtp.TypeBoolean:
		return v.b
	case sdtp.TypeDate:
		return FormatDate(v.t)
	case sdtp.TypeTimeOfDay:
		return FormatClock(v.d)
	case sdtp.TypeDateTime:
		return FormatDateTime(v.t, v.zoned)
	case sdtp.TypeAny:
		return v.a
	default:
		return nil
	}
}

// SerializeRow serializes every value of row.
func SerializeRow(row Row) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = Serialize(v)
	}

	return out
}

func parseNumber(wire any) (Value, error) {
	var f float64
	switch w := wire.(type) {
	case float64:
		f = w
	case float32:
		f = float64(w)
	case int:
		f = float64(w)
	case int8:
		f = float64(w)
	case int16:
		f = float64(w)
	case int32:
		f = float64(w)
	case int64:
		f = float64(w)
	case uint:
		f = float64(w)
	case uint8:
		f = float64(w)
	case uint16:
		f = float64(w)
	case uint32:
		f = float64(w)
	case uint64:
		f = float64(w)
	case json.Number:
		parsed, err := strconv.ParseFloat(string(w), 64)
		if err != nil {
			return Null, sdtp.ConversionErrorf("%q is not a number", string(w))
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return Null, sdtp.ConversionErrorf("%q is not a number", w)
		}
		f = parsed
	default:
		return Null, mismatch(wire, sdtp.TypeNumber)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null, sdtp.ConversionErrorf("%v is not a finite number", wire)
	}

	return Number(f), nil
}

func parseBoolean(wire any) (Value, error) {
	switch w := wire.(type) {
	case bool:
		return Bool(w), nil
	case string:
		switch w {
		case "true", "True", "t", "1":
			return Bool(true), nil
		case "false", "False", "f", "0":
			return Bool(false), nil
		}
	case json.Number:
		return parseBoolean(string(w))
	case int:
		return parseBoolean(strconv.Itoa(w))
	case int64:
		return parseBoolean(strconv.FormatInt(w, 10))
	case uint64:
		return parseBoolean(strconv.FormatUint(w, 10))
	case float64:
		switch w {
		case 0:
			return Bool(false), nil
		case 1:
			return Bool(true), nil
		}
	}

	return Null, sdtp.ConversionErrorf("%v is not a boolean", wire)
}

func mismatch(wire any, t sdtp.Type) error {
	return sdtp.ConversionErrorf("%v (%T) cannot be converted to %s", wire, wire, t)
}
