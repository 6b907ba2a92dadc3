package value

import (
	"fmt"
	"time"

	"github.com/engagelively/sdtp/pkg/sdtp"
)

// Value is a single cell of a table.
//
// Only the field matching the type is meaningful. The zero Value is Null, the
// absent sentinel, which is distinct from every valid value of every type.
type Value struct {
	typ sdtp.Type

	s string        // TypeString
	f float64       // TypeNumber
	b bool          // TypeBoolean
	t time.Time     // TypeDate, TypeDateTime
	d time.Duration // TypeTimeOfDay, since midnight
	a any           // TypeAny

	// zoned is set for datetimes that were given with an explicit offset.
	zoned bool
}

// Row is one record of a table, one Value per column.
type Row []Value

// Null is the absent value.
var Null = Value{}

func String(s string) Value { return Value{typ: sdtp.TypeString, s: s} }

func Number(f float64) Value { return Value{typ: sdtp.TypeNumber, f: f} }

func Bool(b bool) Value { return Value{typ: sdtp.TypeBoolean, b: b} }

// Date returns the calendar date of t. The clock part and location of t are dropped.
// Dates before year 1 or after year 9999 are clamped to that range.
func Date(t time.Time) Value {
	y, m, d := clampYear(t).Date()
	return Value{typ: sdtp.TypeDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// TimeOfDay returns the time of day offset since midnight. It must lie within [0, 24h).
func TimeOfDay(since time.Duration) Value {
	return Value{typ: sdtp.TypeTimeOfDay, d: since}
}

// Clock returns the time of day read off t's wall clock.
func Clock(t time.Time) Value {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond()))
}

// DateTime returns an instant that is serialized with t's UTC offset. Offsets that are no whole
// number of minutes below 24 hours cannot be written, such instants are kept in UTC instead.
// Years outside 1 to 9999 are clamped like in Date.
func DateTime(t time.Time) Value {
	if _, offset := t.Zone(); offset%60 != 0 || offset <= -24*3600 || offset >= 24*3600 {
		t = t.UTC()
	}

	return Value{typ: sdtp.TypeDateTime, t: clampYear(t), zoned: true}
}

// LocalDateTime returns a datetime without offset. Its wall clock is read in UTC.
// Years outside 1 to 9999 are clamped like in Date.
func LocalDateTime(t time.Time) Value {
	t = clampYear(t)
	return Value{typ: sdtp.TypeDateTime, t: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(),
		t.Second(), t.Nanosecond(), time.UTC)}
}

// clampYear moves t into the years 1 to 9999 of its location, the range of YYYY.
func clampYear(t time.Time) time.Time {
	switch y := t.Year(); {
	case y < 1:
		return time.Date(1, time.January, 1, 0, 0, 0, 0, t.Location())
	case y > 9999:
		return time.Date(9999, time.December, 31, 23, 59, 59, 999999999, t.Location())
	default:
		return t
	}
}

// Any wraps an opaque value. A nil v yields Null.
func Any(v any) Value {
	if v == nil {
		return Null
	}

	return Value{typ: sdtp.TypeAny, a: v}
}

// Type returns the type of v, or 0 for Null.
func (v Value) Type() sdtp.Type { return v.typ }

// IsNull reports whether v is the absent sentinel.
func (v Value) IsNull() bool { return v.typ == 0 }

// Str returns the string of a TypeString value.
func (v Value) Str() string { return v.s }

// Float returns the number of a TypeNumber value.
func (v Value) Float() float64 { return v.f }

// Boolean returns the truth value of a TypeBoolean value.
func (v Value) Boolean() bool { return v.b }

// Time returns the instant of a TypeDate or TypeDateTime value.
func (v Value) Time() time.Time { return v.t }

// SinceMidnight returns the offset of a TypeTimeOfDay value.
func (v Value) SinceMidnight() time.Duration { return v.d }

// Interface returns the native Go representation of v.
func (v Value) Interface() any {
	switch v.typ {
	case sdtp.TypeString:
		return v.s
	case sdtp.TypeNumber:
		return v.f
	case sdtp.TypeBoolean:
		return v.b
	case sdtp.TypeDate, sdtp.TypeDateTime:
		return v.t
	case sdtp.TypeTimeOfDay:
		return v.d
	case sdtp.TypeAny:
		return v.a
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.IsNull() {
		return "null"
	}
	if v.typ == sdtp.TypeString {
		return fmt.Sprintf("%q", v.s)
	}

	return fmt.Sprint(Serialize(v))
}
