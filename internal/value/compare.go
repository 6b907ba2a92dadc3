package value

import (
	"strings"

	"github.com/engagelively/sdtp/pkg/sdtp"
)

// Compare orders a and b by the natural ordering of their type: bytewise for strings,
// numerically for numbers, false before true, and chronologically for dates, times
// and datetimes. ok is false when the two values cannot be ordered against each other,
// which is the case for Null, for values of different types and for TypeAny.
func Compare(a, b Value) (result int, ok bool) {
	if a.IsNull() || b.IsNull() || a.typ != b.typ {
		return 0, false
	}

	switch a.typ {
	case sdtp.TypeString:
		return strings.Compare(a.s, b.s), true
	case sdtp.TypeNumber:
		return compareOrdered(a.f, b.f), true
	case sdtp.TypeBoolean:
		switch {
		case a.b == b.b:
			return 0, true
		case b.b:
			return -1, true
		default:
			return 1, true
		}
	case sdtp.TypeDate, sdtp.TypeDateTime:
		return a.t.Compare(b.t), true
	case sdtp.TypeTimeOfDay:
		return compareOrdered(a.d, b.d), true
	default:
		return 0, false
	}
}

// Equal reports whether a and b are comparable and equal.
func Equal(a, b Value) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

// Less reports whether a sorts before b. Null sorts before everything else.
func Less(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && !b.IsNull()
	}

	c, ok := Compare(a, b)
	return ok && c < 0
}

func compareOrdered[T ~int64 | ~float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
