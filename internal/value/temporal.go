package value

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The accepted textual forms of temporal values. Anything else fails to parse.
var (
	dateRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	clockRe    = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(?:\.(\d{1,9}))?$`)
	dateTimeRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ](\d{2}:\d{2}:\d{2}(?:\.\d{1,9})?)(Z|[+-]\d{2}:\d{2})?$`)
)

const day = 24 * time.Hour

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%q is not a date of the form YYYY-MM-DD", s)
	}

	y, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	if y < 1 || mon < 1 || mon > 12 || d < 1 {
		return time.Time{}, fmt.Errorf("%q is not a valid calendar date", s)
	}

	t := time.Date(y, time.Month(mon), d, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(mon) || t.Day() != d {
		// time.Date normalizes overflowing days, e.g. Feb 30 becomes Mar 2.
		return time.Time{}, fmt.Errorf("%q is not a valid calendar date", s)
	}

	return t, nil
}

// ParseClock parses HH:MM:SS with an optional fraction of up to nine digits and
// returns the offset since midnight.
func ParseClock(s string) (time.Duration, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%q is not a time of the form HH:MM:SS[.fraction]", s)
	}

	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	if h > 23 || mi > 59 || sec > 59 {
		return 0, fmt.Errorf("%q is not a valid time of day", s)
	}

	var nanos int
	if m[4] != "" {
		nanos, _ = strconv.Atoi(m[4] + strings.Repeat("0", 9-len(m[4])))
	}

	return time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second +
		time.Duration(nanos), nil
}

// ParseDateTime parses a date and a time joined by "T" or a single space,
// optionally followed by "Z" or a ±HH:MM offset. zoned reports whether an offset was given.
func ParseDateTime(s string) (t time.Time, zoned bool, err error) {
	m := dateTimeRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false, fmt.Errorf("%q is not a datetime of the form YYYY-MM-DDTHH:MM:SS[.fraction][offset]", s)
	}

	date, err := ParseDate(m[1])
	if err != nil {
		return time.Time{}, false, err
	}
	clock, err := ParseClock(m[2])
	if err != nil {
		return time.Time{}, false, err
	}

	loc := time.UTC
	switch offset := m[3]; {
	case offset == "":
	case offset == "Z":
		zoned = true
	default:
		zoned = true
		oh, _ := strconv.Atoi(offset[1:3])
		om, _ := strconv.Atoi(offset[4:6])
		if oh > 23 || om > 59 {
			return time.Time{}, false, fmt.Errorf("%q has an invalid UTC offset", s)
		}

		seconds := oh*3600 + om*60
		if offset[0] == '-' {
			seconds = -seconds
		}
		if seconds != 0 {
			loc = time.FixedZone("", seconds)
		}
	}

	y, mon, d := date.Date()
	return time.Date(y, mon, d, 0, 0, 0, 0, loc).Add(clock), zoned, nil
}

// FormatDate renders t's date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatClock renders an offset since midnight as HH:MM:SS, followed by the
// fraction without trailing zeros if there is one.
func FormatClock(d time.Duration) string {
	d = ((d % day) + day) % day

	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	nanos := d % time.Second

	out := fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	if nanos > 0 {
		out += "." + strings.TrimRight(fmt.Sprintf("%09d", int64(nanos)), "0")
	}

	return out
}

// FormatDateTime renders t as YYYY-MM-DDTHH:MM:SS[.fraction], adding t's UTC offset
// when zoned is set. A zero offset is written as "Z".
func FormatDateTime(t time.Time, zoned bool) string {
	h, m, s := t.Clock()
	clock := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())

	out := FormatDate(t) + "T" + FormatClock(clock)
	if !zoned {
		return out
	}

	_, offset := t.Zone()
	if offset == 0 {
		return out + "Z"
	}

	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}

	return fmt.Sprintf("%s%c%02d:%02d", out, sign, offset/3600, (offset%3600)/60)
}
