package sdtp

import (
	"fmt"
)

// Type is the declared type of a table column.
type Type int

const (
	TypeString Type = 1 + iota
	TypeNumber
	TypeBoolean
	TypeDate
	TypeTimeOfDay
	TypeDateTime
	// TypeAny is the passthrough type. Its values are carried to the wire untouched.
	TypeAny
)

var typeByName = map[string]Type{
	"string":    TypeString,
	"number":    TypeNumber,
	"boolean":   TypeBoolean,
	"date":      TypeDate,
	"timeofday": TypeTimeOfDay,
	"datetime":  TypeDateTime,
	"any":       TypeAny,
}

var typeToName = func() map[Type]string {
	m := make(map[Type]string)
	for name, t := range typeByName {
		m[t] = name
	}
	return m
}()

// ParseType returns the Type with the given wire name.
func ParseType(name string) (Type, error) {
	t, ok := typeByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown column type %q", name)
	}

	return t, nil
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	_, ok := typeToName[t]
	return ok
}

// Temporal reports whether values of t are dates, times or datetimes.
func (t Type) Temporal() bool {
	return t == TypeDate || t == TypeTimeOfDay || t == TypeDateTime
}

func (t Type) String() string {
	if name, ok := typeToName[t]; ok {
		return name
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	name, ok := typeToName[t]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid column type %d", int(t))
	}

	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}

// Column describes one named, typed field of a table.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
}
