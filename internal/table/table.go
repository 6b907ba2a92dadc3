package table

import (
	"context"

	"github.com/engagelively/sdtp/internal/filter"
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
)

// Table is a named source of typed rows.
type Table interface {
	// Columns returns the schema of the table. It must not change during a request.
	Columns(ctx context.Context) ([]sdtp.Column, error)

	// GetRows returns the rows matching f in source order, narrowed and reordered to the
	// project columns. A nil f matches every row, a nil project keeps every column.
	// An unknown projected column is a SchemaError.
	GetRows(ctx context.Context, f *filter.Filter, project []string) ([]value.Row, error)
}

// Defaulter is implemented by tables that substitute defaults for values which do not
// match their column type when rows are sent over the wire.
type Defaulter interface {
	Defaults() map[string]value.Default
}

// Index maps the column names of schema to their positions.
func Index(schema []sdtp.Column) map[string]int {
	index := make(map[string]int, len(schema))
	for i, col := range schema {
		if _, ok := index[col.Name]; !ok {
			index[col.Name] = i
		}
	}

	return index
}

// Projection returns the columns and their positions in schema for the given names.
// A nil names selects every column of schema.
func Projection(schema []sdtp.Column, names []string) ([]sdtp.Column, []int, error) {
	if names == nil {
		positions := make([]int, len(schema))
		for i := range schema {
			positions[i] = i
		}

		return schema, positions, nil
	}

	index := Index(schema)
	columns := make([]sdtp.Column, 0, len(names))
	positions := make([]int, 0, len(names))
	for _, name := range names {
		i, ok := index[name]
		if !ok {
			return nil, nil, sdtp.SchemaErrorf("", "cannot project unknown column %q", name)
		}

		columns = append(columns, schema[i])
		positions = append(positions, i)
	}

	return columns, positions, nil
}

// Project narrows rows laid out like schema to the named columns.
func Project(schema []sdtp.Column, rows []value.Row, names []string) ([]value.Row, error) {
	if names == nil {
		return rows, nil
	}

	_, positions, err := Projection(schema, names)
	if err != nil {
		return nil, err
	}

	projected := make([]value.Row, 0, len(rows))
	for _, row := range rows {
		out := make(value.Row, len(positions))
		for i, pos := range positions {
			out[i] = row[pos]
		}

		projected = append(projected, out)
	}

	return projected, nil
}

// Select filters and projects rows laid out like schema. It is what every GetRows
// implementation observably does after scanning its source.
func Select(schema []sdtp.Column, rows []value.Row, f *filter.Filter, project []string) ([]value.Row, error) {
	// Check the projection before filtering, so that bad requests fail fast on large tables.
	if _, _, err := Projection(schema, project); err != nil {
		return nil, err
	}

	if f != nil {
		index := Index(schema)
		matched := make([]value.Row, 0, len(rows))
		for _, row := range rows {
			if filter.Evaluate(f, row, index) {
				matched = append(matched, row)
			}
		}

		rows = matched
	}

	return Project(schema, rows, project)
}

// CheckColumns makes sure schema has unique, non-empty names and valid types.
func CheckColumns(schema []sdtp.Column) error {
	seen := make(map[string]bool, len(schema))
	for i, col := range schema {
		if col.Name == "" {
			return sdtp.SchemaErrorf("", "column %d has no name", i)
		}
		if seen[col.Name] {
			return sdtp.SchemaErrorf("", "duplicate column %q", col.Name)
		}
		if !col.Type.Valid() {
			return sdtp.SchemaErrorf("", "column %q has an invalid type", col.Name)
		}

		seen[col.Name] = true
	}

	return nil
}

// CheckRows makes sure every row has one value per column of schema and that each
// value is either absent or of its column type.
func CheckRows(schema []sdtp.Column, rows []value.Row) error {
	for r, row := range rows {
		if len(row) != len(schema) {
			return sdtp.SchemaErrorf("", "row %d has %d values, but the table has %d columns", r, len(row), len(schema))
		}

		for i, v := range row {
			if !v.IsNull() && v.Type() != schema[i].Type {
				return sdtp.SchemaErrorf("", "row %d: value %v of column %q is not a %s", r, v, schema[i].Name, schema[i].Type)
			}
		}
	}

	return nil
}

// DefaultsFor returns one Default per column of schema, taken from defaults.
func DefaultsFor(schema []sdtp.Column, defaults map[string]value.Default) ([]value.Default, error) {
	out := make([]value.Default, len(schema))
	index := Index(schema)
	for name, def := range defaults {
		i, ok := index[name]
		if !ok {
			return nil, sdtp.SchemaErrorf("", "default given for unknown column %q", name)
		}
		if err := def.Check(schema[i].Type); err != nil {
			return nil, sdtp.SchemaErrorf("", "column %q: %s", name, sdtp.AsError(err).Message)
		}

		out[i] = def
	}

	return out, nil
}
