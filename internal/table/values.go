package table

import (
	"context"
	"slices"

	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
)

// AllValues returns the distinct present values of column in ascending order.
func AllValues(ctx context.Context, t Table, column string) ([]value.Value, error) {
	schema, err := t.Columns(ctx)
	if err != nil {
		return nil, err
	}

	i, ok := Index(schema)[column]
	if !ok {
		return nil, sdtp.SchemaErrorf("", "unknown column %q", column)
	}
	if schema[i].Type == sdtp.TypeAny {
		return nil, sdtp.TypeErrorf("", "values of column %q of type %s have no order", column, schema[i].Type)
	}

	rows, err := t.GetRows(ctx, nil, []string{column})
	if err != nil {
		return nil, err
	}

	values := make([]value.Value, 0, len(rows))
	for _, row := range rows {
		if !row[0].IsNull() {
			values = append(values, row[0])
		}
	}

	slices.SortFunc(values, func(a, b value.Value) int {
		c, _ := value.Compare(a, b)
		return c
	})

	return slices.CompactFunc(values, value.Equal), nil
}

// RangeSpec returns the smallest and the largest present value of column.
// Both are Null if the column has no present values.
func RangeSpec(ctx context.Context, t Table, column string) (lowest, highest value.Value, err error) {
	values, err := AllValues(ctx, t, column)
	if err != nil {
		return value.Null, value.Null, err
	}
	if len(values) == 0 {
		return value.Null, value.Null, nil
	}

	return values[0], values[len(values)-1], nil
}
