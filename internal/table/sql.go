package table

import (
	"context"
	"slices"

	"github.com/engagelively/sdtp/internal/filter"
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// SQLTable serves the result of a SQL query. Every request runs the query again, so the
// table always reflects the current state of the database.
type SQLTable struct {
	db       *sqlx.DB
	query    string
	columns  []sdtp.Column
	defaults map[string]value.Default
	defs     []value.Default
}

// NewSQLTable returns a table serving the rows of query. The query must select one
// column per entry of columns, in the same order.
func NewSQLTable(db *sqlx.DB, query string, columns []sdtp.Column, defaults map[string]value.Default) (*SQLTable, error) {
	if err := CheckColumns(columns); err != nil {
		return nil, err
	}

	defs, err := DefaultsFor(columns, defaults)
	if err != nil {
		return nil, err
	}

	return &SQLTable{db: db, query: query, columns: slices.Clone(columns), defaults: defaults, defs: defs}, nil
}

func (t *SQLTable) Defaults() map[string]value.Default {
	return t.defaults
}

func (t *SQLTable) Columns(context.Context) ([]sdtp.Column, error) {
	return slices.Clone(t.columns), nil
}

func (t *SQLTable) GetRows(ctx context.Context, f *filter.Filter, project []string) ([]value.Row, error) {
	if _, _, err := Projection(t.columns, project); err != nil {
		return nil, err
	}

	rows, err := t.db.QueryxContext(ctx, t.query)
	if err != nil {
		return nil, errors.Wrap(err, "cannot query table")
	}
	defer func() { _ = rows.Close() }()

	var all []value.Row
	for rows.Next() {
		wire, err := rows.SliceScan()
		if err != nil {
			return nil, errors.Wrap(err, "cannot scan row")
		}

		row, err := value.ConvertRow(wire, t.columns, t.defs)
		if err != nil {
			return nil, err
		}

		all = append(all, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "cannot read rows")
	}

	return Select(t.columns, all, f, project)
}

var (
	_ Table     = (*SQLTable)(nil)
	_ Defaulter = (*SQLTable)(nil)
)
