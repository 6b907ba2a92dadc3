package daemon

import (
	"context"
	"strings"

	"github.com/engagelively/sdtp/internal/table"
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LoadTables builds a registry of all configured tables.
//
// The returned function closes the SQLite databases opened for the tables and must be
// called once the registry is no longer used, even if an error is returned.
func LoadTables(ctx context.Context, configs []TableConfig, logger *zap.SugaredLogger) (*table.Registry, func(), error) {
	registry := table.NewRegistry()
	databases := make(map[string]*sqlx.DB)
	closeAll := func() {
		for path, db := range databases {
			if err := db.Close(); err != nil {
				logger.Warnw("Cannot close database", zap.String("path", path), zap.Error(err))
			}
		}
	}

	for _, c := range configs {
		var t table.Table
		var err error

		switch c.Type {
		case SourceRows:
			t, err = loadRows(c)
		case SourceCSV:
			t, err = table.LoadCSV(c.Path, c.defaults())
		case SourceSQLite:
			db, ok := databases[c.Path]
			if !ok {
				if db, err = openSQLite(ctx, c.Path); err != nil {
					break
				}
				databases[c.Path] = db
			}

			t, err = table.NewSQLTable(db, c.query(), c.columns(), c.defaults())
		default:
			err = errors.Errorf("unknown table type %q", c.Type)
		}
		if err != nil {
			return nil, closeAll, errors.Wrapf(err, "cannot load table %q", c.Name)
		}

		if err := registry.Add(c.Name, t); err != nil {
			return nil, closeAll, err
		}

		logger.Infow("Loaded table", zap.String("table", c.Name), zap.String("type", c.Type))
	}

	return registry, closeAll, nil
}

func loadRows(c TableConfig) (*table.RowTable, error) {
	columns := c.columns()
	defaults := c.defaults()

	defs, err := table.DefaultsFor(columns, defaults)
	if err != nil {
		return nil, err
	}

	rows := make([]value.Row, 0, len(c.Rows))
	for i, wire := range c.Rows {
		row, err := value.ConvertRow(wire, columns, defs)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}

		rows = append(rows, row)
	}

	t, err := table.NewRowTable(columns, rows)
	if err != nil {
		return nil, err
	}

	if err := t.SetDefaults(defaults); err != nil {
		return nil, err
	}

	return t, nil
}

func openSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open SQLite database %q", path)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "cannot connect to SQLite database %q", path)
	}

	return db, nil
}

func (c TableConfig) columns() []sdtp.Column {
	columns := make([]sdtp.Column, len(c.Columns))
	for i, column := range c.Columns {
		// Types are checked by Validate.
		t, _ := sdtp.ParseType(column.Type)
		columns[i] = sdtp.Column{Name: column.Name, Type: t}
	}

	return columns
}

func (c TableConfig) defaults() map[string]value.Default {
	defaults := make(map[string]value.Default)
	for _, column := range c.Columns {
		if column.Default != nil {
			defaults[column.Name] = value.DefaultOf(column.Default)
		}
	}

	return defaults
}

// query returns the configured query or one selecting all configured columns from the table of the same name.
func (c TableConfig) query() string {
	if c.Query != "" {
		return c.Query
	}

	quoted := make([]string, len(c.Columns))
	for i, column := range c.Columns {
		quoted[i] = quoteIdentifier(column.Name)
	}

	return "SELECT " + strings.Join(quoted, ", ") + " FROM " + quoteIdentifier(c.Name)
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
