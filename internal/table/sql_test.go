package table

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/engagelively/sdtp/internal/filter"
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sensorColumns = []sdtp.Column{
	{Name: "id", Type: sdtp.TypeNumber},
	{Name: "name", Type: sdtp.TypeString},
	{Name: "installed", Type: sdtp.TypeDate},
	{Name: "enabled", Type: sdtp.TypeBoolean},
	{Name: "reading", Type: sdtp.TypeNumber},
}

func openSensors(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "sensors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	db.MustExec(`CREATE TABLE sensor (id INTEGER, name TEXT, installed DATE, enabled BOOLEAN, reading REAL)`)
	db.MustExec(`INSERT INTO sensor VALUES
		(1, 'north', '2021-03-01', 1, 12.5),
		(2, 'south', '2022-11-30', 0, 'n/a'),
		(3, 'east', NULL, 1, NULL)`)

	return db
}

func TestSQLTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	query := "SELECT id, name, installed, enabled, reading FROM sensor ORDER BY id"

	t.Run("ConvertsDriverValues", func(t *testing.T) {
		t.Parallel()

		tbl, err := NewSQLTable(openSensors(t), query, sensorColumns, map[string]value.Default{
			"reading": value.DefaultOf(-1),
		})
		require.NoError(t, err)

		rows, err := tbl.GetRows(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []value.Row{
			{value.Number(1), value.String("north"), value.Date(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)), value.Bool(true), value.Number(12.5)},
			{value.Number(2), value.String("south"), value.Date(time.Date(2022, 11, 30, 0, 0, 0, 0, time.UTC)), value.Bool(false), value.Number(-1)},
			{value.Number(3), value.String("east"), value.Null, value.Bool(true), value.Number(-1)},
		}, rows)
	})

	t.Run("FilterAndProject", func(t *testing.T) {
		t.Parallel()

		tbl, err := NewSQLTable(openSensors(t), query, sensorColumns, map[string]value.Default{
			"reading": value.DefaultOf(-1),
		})
		require.NoError(t, err)

		f := compileSensors(t, `{"operator": "AND", "arguments": [
			{"operator": "EQ", "column": "enabled", "value": true},
			{"operator": "NOTNULL", "column": "installed"}
		]}`)

		rows, err := tbl.GetRows(ctx, f, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, []value.Row{{value.String("north")}}, rows)

		_, err = tbl.GetRows(ctx, nil, []string{"temperature"})
		assert.Equal(t, sdtp.KindSchema, sdtp.KindOf(err))
	})

	t.Run("UnparsableWithoutDefault", func(t *testing.T) {
		t.Parallel()

		tbl, err := NewSQLTable(openSensors(t), query, sensorColumns, nil)
		require.NoError(t, err)

		_, err = tbl.GetRows(ctx, nil, nil)
		require.Error(t, err)
		assert.Equal(t, sdtp.KindConversion, sdtp.KindOf(err))
	})

	t.Run("QueryError", func(t *testing.T) {
		t.Parallel()

		tbl, err := NewSQLTable(openSensors(t), "SELECT * FROM nowhere", sensorColumns, nil)
		require.NoError(t, err)

		_, err = tbl.GetRows(ctx, nil, nil)
		require.Error(t, err)
		assert.Equal(t, sdtp.KindInternal, sdtp.KindOf(err))
	})
}

func compileSensors(t *testing.T, doc string) *filter.Filter {
	t.Helper()

	f, err := filter.Compile(json.RawMessage(doc), sensorColumns)
	require.NoError(t, err)

	return f
}
