package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/engagelively/sdtp/internal/logging"
	"github.com/engagelively/sdtp/internal/testutils"
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	t.Run("Defaults", func(t *testing.T) {
		t.Parallel()

		c, err := FromFile(writeFile(t, "config.yml", "tables: []\n"))
		require.NoError(t, err)

		assert.Equal(t, "localhost:5470", c.Listen)
		assert.Equal(t, 30*time.Second, c.RequestTimeout)
		assert.Equal(t, 32, c.Workers)
		assert.Equal(t, logging.Config{Level: zapcore.InfoLevel, Output: logging.CONSOLE}, c.Logging)
		assert.Empty(t, c.Tables)
	})

	t.Run("Complete", func(t *testing.T) {
		t.Parallel()

		c, err := FromFile(writeFile(t, "config.yml", `
listen: 0.0.0.0:8080
request-timeout: 5s
workers: 4
logging:
  level: debug
  output: json
  options:
    dispatch: warn
tables:
  - name: people
    columns:
      - {name: name, type: string}
      - {name: age, type: number, default: 0}
    rows:
      - [ada, 36]
      - [alan, unknown]
  - name: stations
    type: csv
    path: /var/lib/sdtp/stations.csv
`))
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:8080", c.Listen)
		assert.Equal(t, 5*time.Second, c.RequestTimeout)
		assert.Equal(t, 4, c.Workers)
		assert.Equal(t, zapcore.DebugLevel, c.Logging.Level)
		assert.Equal(t, logging.JSON, c.Logging.Output)
		assert.Equal(t, map[string]zapcore.Level{"dispatch": zapcore.WarnLevel}, c.Logging.Options)

		require.Len(t, c.Tables, 2)
		assert.Equal(t, SourceRows, c.Tables[0].Type, "tables hold rows unless told otherwise")
		assert.Equal(t, []sdtp.Column{{Name: "name", Type: sdtp.TypeString}, {Name: "age", Type: sdtp.TypeNumber}}, c.Tables[0].columns())
		assert.Len(t, c.Tables[0].Rows, 2)
		assert.Equal(t, SourceCSV, c.Tables[1].Type)
	})

	t.Run("Invalid", func(t *testing.T) {
		t.Parallel()

		testdata := []struct {
			Name   string
			Config string
			Error  string
		}{
			{"Timeout", "request-timeout: 0s\n", "request-timeout must be positive"},
			{"Workers", "workers: -1\n", "workers must be positive"},
			{"Output", "logging: {output: syslog}\n", `invalid logging output "syslog"`},
			{"TableType", "tables: [{name: t, type: xml}]\n", `unknown type "xml"`},
			{"CSVPath", "tables: [{name: t, type: csv}]\n", "needs a path"},
			{"NoColumns", "tables: [{name: t}]\n", "has no columns"},
			{"ColumnType", "tables: [{name: t, columns: [{name: c, type: time}]}]\n", `unknown column type "time"`},
			{"Duplicate", "tables: [{name: t, columns: [{name: c, type: string}]}, {name: t, columns: [{name: c, type: string}]}]\n", `duplicate table "t"`},
		}

		for _, td := range testdata {
			t.Run(td.Name, func(t *testing.T) {
				_, err := FromFile(writeFile(t, "config.yml", td.Config))
				assert.ErrorContains(t, err, td.Error)
			})
		}
	})

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()

		_, err := FromFile(filepath.Join(t.TempDir(), "missing.yml"))
		assert.ErrorContains(t, err, "cannot open config file")
	})
}

func TestLoadTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "colors.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("color,rank\nstring,number\nred,1\ngreen,\n"), 0o600))

	dbPath := filepath.Join(dir, "sensors.db")
	db, err := sqlx.Open("sqlite3", dbPath)
	require.NoError(t, err)
	db.MustExec(`CREATE TABLE sensor (id INTEGER, "place name" TEXT)`)
	db.MustExec(`INSERT INTO sensor VALUES (1, 'north'), (2, 'south')`)
	require.NoError(t, db.Close())

	configs := []TableConfig{
		{
			Name: "people",
			Type: SourceRows,
			Columns: []ColumnConfig{
				{Name: "name", Type: "string"},
				{Name: "age", Type: "number", Default: uint64(0)},
			},
			Rows: [][]any{{"ada", uint64(36)}, {"alan", "unknown"}},
		},
		{
			Name:    "colors",
			Type:    SourceCSV,
			Path:    csvPath,
			Columns: []ColumnConfig{{Name: "rank", Default: -1}},
		},
		{
			Name: "sensor",
			Type: SourceSQLite,
			Path: dbPath,
			Columns: []ColumnConfig{
				{Name: "id", Type: "number"},
				{Name: "place name", Type: "string"},
			},
		},
		{
			Name:    "north",
			Type:    SourceSQLite,
			Path:    dbPath,
			Query:   `SELECT "place name" FROM sensor WHERE id = 1`,
			Columns: []ColumnConfig{{Name: "place", Type: "string"}},
		},
	}

	logger := testutils.NewTestLogging(t).GetLogger()
	registry, closeAll, err := LoadTables(context.Background(), configs, logger)
	t.Cleanup(closeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"colors", "north", "people", "sensor"}, registry.Names())

	rowsOf := func(name string) []value.Row {
		tbl, err := registry.Get(name)
		require.NoError(t, err)

		rows, err := tbl.GetRows(context.Background(), nil, nil)
		require.NoError(t, err)

		return rows
	}

	assert.Equal(t, []value.Row{
		{value.String("ada"), value.Number(36)},
		{value.String("alan"), value.Number(0)},
	}, rowsOf("people"))
	assert.Equal(t, []value.Row{
		{value.String("red"), value.Number(1)},
		{value.String("green"), value.Number(-1)},
	}, rowsOf("colors"))
	assert.Equal(t, []value.Row{
		{value.Number(1), value.String("north")},
		{value.Number(2), value.String("south")},
	}, rowsOf("sensor"))
	assert.Equal(t, []value.Row{{value.String("north")}}, rowsOf("north"))
}

func TestLoadTables_Errors(t *testing.T) {
	t.Parallel()

	logger := testutils.NewTestLogging(t).GetLogger()

	testdata := []struct {
		Name   string
		Config TableConfig
		Error  string
	}{
		{
			Name: "BadRow",
			Config: TableConfig{
				Name:    "people",
				Type:    SourceRows,
				Columns: []ColumnConfig{{Name: "age", Type: "number"}},
				Rows:    [][]any{{"unknown"}},
			},
			Error: "row 0",
		},
		{
			Name: "BadDefault",
			Config: TableConfig{
				Name:    "people",
				Type:    SourceRows,
				Columns: []ColumnConfig{{Name: "age", Type: "number", Default: "old"}},
			},
			Error: `column "age"`,
		},
		{
			Name:   "MissingCSV",
			Config: TableConfig{Name: "colors", Type: SourceCSV, Path: filepath.Join(t.TempDir(), "missing.csv")},
			Error:  "cannot open CSV table",
		},
	}

	for _, td := range testdata {
		t.Run(td.Name, func(t *testing.T) {
			_, closeAll, err := LoadTables(context.Background(), []TableConfig{td.Config}, logger)
			closeAll()

			assert.ErrorContains(t, err, `cannot load table "`+td.Config.Name+`"`)
			assert.ErrorContains(t, err, td.Error)
		})
	}
}
