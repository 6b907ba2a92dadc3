package table

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationsCSV = `station,elevation,opened,open_at,active,note
Zermatt,1608,1891-07-18,06:15:00,true,
Gornergrat,3089,,07:00:00,,summit
Riffelalp,n/a,1899-08-20,07:10:30.5,false,""
`

func TestReadCSV(t *testing.T) {
	t.Parallel()

	header := "string,number,date,timeofday,boolean,string\n"
	src := strings.Replace(stationsCSV, "\n", "\n"+header, 1)

	t.Run("WithDefaults", func(t *testing.T) {
		t.Parallel()

		tbl, err := ReadCSV(strings.NewReader(src), map[string]value.Default{
			"elevation": value.DefaultOf(0),
			"active":    value.DefaultOf(true),
		})
		require.NoError(t, err)

		columns, err := tbl.Columns(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []sdtp.Column{
			{Name: "station", Type: sdtp.TypeString},
			{Name: "elevation", Type: sdtp.TypeNumber},
			{Name: "opened", Type: sdtp.TypeDate},
			{Name: "open_at", Type: sdtp.TypeTimeOfDay},
			{Name: "active", Type: sdtp.TypeBoolean},
			{Name: "note", Type: sdtp.TypeString},
		}, columns)

		rows, err := tbl.GetRows(context.Background(), nil, nil)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t, value.Row{
			value.String("Zermatt"),
			value.Number(1608),
			value.Date(time.Date(1891, 7, 18, 0, 0, 0, 0, time.UTC)),
			value.TimeOfDay(6*time.Hour + 15*time.Minute),
			value.Bool(true),
			value.String(""),
		}, rows[0])
		assert.True(t, rows[1][2].IsNull(), "empty cells of date columns are absent")
		assert.Equal(t, value.Bool(true), rows[1][4], "absent booleans take the default")
		assert.Equal(t, value.Number(0), rows[2][1], "unparsable numbers take the default")
		assert.Equal(t, "07:10:30.5", value.Serialize(rows[2][3]))
		assert.Equal(t, value.DefaultOf(0), tbl.Defaults()["elevation"])
	})

	t.Run("WithoutDefaults", func(t *testing.T) {
		t.Parallel()

		_, err := ReadCSV(strings.NewReader(src), nil)
		require.Error(t, err)
		assert.Equal(t, sdtp.KindConversion, sdtp.KindOf(err))
		assert.Contains(t, err.Error(), "record 5")
	})

	t.Run("BadHeader", func(t *testing.T) {
		t.Parallel()

		_, err := ReadCSV(strings.NewReader("a,b\n"), nil)
		assert.Error(t, err)

		_, err = ReadCSV(strings.NewReader("a,b\nstring,integer\n"), nil)
		assert.ErrorContains(t, err, `unknown column type "integer"`)

		_, err = ReadCSV(strings.NewReader("a,a\nstring,string\n"), nil)
		assert.ErrorContains(t, err, `duplicate column "a"`)
	})
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "colors.csv")
	require.NoError(t, os.WriteFile(path, []byte("color,hex\nstring,string\nred,#f00\ngreen,#0f0\n"), 0o600))

	tbl, err := LoadCSV(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.ErrorContains(t, err, "cannot open CSV table")
}
