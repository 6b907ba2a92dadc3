package table

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/engagelively/sdtp/internal/filter"
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	peopleColumns = []sdtp.Column{
		{Name: "name", Type: sdtp.TypeString},
		{Name: "age", Type: sdtp.TypeNumber},
		{Name: "born", Type: sdtp.TypeDate},
	}
	peopleRows = []value.Row{
		{value.String("ada"), value.Number(36), value.Date(time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC))},
		{value.String("alan"), value.Number(41), value.Date(time.Date(1912, 6, 23, 0, 0, 0, 0, time.UTC))},
		{value.String("grace"), value.Null, value.Date(time.Date(1906, 12, 9, 0, 0, 0, 0, time.UTC))},
		{value.String("edsger"), value.Number(72), value.Null},
	}
)

func newPeople(t *testing.T) *RowTable {
	t.Helper()

	tbl, err := NewRowTable(peopleColumns, peopleRows)
	require.NoError(t, err)

	return tbl
}

func compile(t *testing.T, doc string) *filter.Filter {
	t.Helper()

	f, err := filter.Compile(json.RawMessage(doc), peopleColumns)
	require.NoError(t, err)

	return f
}

func TestRowTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("AllRows", func(t *testing.T) {
		t.Parallel()

		rows, err := newPeople(t).GetRows(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, peopleRows, rows)
	})

	t.Run("FilterAndProject", func(t *testing.T) {
		t.Parallel()

		f := compile(t, `{"operator": "GT", "column": "age", "value": 40}`)
		rows, err := newPeople(t).GetRows(ctx, f, []string{"age", "name"})
		require.NoError(t, err)
		assert.Equal(t, []value.Row{
			{value.Number(41), value.String("alan")},
			{value.Number(72), value.String("edsger")},
		}, rows)
	})

	t.Run("UnknownProjection", func(t *testing.T) {
		t.Parallel()

		_, err := newPeople(t).GetRows(ctx, nil, []string{"height"})
		require.Error(t, err)
		assert.Equal(t, sdtp.KindSchema, sdtp.KindOf(err))
	})

	t.Run("CancelledContext", func(t *testing.T) {
		t.Parallel()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := newPeople(t).GetRows(cancelled, nil, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Append", func(t *testing.T) {
		t.Parallel()

		tbl := newPeople(t)
		require.NoError(t, tbl.Append(value.Row{value.String("barbara"), value.Number(50), value.Null}))
		assert.Equal(t, 5, tbl.Len())

		err := tbl.Append(
			value.Row{value.String("ken"), value.Number(80), value.Null},
			value.Row{value.String("dennis"), value.String("70"), value.Null},
		)
		assert.Error(t, err, "rows of the wrong type must be rejected")
		assert.Equal(t, 5, tbl.Len(), "a failed append must not add any row")
	})

	t.Run("ConcurrentReadersAndWriter", func(t *testing.T) {
		t.Parallel()

		tbl := newPeople(t)
		f := compile(t, `{"operator": "NOTNULL", "column": "name"}`)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				assert.NoError(t, tbl.Append(value.Row{value.String("x"), value.Null, value.Null}))
			}()
			go func() {
				defer wg.Done()
				rows, err := tbl.GetRows(ctx, f, []string{"name"})
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, len(rows), len(peopleRows))
			}()
		}
		wg.Wait()

		assert.Equal(t, len(peopleRows)+8, tbl.Len())
	})

	t.Run("InvalidRows", func(t *testing.T) {
		t.Parallel()

		_, err := NewRowTable(peopleColumns, []value.Row{{value.String("short")}})
		assert.Error(t, err)

		_, err = NewRowTable([]sdtp.Column{{Name: "a", Type: sdtp.TypeString}, {Name: "a", Type: sdtp.TypeNumber}}, nil)
		assert.Error(t, err)

		_, err = NewRowTable([]sdtp.Column{{Name: "a"}}, nil)
		assert.Error(t, err)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Parallel()

		tbl := newPeople(t)
		assert.NoError(t, tbl.SetDefaults(map[string]value.Default{"age": value.DefaultOf(0)}))
		assert.Error(t, tbl.SetDefaults(map[string]value.Default{"age": value.DefaultOf("old")}))
		assert.Error(t, tbl.SetDefaults(map[string]value.Default{"height": value.DefaultOf(0)}))
		assert.Equal(t, map[string]value.Default{"age": value.DefaultOf(0)}, tbl.Defaults())
	})
}

func TestAllValuesAndRangeSpec(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tbl := newPeople(t)
	require.NoError(t, tbl.Append(value.Row{value.String("ada"), value.Number(36), value.Null}))

	names, err := AllValues(ctx, tbl, "name")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{
		value.String("ada"), value.String("alan"), value.String("edsger"), value.String("grace"),
	}, names)

	ages, err := AllValues(ctx, tbl, "age")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Number(36), value.Number(41), value.Number(72)}, ages, "absent values are skipped")

	lowest, highest, err := RangeSpec(ctx, tbl, "born")
	require.NoError(t, err)
	assert.Equal(t, "1815-12-10", value.Serialize(lowest))
	assert.Equal(t, "1912-06-23", value.Serialize(highest))

	_, _, err = RangeSpec(ctx, tbl, "height")
	assert.Equal(t, sdtp.KindSchema, sdtp.KindOf(err))

	empty, err := NewRowTable(peopleColumns, nil)
	require.NoError(t, err)

	lowest, highest, err = RangeSpec(ctx, empty, "age")
	require.NoError(t, err)
	assert.True(t, lowest.IsNull())
	assert.True(t, highest.IsNull())
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Add("people", newPeople(t)))
	require.NoError(t, r.Add("animals", newPeople(t)))
	assert.Error(t, r.Add("people", newPeople(t)), "names must be unique")
	assert.Error(t, r.Add("", newPeople(t)))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"animals", "people"}, r.Names())

	tbl, err := r.Get("people")
	require.NoError(t, err)
	assert.NotNil(t, tbl)

	_, err = r.Get("plants")
	assert.Equal(t, sdtp.KindNotFound, sdtp.KindOf(err))
}
