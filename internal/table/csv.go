package table

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/pkg/errors"
)

// LoadCSV reads a table from a CSV file, see ReadCSV.
func LoadCSV(path string, defaults map[string]value.Default) (*RowTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open CSV table")
	}
	defer func() { _ = f.Close() }()

	t, err := ReadCSV(f, defaults)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load CSV table from %q", path)
	}

	return t, nil
}

// ReadCSV reads a table whose first record names the columns and whose second record
// holds their types. Every other record is a row.
//
// Cells are converted with the default of their column. Empty cells of columns other than
// string columns count as absent.
func ReadCSV(r io.Reader, defaults map[string]value.Default) (*RowTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse CSV")
	}
	if len(records) < 2 {
		return nil, errors.New("CSV table needs a header record with the names and one with the types of its columns")
	}

	names, types := records[0], records[1]
	if len(names) != len(types) {
		return nil, errors.Errorf("got %d column names, but %d column types", len(names), len(types))
	}

	columns := make([]sdtp.Column, len(names))
	for i, name := range names {
		t, err := sdtp.ParseType(types[i])
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", name)
		}

		columns[i] = sdtp.Column{Name: name, Type: t}
	}
	if err := CheckColumns(columns); err != nil {
		return nil, err
	}

	defs, err := DefaultsFor(columns, defaults)
	if err != nil {
		return nil, err
	}

	rows := make([]value.Row, 0, len(records)-2)
	for n, record := range records[2:] {
		wire := make([]any, len(record))
		for i, cell := range record {
			if cell == "" && columns[i].Type != sdtp.TypeString {
				continue
			}

			wire[i] = cell
		}

		row, err := value.ConvertRow(wire, columns, defs)
		if err != nil {
			// Records are numbered like lines of the file, starting at 1.
			return nil, errors.Wrapf(err, "record %d", n+3)
		}

		rows = append(rows, row)
	}

	t, err := NewRowTable(columns, rows)
	if err != nil {
		return nil, err
	}
	if err := t.SetDefaults(defaults); err != nil {
		return nil, err
	}

	return t, nil
}
