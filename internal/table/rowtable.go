package table

import (
	"context"
	"slices"
	"sync"

	"github.com/engagelively/sdtp/internal/filter"
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
)

// RowTable serves a fixed schema and rows held in memory.
// It is safe for concurrent readers, Append takes a write lock.
type RowTable struct {
	columns  []sdtp.Column
	defaults map[string]value.Default

	mu   sync.RWMutex
	rows []value.Row
}

// NewRowTable checks columns and rows and returns a table serving them.
func NewRowTable(columns []sdtp.Column, rows []value.Row) (*RowTable, error) {
	if err := CheckColumns(columns); err != nil {
		return nil, err
	}
	if err := CheckRows(columns, rows); err != nil {
		return nil, err
	}

	return &RowTable{columns: slices.Clone(columns), rows: slices.Clone(rows)}, nil
}

// SetDefaults sets the per column defaults reported by Defaults.
func (t *RowTable) SetDefaults(defaults map[string]value.Default) error {
	if _, err := DefaultsFor(t.columns, defaults); err != nil {
		return err
	}

	t.defaults = defaults
	return nil
}

func (t *RowTable) Defaults() map[string]value.Default {
	return t.defaults
}

func (t *RowTable) Columns(context.Context) ([]sdtp.Column, error) {
	return slices.Clone(t.columns), nil
}

func (t *RowTable) GetRows(ctx context.Context, f *filter.Filter, project []string) ([]value.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	rows := slices.Clone(t.rows)
	t.mu.RUnlock()

	return Select(t.columns, rows, f, project)
}

// Append adds rows to the end of the table. Either all rows are added or none.
func (t *RowTable) Append(rows ...value.Row) error {
	if err := CheckRows(t.columns, rows); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = append(t.rows, rows...)
	return nil
}

// Len returns the number of rows.
func (t *RowTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rows)
}

var (
	_ Table     = (*RowTable)(nil)
	_ Defaulter = (*RowTable)(nil)
)
