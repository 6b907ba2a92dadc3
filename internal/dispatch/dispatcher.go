package dispatch

import (
	"bytes"
	"context"
	"time"

	"github.com/engagelively/sdtp/internal/filter"
	"github.com/engagelively/sdtp/internal/logging"
	"github.com/engagelively/sdtp/internal/metrics"
	"github.com/engagelively/sdtp/internal/table"
	"github.com/engagelively/sdtp/internal/value"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const submitRetryInterval = 5 * time.Millisecond

// Dispatcher answers protocol requests against the tables of a registry.
//
// Table access runs on a bounded goroutine pool and every request is subject to a timeout.
// Requests share no state, so a Dispatcher may be used concurrently.
type Dispatcher struct {
	registry *table.Registry
	pool     *ants.Pool
	timeout  time.Duration
	logger   *zap.SugaredLogger
}

// NewDispatcher returns a Dispatcher running at most workers table accesses at a time.
// Call Close to release the pool.
func NewDispatcher(registry *table.Registry, logs *logging.Logging, workers int, timeout time.Duration) (*Dispatcher, error) {
	if timeout <= 0 {
		return nil, errors.Errorf("request timeout must be positive, got %s", timeout)
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, errors.Wrap(err, "cannot create worker pool")
	}

	return &Dispatcher{
		registry: registry,
		pool:     pool,
		timeout:  timeout,
		logger:   logs.GetChildLogger("dispatch"),
	}, nil
}

// Close waits up to timeout for running table accesses and releases the pool.
func (d *Dispatcher) Close(timeout time.Duration) error {
	return d.pool.ReleaseTimeout(timeout)
}

// GetFilteredRows returns the rows of the requested table matching its filter, narrowed to
// the requested columns. Either the complete result or an error is returned.
func (d *Dispatcher) GetFilteredRows(ctx context.Context, req *sdtp.Request) (*sdtp.Response, error) {
	var resp *sdtp.Response
	err := d.run(ctx, "get_filtered_rows", func(ctx context.Context) error {
		t, err := d.lookup(req.Table)
		if err != nil {
			return err
		}

		schema, err := t.Columns(ctx)
		if err != nil {
			return errors.Wrapf(err, "cannot get columns of table %q", req.Table)
		}

		var f *filter.Filter
		if hasFilter(req.Filter) {
			if f, err = filter.Compile(req.Filter, schema); err != nil {
				return err
			}
		}

		columns, _, err := table.Projection(schema, req.Columns)
		if err != nil {
			return err
		}

		rows, err := t.GetRows(ctx, f, req.Columns)
		if err != nil {
			return err
		}

		wire, err := encodeRows(rows, columns, defaultsOf(t))
		if err != nil {
			return err
		}

		metrics.RowsReturned.WithLabelValues(req.Table).Add(float64(len(wire)))
		resp = &sdtp.Response{Columns: columns, Rows: wire}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// Tables returns the schema of every table by name.
func (d *Dispatcher) Tables(ctx context.Context) (map[string][]sdtp.Column, error) {
	tables := make(map[string][]sdtp.Column, d.registry.Len())
	err := d.run(ctx, "get_tables", func(ctx context.Context) error {
		for _, name := range d.registry.Names() {
			t, err := d.registry.Get(name)
			if err != nil {
				return err
			}

			columns, err := t.Columns(ctx)
			if err != nil {
				return errors.Wrapf(err, "cannot get columns of table %q", name)
			}

			tables[name] = columns
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return tables, nil
}

// AllValues returns the sorted distinct present values of a column in their wire form.
func (d *Dispatcher) AllValues(ctx context.Context, tableName, column string) ([]any, error) {
	var wire []any
	err := d.run(ctx, "get_all_values", func(ctx context.Context) error {
		t, err := d.lookup(tableName)
		if err != nil {
			return err
		}

		values, err := table.AllValues(ctx, t, column)
		if err != nil {
			return err
		}

		wire = make([]any, 0, len(values))
		for _, v := range values {
			wire = append(wire, value.Serialize(v))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return wire, nil
}

// RangeSpec returns the smallest and largest value of a column in their wire form.
func (d *Dispatcher) RangeSpec(ctx context.Context, tableName, column string) (*sdtp.RangeSpec, error) {
	var spec *sdtp.RangeSpec
	err := d.run(ctx, "get_range_spec", func(ctx context.Context) error {
		t, err := d.lookup(tableName)
		if err != nil {
			return err
		}

		lowest, highest, err := table.RangeSpec(ctx, t, column)
		if err != nil {
			return err
		}

		spec = &sdtp.RangeSpec{MinVal: value.Serialize(lowest), MaxVal: value.Serialize(highest)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return spec, nil
}

func (d *Dispatcher) lookup(name string) (table.Table, error) {
	if name == "" {
		return nil, sdtp.RequestErrorf("no table given")
	}

	return d.registry.Get(name)
}

// run executes fn on the pool and waits for it until the request timeout expires.
func (d *Dispatcher) run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	err := d.submit(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.Errorf("%s panicked: %v", operation, r)
			}
		}()

		done <- fn(ctx)
	})
	if err == nil {
		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		err = sdtp.TimeoutErrorf("%s did not finish within %s", operation, d.timeout)
	}

	status := "ok"
	if err != nil {
		kind := sdtp.KindOf(err)
		status = string(kind)

		if kind == sdtp.KindInternal {
			d.logger.Errorw("Request failed", zap.String("operation", operation), zap.Error(err))
		} else {
			d.logger.Debugw("Rejected request", zap.String("operation", operation), zap.Error(err))
		}
	} else {
		d.logger.Debugw("Finished request", zap.String("operation", operation), zap.Duration("took", time.Since(start)))
	}
	metrics.OperationsTotal.WithLabelValues(operation, status).Inc()

	return err
}

// submit hands task to the pool. While all workers are busy it retries until ctx is done.
func (d *Dispatcher) submit(ctx context.Context, task func()) error {
	for {
		err := d.pool.Submit(task)
		if !errors.Is(err, ants.ErrPoolOverload) {
			return errors.Wrap(err, "cannot schedule request")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(submitRetryInterval):
		}
	}
}

// encodeRows turns rows into their wire form. Values not matching their column type are
// converted again, using the column default if there is one.
func encodeRows(rows []value.Row, columns []sdtp.Column, defaults map[string]value.Default) ([][]any, error) {
	wire := make([][]any, 0, len(rows))
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.Errorf("table returned %d values in row %d, but %d columns were requested",
				len(row), r, len(columns))
		}

		out := make([]any, len(row))
		for i, v := range row {
			if !v.IsNull() && v.Type() != columns[i].Type {
				var err error
				v, err = value.Convert(value.Serialize(v), columns[i].Type, defaults[columns[i].Name])
				if err != nil {
					return nil, sdtp.ConversionErrorf("row %d, column %q: %s", r, columns[i].Name, sdtp.AsError(err).Message)
				}
			}

			out[i] = value.Serialize(v)
		}

		wire = append(wire, out)
	}

	return wire, nil
}

func defaultsOf(t table.Table) map[string]value.Default {
	if d, ok := t.(table.Defaulter); ok {
		return d.Defaults()
	}

	return nil
}

func hasFilter(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
