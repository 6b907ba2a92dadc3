package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/engagelively/sdtp/internal/filter"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the server and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.Client()
			if err != nil {
				return err
			}

			tables, err := c.GetTables(cmd.Context())
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), tables)
			}

			names := make([]string, 0, len(tables))
			for name := range tables {
				names = append(names, name)
			}
			slices.Sort(names)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range names {
				_, _ = fmt.Fprintln(w, name)
				for _, column := range tables[name] {
					_, _ = fmt.Fprintf(w, "  %s\t%s\n", column.Name, column.Type)
				}
			}

			return w.Flush()
		},
	}
}

// RowsOptions holds the flags of the rows command.
type RowsOptions struct {
	Filter     string
	FilterJSON string
	Columns    []string
}

// NewRowsCommand creates the rows command.
func NewRowsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RowsOptions{}

	cmd := &cobra.Command{
		Use:   "rows <table>",
		Short: "Fetch the rows of a table matching a filter",
		Long: `Fetch the rows of a table matching a filter.

The filter is either an expression (--filter 'age>35&name~a.*') or a JSON filter
document (--filter-json '{"operator": "GT", "column": "age", "value": 35}').
Without a filter all rows are returned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := opts.spec()
			if err != nil {
				return err
			}

			c, err := rootOpts.Client()
			if err != nil {
				return err
			}

			resp, err := c.GetFilteredRows(cmd.Context(), args[0], spec, opts.Columns)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			return writeRows(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "filter expression")
	cmd.Flags().StringVar(&opts.FilterJSON, "filter-json", "", "filter as JSON document")
	cmd.Flags().StringSliceVarP(&opts.Columns, "columns", "c", nil, "columns to return, in this order")
	cmd.MarkFlagsMutuallyExclusive("filter", "filter-json")

	return cmd
}

func (o *RowsOptions) spec() (*sdtp.FilterSpec, error) {
	if o.FilterJSON != "" {
		var spec sdtp.FilterSpec
		if err := json.Unmarshal([]byte(o.FilterJSON), &spec); err != nil {
			return nil, fmt.Errorf("invalid filter document: %w", err)
		}

		return &spec, nil
	}

	return filter.ParseExpression(o.Filter)
}

func writeRows(out io.Writer, resp *sdtp.Response) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	names := make([]string, len(resp.Columns))
	for i, column := range resp.Columns {
		names[i] = column.Name
	}
	_, _ = fmt.Fprintln(w, strings.Join(names, "\t"))

	for _, row := range resp.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = formatCell(cell)
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	return w.Flush()
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(raw)
	default:
		return fmt.Sprint(v)
	}
}

// NewValuesCommand creates the values command.
func NewValuesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "values <table> <column>",
		Short: "List the distinct values of a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.Client()
			if err != nil {
				return err
			}

			values, err := c.GetAllValues(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), values)
			}

			for _, v := range values {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatCell(v))
			}

			return nil
		},
	}
}

// NewRangeCommand creates the range command.
func NewRangeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "range <table> <column>",
		Short: "Show the smallest and largest value of a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rootOpts.Client()
			if err != nil {
				return err
			}

			spec, err := c.GetRangeSpec(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), spec)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s .. %s\n", formatCell(spec.MinVal), formatCell(spec.MaxVal))
			return err
		},
	}
}

// NewParseCommand creates the parse command, which prints the JSON filter document of an expression.
func NewParseCommand(*RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <expression>",
		Short: "Translate a filter expression into a JSON filter document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filter.ParseExpression(args[0])
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), spec)
		},
	}
}
