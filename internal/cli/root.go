package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/engagelively/sdtp/internal"
	"github.com/engagelively/sdtp/pkg/client"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server  string
	Format  string // "json" | "text"
	Headers []string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the SDTP command line client.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sdtp",
		Short: "Query SDTP servers",
		Long: `Query tables served by an SDTP server.

Filters are written in a compact syntax, e.g. 'age>35&(name=a|name~b.*)&!nickname',
or given as JSON filter documents.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Server, "server", "s", "http://localhost:5470", "URL of the SDTP server")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringArrayVarP(&opts.Headers, "header", "H", nil, "header sent with every request, as 'Key: Value'")

	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewRowsCommand(opts))
	cmd.AddCommand(NewValuesCommand(opts))
	cmd.AddCommand(NewRangeCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			internal.Version.Print("sdtp")
		},
	})

	return cmd
}

// Client returns a client for the configured server.
func (o *RootOptions) Client() (*client.Client, error) {
	opts := make([]client.Option, 0, len(o.Headers))
	for _, header := range o.Headers {
		key, value, ok := strings.Cut(header, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q: must be 'Key: Value'", header)
		}

		opts = append(opts, client.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
	}

	return client.New(o.Server, opts...)
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
