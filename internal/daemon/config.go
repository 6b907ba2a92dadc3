package daemon

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/engagelively/sdtp/internal"
	"github.com/engagelively/sdtp/internal/logging"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/goccy/go-yaml"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Table sources a TableConfig may use.
const (
	SourceRows   = "rows"
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

type ConfigFile struct {
	Listen         string         `yaml:"listen" default:"localhost:5470"`
	RequestTimeout time.Duration  `yaml:"request-timeout" default:"30s"`
	Workers        int            `yaml:"workers" default:"32"`
	Logging        logging.Config `yaml:"logging"`
	Tables         []TableConfig  `yaml:"tables"`
}

// TableConfig describes one table served by the daemon.
type TableConfig struct {
	Name string `yaml:"name"`
	// Type is one of "rows", "csv" or "sqlite".
	Type string `yaml:"type" default:"rows"`
	// Path is the CSV file or SQLite database to read.
	Path string `yaml:"path"`
	// Query selects the rows of a SQLite table. Defaults to selecting all configured columns from Name.
	Query   string         `yaml:"query"`
	Columns []ColumnConfig `yaml:"columns"`
	// Rows holds the wire values of a "rows" table.
	Rows [][]any `yaml:"rows"`
}

type ColumnConfig struct {
	Name string `yaml:"name"`
	// Type is the wire name of the column type. Columns of CSV tables take their type from the file.
	Type string `yaml:"type"`
	// Default replaces missing or unconvertible values of this column.
	Default any `yaml:"default"`
}

// Validate implements the config.Validator interface.
// Validates the entire daemon configuration on daemon startup.
func (c *ConfigFile) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.Errorf("request-timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(c.Tables))
	for i := range c.Tables {
		t := &c.Tables[i]
		if err := t.Validate(); err != nil {
			return errors.Wrapf(err, "invalid table %d", i)
		}

		if _, ok := names[t.Name]; ok {
			return errors.Errorf("duplicate table %q", t.Name)
		}
		names[t.Name] = struct{}{}
	}

	return nil
}

// Validate checks that the table has everything its type needs.
func (t *TableConfig) Validate() error {
	if t.Name == "" {
		return errors.New("table name must not be empty")
	}

	switch t.Type {
	case SourceRows:
		if len(t.Columns) == 0 {
			return errors.Errorf("table %q has no columns", t.Name)
		}
	case SourceCSV:
		if t.Path == "" {
			return errors.Errorf("CSV table %q needs a path", t.Name)
		}
	case SourceSQLite:
		if t.Path == "" {
			return errors.Errorf("SQLite table %q needs a path", t.Name)
		}
		if len(t.Columns) == 0 {
			return errors.Errorf("table %q has no columns", t.Name)
		}
	default:
		return errors.Errorf("table %q has unknown type %q", t.Name, t.Type)
	}

	for _, column := range t.Columns {
		if column.Name == "" {
			return errors.Errorf("table %q has a column without name", t.Name)
		}

		// CSV files declare their own column types, the configuration may only add defaults.
		if t.Type == SourceCSV && column.Type == "" {
			continue
		}
		if _, err := sdtp.ParseType(column.Type); err != nil {
			return errors.Wrapf(err, "column %q of table %q", column.Name, t.Name)
		}
	}

	return nil
}

// Flags defines the CLI flags supported by the SDTP server.
type Flags struct {
	// Version decides whether to just print the version and exit.
	Version bool `long:"version" description:"print version and exit"`
	// Config is the path to the config file
	Config string `short:"c" long:"config" description:"path to config file" default:"/etc/sdtp/config.yml"`
}

// FromFile loads the configuration from the YAML file at path, filling in defaults and validating the result.
func FromFile(path string) (*ConfigFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open config file")
	}
	defer func() { _ = f.Close() }()

	var c ConfigFile
	if err := defaults.Set(&c); err != nil {
		return nil, errors.Wrap(err, "cannot set config defaults")
	}

	if err := yaml.NewDecoder(f).Decode(&c); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config file %q", path)
	}

	// Defaults of list elements can only be applied once the list is known.
	for i := range c.Tables {
		if err := defaults.Set(&c.Tables[i]); err != nil {
			return nil, errors.Wrap(err, "cannot set table defaults")
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// ParseFlagsAndConfig parses the CLI flags provided to the executable and tries to load the config from the YAML file.
//
// Prints any error during parsing or config loading to os.Stderr and exits, otherwise returns the loaded ConfigFile.
func ParseFlagsAndConfig() *ConfigFile {
	var f Flags
	if _, err := flags.NewParser(&f, flags.Default).Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(ExitSuccess)
		}

		os.Exit(ExitFailure)
	}

	if f.Version {
		internal.Version.Print("SDTP server")
		os.Exit(ExitSuccess)
	}

	c, err := FromFile(f.Config)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cannot load config:", err)
		os.Exit(ExitFailure)
	}

	return c
}
