package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/eventmap/internal/config"
	"github.com/JonMunkholm/eventmap/internal/core"
	_ "github.com/JonMunkholm/eventmap/internal/core/sheets" // Register all sheets
	"github.com/JonMunkholm/eventmap/internal/logging"
	"github.com/JonMunkholm/eventmap/internal/schema"
	"github.com/JonMunkholm/eventmap/internal/source"
)

// sourceFlags override the environment configuration for one invocation.
type sourceFlags struct {
	driver      string
	dir         string
	workbook    string
	url         string
	databaseURL string
	sqlitePath  string
	aliasFile   string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var flags sourceFlags

	root := &cobra.Command{
		Use:   "eventmapctl",
		Short: "Inspect an event map workbook from the command line",
		Long: `eventmapctl loads every sheet from the configured source, runs the same
normalize, index, filter and aggregate chain as the server, and prints the
result as JSON.

Source settings come from the environment (and .env) like the server's;
flags override them.

Examples:
  eventmapctl summary --dir ./data
  eventmapctl events --search "josquin milan" --mappable
  eventmapctl histogram --from 1450 --to 1550
  eventmapctl person BCO1`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.driver, "driver", "", "source driver: csv, xlsx, http, postgres, sqlite, s3")
	pf.StringVar(&flags.dir, "dir", "", "directory of <Sheet>.csv files (csv driver)")
	pf.StringVar(&flags.workbook, "workbook", "", "path to an .xlsx workbook (xlsx driver)")
	pf.StringVar(&flags.url, "url", "", "sheet endpoint URL (http driver)")
	pf.StringVar(&flags.databaseURL, "database-url", "", "PostgreSQL connection string (postgres driver)")
	pf.StringVar(&flags.sqlitePath, "sqlite", "", "SQLite database file (sqlite driver)")
	pf.StringVar(&flags.aliasFile, "alias-file", "", "YAML schema alias overrides")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	load := func(cmd *cobra.Command) (*core.Service, func(), error) {
		return loadService(cmd.Context(), cmd.ErrOrStderr(), flags)
	}

	root.AddCommand(
		newSummaryCmd(load),
		newEventsCmd(load),
		newHistogramCmd(load),
		newPersonCmd(load),
		newNamesCmd(load),
		newDiagnosticsCmd(load),
	)
	return root
}

type loadFunc func(cmd *cobra.Command) (*core.Service, func(), error)

// loadService resolves configuration, opens the source and performs one
// full load. The returned func releases the source.
func loadService(ctx context.Context, logOut io.Writer, flags sourceFlags) (*core.Service, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFrom(func(key string) string {
		if v, ok := flags.lookup(key); ok {
			return v
		}
		return os.Getenv(key)
	})
	if err != nil {
		return nil, nil, err
	}

	// Logs go to stderr so stdout stays valid JSON.
	level := cfg.Logging.Level
	if flags.logLevel == "" && os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger := logging.New(logOut, level, cfg.Logging.Format)
	slog.SetDefault(logger)

	sch, err := schema.Resolve(cfg.Schema.AliasFile)
	if err != nil {
		return nil, nil, err
	}

	src, err := source.Open(ctx, cfg.Source)
	if err != nil {
		return nil, nil, err
	}

	svc := core.NewService(src, core.ServiceConfig{
		Compute:     cfg.Filter.ComputeOptions(sch),
		Filter:      cfg.Filter.DefaultFilter(),
		LoadTimeout: cfg.Source.LoadTimeout,
		Logger:      logger,
	})
	if _, err := svc.Reload(ctx); err != nil {
		src.Close()
		return nil, nil, err
	}
	return svc, src.Close, nil
}

// lookup maps environment keys to flag values that were set.
func (f sourceFlags) lookup(key string) (string, bool) {
	var v string
	switch key {
	case "SOURCE_DRIVER":
		v = f.inferDriver()
	case "SOURCE_DIR":
		v = f.dir
	case "SOURCE_WORKBOOK":
		v = f.workbook
	case "SOURCE_URL":
		v = f.url
	case "DATABASE_URL":
		v = f.databaseURL
	case "SQLITE_PATH":
		v = f.sqlitePath
	case "SCHEMA_ALIAS_FILE":
		v = f.aliasFile
	case "LOG_LEVEL":
		v = f.logLevel
	}
	return v, v != ""
}

// inferDriver picks the driver from whichever location flag was given when
// --driver itself is not.
func (f sourceFlags) inferDriver() string {
	switch {
	case f.driver != "":
		return f.driver
	case f.workbook != "":
		return config.DriverXLSX
	case f.sqlitePath != "":
		return config.DriverSQLite
	case f.databaseURL != "":
		return config.DriverPostgres
	case f.url != "":
		return config.DriverHTTP
	case f.dir != "":
		return config.DriverCSV
	}
	return ""
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
