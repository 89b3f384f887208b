// Package source opens the sheet loader selected by configuration.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/eventmap/internal/config"
	"github.com/JonMunkholm/eventmap/internal/core"
	"github.com/JonMunkholm/eventmap/internal/source/csvsheet"
	"github.com/JonMunkholm/eventmap/internal/source/httpsheet"
	"github.com/JonMunkholm/eventmap/internal/source/postgres"
	"github.com/JonMunkholm/eventmap/internal/source/s3sheet"
	"github.com/JonMunkholm/eventmap/internal/source/sqlite"
	"github.com/JonMunkholm/eventmap/internal/source/xlsx"
)

// Source is an opened loader together with whatever must be released
// when it is no longer needed.
type Source struct {
	core.SheetLoader

	// Driver is the configured driver name.
	Driver string

	// Location describes where sheets come from, for logs.
	Location string

	closers []func()
}

// Close releases database pools and connections.
func (s *Source) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Open builds the loader for cfg.Driver. Database drivers connect eagerly so
// misconfiguration surfaces at startup.
func Open(ctx context.Context, cfg config.SourceConfig) (*Source, error) {
	driver := strings.ToLower(cfg.Driver)
	src := &Source{Driver: driver}

	switch driver {
	case config.DriverCSV:
		src.SheetLoader = csvsheet.Dir{Path: cfg.Dir}
		src.Location = cfg.Dir

	case config.DriverXLSX:
		src.SheetLoader = xlsx.Workbook{Path: cfg.Workbook}
		src.Location = cfg.Workbook

	case config.DriverHTTP:
		src.SheetLoader = httpsheet.New(cfg.URL, cfg.HTTPTimeout)
		src.Location = cfg.URL

	case config.DriverPostgres:
		loader, pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		src.SheetLoader = loader
		src.Location = "postgres schema " + cfg.DBSchema
		src.closers = append(src.closers, pool.Close)

	case config.DriverSQLite:
		loader, db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		src.SheetLoader = loader
		src.Location = cfg.SQLitePath
		src.closers = append(src.closers, func() { db.Close() })

	case config.DriverS3:
		loader, err := s3sheet.New(ctx, s3sheet.Config{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			PathStyle:       cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		src.SheetLoader = loader
		src.Location = "s3://" + cfg.S3Bucket + "/" + cfg.S3Prefix

	case "":
		return nil, errors.New("no source driver configured")

	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.Driver)
	}

	return src, nil
}
