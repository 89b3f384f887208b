package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrSheetNotFound is returned by loaders when the source has no such sheet.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrUnknownSheet is returned when a caller names a sheet that is not registered.
var ErrUnknownSheet = errors.New("unknown sheet")

// SheetLoader fetches one raw sheet from a source.
type SheetLoader interface {
	LoadSheet(ctx context.Context, name SheetName) (Table, error)
}

// SheetLoaderFunc adapts a function to SheetLoader.
type SheetLoaderFunc func(ctx context.Context, name SheetName) (Table, error)

func (f SheetLoaderFunc) LoadSheet(ctx context.Context, name SheetName) (Table, error) {
	return f(ctx, name)
}

// maxConcurrentLoads bounds parallel sheet fetches.
const maxConcurrentLoads = 4

// LoadSheets fetches every named sheet concurrently. A sheet that fails to
// load becomes an empty table plus a diagnostic; the load as a whole only
// fails if ctx is done.
func LoadSheets(ctx context.Context, loader SheetLoader, names []SheetName, metrics MetricsRecorder) (Sheets, []Diagnostic, error) {
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	var (
		mu     sync.Mutex
		sheets = make(Sheets, len(names))
		diags  []Diagnostic
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	for _, name := range names {
		g.Go(func() error {
			start := time.Now()
			table, err := loader.LoadSheet(gctx, name)
			metrics.ObserveSheetLoad(name, len(table.Rows), time.Since(start), err)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				sheets[name] = Table{}
				diags = append(diags, Diagnostic{
					Kind:    DiagSheetLoadFailed,
					Sheet:   name,
					Message: err.Error(),
				})
				return nil
			}
			sheets[name] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("load sheets: %w", err)
	}

	sortDiagnostics(diags)
	return sheets, diags, nil
}

// LoadSheet fetches a single sheet and logs the outcome.
func LoadSheet(ctx context.Context, loader SheetLoader, name SheetName, logger *slog.Logger) (Table, error) {
	start := time.Now()
	table, err := loader.LoadSheet(ctx, name)
	if err != nil {
		return Table{}, fmt.Errorf("load sheet %s: %w", name, err)
	}
	logger.Debug("sheet loaded",
		"sheet", string(name),
		"rows", len(table.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return table, nil
}
