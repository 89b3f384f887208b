// Package watch refreshes single sheets when their CSV exports change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/eventmap/internal/core"
	"github.com/JonMunkholm/eventmap/internal/source/csvsheet"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 500 * time.Millisecond

// Refresher reloads one sheet. *core.Service satisfies it.
type Refresher interface {
	RefreshSheet(ctx context.Context, name core.SheetName) (*core.Snapshot, error)
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Sheets   []core.SheetName // sheets to react to; empty means every file
	Logger   *slog.Logger
}

// Watcher watches a directory of sheet exports.
type Watcher struct {
	dir       string
	fsw       *fsnotify.Watcher
	refresher Refresher
	debounce  time.Duration
	logger    *slog.Logger
	sheets    map[core.SheetName]struct{}

	mu      sync.Mutex
	timers  map[core.SheetName]*time.Timer
	pending sync.WaitGroup
}

// New starts watching dir. Call Run to process events and Close to stop.
func New(dir string, refresher Refresher, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var sheets map[core.SheetName]struct{}
	if len(opts.Sheets) > 0 {
		sheets = make(map[core.SheetName]struct{}, len(opts.Sheets))
		for _, s := range opts.Sheets {
			sheets[s] = struct{}{}
		}
	}

	return &Watcher{
		dir:       dir,
		fsw:       fsw,
		refresher: refresher,
		debounce:  opts.Debounce,
		logger:    opts.Logger.With("component", "watch", "dir", dir),
		sheets:    sheets,
		timers:    make(map[core.SheetName]*time.Timer),
	}, nil
}

// Run processes file events until ctx is cancelled or the watcher is
// closed. Pending refreshes are cancelled on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, ok := w.sheetFor(event.Name)
			if !ok {
				continue
			}
			w.logger.Debug("sheet file changed", "sheet", name, "op", event.Op.String())
			w.schedule(ctx, name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Close stops watching and waits for in-flight refreshes.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	w.stopTimers()
	w.pending.Wait()
	return err
}

func (w *Watcher) sheetFor(path string) (core.SheetName, bool) {
	name, ok := csvsheet.SheetForFile(path)
	if !ok {
		return "", false
	}
	if w.sheets == nil {
		return name, true
	}
	_, known := w.sheets[name]
	return name, known
}

// schedule debounces refreshes per sheet.
func (w *Watcher) schedule(ctx context.Context, name core.SheetName) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[name]; ok && t.Stop() {
		w.pending.Done()
	}

	w.pending.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()

		w.mu.Lock()
		if w.timers[name] == timer {
			delete(w.timers, name)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if _, err := w.refresher.RefreshSheet(ctx, name); err != nil {
			w.logger.Error("sheet refresh failed", "sheet", name, "error", err)
			return
		}
		w.logger.Info("sheet refreshed from disk", "sheet", name)
	})
	w.timers[name] = timer
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, t := range w.timers {
		if t.Stop() {
			w.pending.Done()
		}
		delete(w.timers, name)
	}
}
