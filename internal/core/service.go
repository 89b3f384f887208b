package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultLoadTimeout bounds a full reload.
var DefaultLoadTimeout = 2 * time.Minute

// ServiceConfig configures a Service. Zero values fall back to defaults.
type ServiceConfig struct {
	Compute     ComputeOptions
	Filter      FilterConfig
	Sheets      []SheetName // sheets to load; defaults to every registered sheet
	LoadTimeout time.Duration
	Metrics     MetricsRecorder
	Logger      *slog.Logger
}

// Service ties a sheet loader to the recomputation graph. It is the single
// entry point the web server, the CLI and the watcher use.
type Service struct {
	loader      SheetLoader
	graph       *Graph
	metrics     MetricsRecorder
	logger      *slog.Logger
	names       []SheetName
	loadTimeout time.Duration

	defaultFilter FilterConfig

	// reloadMu serializes loads so a slow full reload cannot overwrite a
	// newer single-sheet refresh with stale data.
	reloadMu sync.Mutex

	diagMu    sync.RWMutex
	loadDiags map[SheetName]Diagnostic
}

// NewService creates a Service. Nothing is loaded until Reload is called.
func NewService(loader SheetLoader, cfg ServiceConfig) *Service {
	if cfg.Metrics == nil {
		cfg.Metrics = NoopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	if len(cfg.Sheets) == 0 {
		cfg.Sheets = Names()
	}
	if cfg.Filter.ActiveNames == nil {
		cfg.Filter.ActiveNames = NameSet{}
	}

	return &Service{
		loader:        loader,
		graph:         NewGraph(cfg.Compute, cfg.Filter, WithLogger(cfg.Logger), WithMetrics(cfg.Metrics)),
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		names:         cfg.Sheets,
		loadTimeout:   cfg.LoadTimeout,
		defaultFilter: cfg.Filter,
		loadDiags:     make(map[SheetName]Diagnostic),
	}
}

// SheetNames returns the sheets this service loads.
func (s *Service) SheetNames() []SheetName {
	return slices.Clone(s.names)
}

// Reload fetches every sheet and replaces the raw dataset.
func (s *Service) Reload(ctx context.Context) (*Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	start := time.Now()
	sheets, diags, err := LoadSheets(ctx, s.loader, s.names, s.metrics)
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}

	s.diagMu.Lock()
	s.loadDiags = make(map[SheetName]Diagnostic, len(diags))
	for _, d := range diags {
		s.loadDiags[d.Sheet] = d
	}
	s.diagMu.Unlock()

	snap, ok := s.graph.SetSheets(sheets)
	if !ok {
		snap = s.graph.Current()
	}

	LogDiagnostics(ctx, s.logger, s.Diagnostics())
	s.logger.Info("dataset reloaded",
		"sheets", len(sheets),
		"rows", sheets.RowCount(),
		"failed_sheets", len(diags),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

// RefreshSheet reloads one sheet and recomputes. Unregistered names
// return ErrUnknownSheet.
func (s *Service) RefreshSheet(ctx context.Context, name SheetName) (*Snapshot, error) {
	if !slices.Contains(s.names, name) {
		return nil, fmt.Errorf("refresh %q: %w", name, ErrUnknownSheet)
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	start := time.Now()
	table, err := LoadSheet(ctx, s.loader, name, s.logger)
	s.metrics.ObserveSheetLoad(name, len(table.Rows), time.Since(start), err)

	s.diagMu.Lock()
	if err != nil {
		s.loadDiags[name] = Diagnostic{Kind: DiagSheetLoadFailed, Sheet: name, Message: err.Error()}
	} else {
		delete(s.loadDiags, name)
	}
	s.diagMu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		// Same policy as a full load: a failed sheet becomes empty.
		s.logger.Warn("sheet refresh failed", "sheet", string(name), "error", err)
		table = Table{}
	}

	snap, ok := s.graph.SetSheet(name, table)
	if !ok {
		snap = s.graph.Current()
	}
	s.logger.Info("sheet refreshed", "sheet", string(name), "rows", len(table.Rows))
	return snap, nil
}

// SetFilter replaces the filter config and returns the resulting snapshot.
func (s *Service) SetFilter(cfg FilterConfig) *Snapshot {
	if cfg.ActiveNames == nil {
		cfg.ActiveNames = NameSet{}
	}
	snap, ok := s.graph.SetFilter(cfg)
	if !ok {
		return s.graph.Current()
	}
	return snap
}

// ResetFilter restores the configured default filter.
func (s *Service) ResetFilter() *Snapshot {
	return s.SetFilter(s.defaultFilter)
}

// DefaultFilter returns the filter restored by ResetFilter.
func (s *Service) DefaultFilter() FilterConfig {
	return s.defaultFilter
}

// Snapshot returns the current snapshot. It is never nil.
func (s *Service) Snapshot() *Snapshot {
	return s.graph.Current()
}

// Subscribe forwards to the graph.
func (s *Service) Subscribe() (<-chan *Snapshot, func()) {
	return s.graph.Subscribe()
}

// Diagnostics returns load failures followed by the current snapshot's
// data diagnostics.
func (s *Service) Diagnostics() []Diagnostic {
	s.diagMu.RLock()
	out := make([]Diagnostic, 0, len(s.loadDiags))
	for _, d := range s.loadDiags {
		out = append(out, d)
	}
	s.diagMu.RUnlock()

	sortDiagnostics(out)
	return append(out, s.graph.Current().Diagnostics...)
}

// Event finds an event by EVID or share id among all loaded events,
// filtered or not, and joins it.
func (s *Service) Event(id string) (MappedEvent, bool) {
	snap := s.graph.Current()
	for _, ev := range snap.Events {
		if ev.ID == id || (ev.ShareID() != "" && ev.ShareID() == id) {
			return snap.Dataset.AugmentEvent(ev), true
		}
	}
	return MappedEvent{}, false
}

// Person resolves a BIOID against the current indices.
func (s *Service) Person(bioID string) (Person, bool) {
	return s.graph.Current().Dataset.ResolvePerson(bioID)
}

// SuggestNames fuzzy-matches person names of the current snapshot.
func (s *Service) SuggestNames(query string, limit int) []NameSuggestion {
	snap := s.graph.Current()
	return suggestNames(snap.PersonNames, snap.AliasNames, query, limit)
}
