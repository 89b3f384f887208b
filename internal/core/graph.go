package core

// graph.go holds the two input slots (raw sheets and filter config) and
// republishes a fully recomputed Snapshot whenever either changes.
//
// Writes are serialized by generation: each write bumps the generation,
// computes outside the lock, and publishes only if no newer write arrived
// in the meantime. Readers only ever see complete snapshots.

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ComputeOptions parameterizes the derived chain.
type ComputeOptions struct {
	Schema         Schema
	HistogramStart int
	HistogramEnd   int
	HistogramStep  int
}

// DefaultComputeOptions uses the default schema and the 1400-1600 decade
// histogram.
func DefaultComputeOptions() ComputeOptions {
	return ComputeOptions{
		Schema:         DefaultSchema(),
		HistogramStart: DefaultStartYear,
		HistogramEnd:   DefaultEndYear,
		HistogramStep:  DecadeStep,
	}
}

// Snapshot is one consistent result of the derived chain for a given
// sheets/filter pair. Snapshots are immutable once published.
type Snapshot struct {
	ID         string        `json:"id"`
	Generation uint64        `json:"generation"`
	ComputedAt time.Time     `json:"computedAt"`
	Duration   time.Duration `json:"-"`

	Filter      FilterConfig      `json:"filter"`
	Dataset     Dataset           `json:"-"`
	Events      []Event           `json:"-"`
	Filtered    []Event           `json:"-"`
	Mapped      []MappedEvent     `json:"-"`
	Histogram   Histogram         `json:"-"`
	Headers     HeaderLabels      `json:"-"`
	PersonNames []string          `json:"-"`
	AliasNames  map[string]string `json:"-"`
	Diagnostics []Diagnostic      `json:"-"`
	SheetRows   map[SheetName]int `json:"sheetRows"`
}

// Stats summarizes the snapshot.
func (s *Snapshot) Stats() SnapshotStats {
	mappable := 0
	for _, m := range s.Mapped {
		if m.Mappable() {
			mappable++
		}
	}
	return SnapshotStats{
		Events:        len(s.Events),
		Filtered:      len(s.Filtered),
		Mappable:      mappable,
		IndexedSheets: len(s.Dataset.Indices),
		Diagnostics:   len(s.Diagnostics),
	}
}

// Compute runs the whole derived chain: normalize events, build indices,
// filter, augment and aggregate. It is pure; the result carries no id or
// generation until a Graph publishes it.
func Compute(sheets Sheets, cfg FilterConfig, opts ComputeOptions) *Snapshot {
	start := time.Now()

	aliases := opts.Schema.Fields
	if aliases == nil {
		aliases = defaultAliases
	}

	indices, diags := BuildIndices(sheets, opts.Schema)
	ds := NewDataset(indices, aliases)

	events, evDiags := NormalizeEvents(sheets[SheetEvents], aliases)
	diags = append(diags, evDiags...)

	headers, hdrDiags := BuildHeaderLabels(sheets[SheetHeaders], aliases)
	diags = append(diags, hdrDiags...)

	filtered := ds.Filter(events, cfg)
	mapped := ds.Augment(filtered)
	diags = append(diags, unmappableDiagnostics(mapped)...)

	rows := make(map[SheetName]int, len(sheets))
	for name, t := range sheets {
		rows[name] = len(t.Rows)
	}

	names, aliasNames := personNames(ds)

	return &Snapshot{
		ComputedAt:  start,
		Duration:    time.Since(start),
		Filter:      cfg,
		Dataset:     ds,
		Events:      events,
		Filtered:    filtered,
		Mapped:      mapped,
		Histogram:   BuildHistogram(filtered, opts.HistogramStart, opts.HistogramEnd, opts.HistogramStep),
		Headers:     headers,
		PersonNames: names,
		AliasNames:  aliasNames,
		Diagnostics: diags,
		SheetRows:   rows,
	}
}

// personNames collects the distinct names and aliases of every indexed
// person, sorted, and maps each alias to the canonical name it belongs to.
// An alias that is also some person's canonical name is not mapped; an alias
// shared by several people maps to the smallest of their names.
func personNames(ds Dataset) ([]string, map[string]string) {
	seen := make(map[string]struct{})
	canonical := make(map[string]struct{})
	aliases := make(map[string]string)
	for _, t := range []PersonType{PersonComposer, PersonMusician, PersonNonMusician} {
		for id := range ds.Indices[t.Sheet()] {
			p, ok := ds.ResolvePersonRef(PersonRef{Type: t, ID: id})
			if !ok || p.Name == "" {
				continue
			}
			seen[p.Name] = struct{}{}
			canonical[p.Name] = struct{}{}
			for _, a := range p.Aliases {
				if a == "" || a == p.Name {
					continue
				}
				seen[a] = struct{}{}
				if cur, ok := aliases[a]; !ok || p.Name < cur {
					aliases[a] = p.Name
				}
			}
		}
	}
	for a := range aliases {
		if _, ok := canonical[a]; ok {
			delete(aliases, a)
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, aliases
}

// Graph owns the input slots and the currently published snapshot.
type Graph struct {
	opts    ComputeOptions
	logger  *slog.Logger
	metrics MetricsRecorder

	mu         sync.Mutex
	sheets     Sheets
	filter     FilterConfig
	generation uint64

	current atomic.Pointer[Snapshot]

	subMu   sync.Mutex
	subs    map[uint64]chan *Snapshot
	nextSub uint64
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger sets the logger diagnostics are written to.
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) { g.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) GraphOption {
	return func(g *Graph) { g.metrics = m }
}

// NewGraph creates a graph with empty sheets and the given filter, and
// publishes the initial (empty) snapshot.
func NewGraph(opts ComputeOptions, filter FilterConfig, options ...GraphOption) *Graph {
	g := &Graph{
		opts:    opts,
		logger:  slog.Default(),
		metrics: NoopMetrics{},
		sheets:  Sheets{},
		filter:  filter,
		subs:    make(map[uint64]chan *Snapshot),
	}
	for _, o := range options {
		o(g)
	}
	g.write(func() {})
	return g
}

// Current returns the latest published snapshot. It is never nil.
func (g *Graph) Current() *Snapshot {
	return g.current.Load()
}

// Filter returns the filter config held in the input slot.
func (g *Graph) Filter() FilterConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.filter
}

// Sheets returns the raw sheets held in the input slot.
func (g *Graph) Sheets() Sheets {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sheets
}

// SetSheets replaces the whole raw dataset. It returns the published
// snapshot, or false if a newer write superseded this one.
func (g *Graph) SetSheets(sheets Sheets) (*Snapshot, bool) {
	if sheets == nil {
		sheets = Sheets{}
	}
	return g.write(func() { g.sheets = sheets })
}

// SetSheet replaces a single sheet, leaving the others untouched.
func (g *Graph) SetSheet(name SheetName, table Table) (*Snapshot, bool) {
	return g.write(func() {
		next := g.sheets.Clone()
		next[name] = table
		g.sheets = next
	})
}

// SetFilter replaces the filter config wholesale.
func (g *Graph) SetFilter(cfg FilterConfig) (*Snapshot, bool) {
	return g.write(func() { g.filter = cfg })
}

func (g *Graph) write(mutate func()) (*Snapshot, bool) {
	g.mu.Lock()
	mutate()
	g.generation++
	gen := g.generation
	sheets, cfg := g.sheets, g.filter
	g.mu.Unlock()

	snap := Compute(sheets, cfg, g.opts)
	snap.Generation = gen

	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.generation {
		g.metrics.ObserveSuperseded()
		g.logger.Debug("recompute superseded", "generation", gen, "latest", g.generation)
		return nil, false
	}

	snap.ID = uuid.NewString()
	g.current.Store(snap)

	stats := snap.Stats()
	g.metrics.ObserveRecompute(stats, snap.Duration)
	g.logger.Debug("snapshot published",
		"id", snap.ID,
		"generation", gen,
		"events", stats.Events,
		"filtered", stats.Filtered,
		"mappable", stats.Mappable,
		"duration_ms", snap.Duration.Milliseconds(),
	)

	g.broadcast(snap)
	return snap, true
}

// Subscribe returns a channel that receives every published snapshot,
// starting with the current one. A slow subscriber only ever holds the
// latest snapshot. Call the returned func to unsubscribe.
func (g *Graph) Subscribe() (<-chan *Snapshot, func()) {
	ch := make(chan *Snapshot, 1)

	g.subMu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = ch
	if cur := g.current.Load(); cur != nil {
		ch <- cur
	}
	g.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			g.subMu.Lock()
			delete(g.subs, id)
			g.subMu.Unlock()
		})
	}
}

// SubscriberCount returns the number of active subscribers.
func (g *Graph) SubscriberCount() int {
	g.subMu.Lock()
	defer g.subMu.Unlock()
	return len(g.subs)
}

func (g *Graph) broadcast(snap *Snapshot) {
	g.subMu.Lock()
	defer g.subMu.Unlock()

	for _, ch := range g.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Drop the stale value and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
