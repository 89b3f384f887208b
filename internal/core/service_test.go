package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// memLoader serves sheets from memory and can fail individual sheets.
type memLoader struct {
	mu     sync.Mutex
	sheets Sheets
	fail   map[SheetName]error
	calls  map[SheetName]int
}

func newMemLoader(sheets Sheets) *memLoader {
	return &memLoader{sheets: sheets, fail: map[SheetName]error{}, calls: map[SheetName]int{}}
}

func (l *memLoader) LoadSheet(ctx context.Context, name SheetName) (Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[name]++
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}
	if err := l.fail[name]; err != nil {
		return Table{}, err
	}
	t, ok := l.sheets[name]
	if !ok {
		return Table{}, ErrSheetNotFound
	}
	return t, nil
}

func (l *memLoader) set(name SheetName, t Table) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sheets[name] = t
}

var allTestSheets = []SheetName{
	SheetEvents, SheetLocations, SheetComposers, SheetMusicians, SheetNonMusicians,
	SheetInstitutions, SheetDocEntries, SheetArchivalDocs, SheetBibliography, SheetHeaders,
}

func newTestService(loader SheetLoader) *Service {
	return NewService(loader, ServiceConfig{
		Compute: testComputeOptions(),
		Filter:  DefaultFilterConfig(),
		Sheets:  allTestSheets,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// ----------------------------------------------------------------------------
// LoadSheets Tests
// ----------------------------------------------------------------------------

func TestLoadSheets_FailedSheetBecomesEmpty(t *testing.T) {
	loader := newMemLoader(fixtureSheets())
	loader.fail[SheetLocations] = errors.New("boom")
	m := &recordingMetrics{}

	sheets, diags, err := LoadSheets(context.Background(), loader, allTestSheets, m)
	if err != nil {
		t.Fatalf("LoadSheets: %v", err)
	}

	if len(sheets) != len(allTestSheets) {
		t.Errorf("len(sheets) = %d, want %d", len(sheets), len(allTestSheets))
	}
	if rows := len(sheets[SheetLocations].Rows); rows != 0 {
		t.Errorf("failed sheet rows = %d, want 0", rows)
	}
	if len(sheets[SheetEvents].Rows) != 5 {
		t.Errorf("Events rows = %d, want 5", len(sheets[SheetEvents].Rows))
	}
	if len(diags) != 1 || diags[0].Kind != DiagSheetLoadFailed || diags[0].Sheet != SheetLocations {
		t.Errorf("diags = %+v, want one load failure for Locations", diags)
	}
	if m.loads[SheetLocations] == nil {
		t.Error("metrics did not record the failed load")
	}
}

func TestLoadSheets_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := LoadSheets(ctx, newMemLoader(fixtureSheets()), allTestSheets, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("LoadSheets error = %v, want context.Canceled", err)
	}
}

// ----------------------------------------------------------------------------
// Service Tests
// ----------------------------------------------------------------------------

func TestService_Reload(t *testing.T) {
	svc := newTestService(newMemLoader(fixtureSheets()))

	snap, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(snap.Events) != 5 {
		t.Errorf("len(Events) = %d, want 5", len(snap.Events))
	}
	if svc.Snapshot() != snap {
		t.Error("Snapshot() is not the reload result")
	}
}

func TestService_RefreshSheet(t *testing.T) {
	loader := newMemLoader(fixtureSheets())
	svc := newTestService(loader)
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	loader.set(SheetMusicians, Table{
		Columns: []string{"BMUID", "BMUNAME"},
		Rows:    []Row{{"BMUID": "BMU1", "BMUNAME": "Renamed"}},
	})

	if _, err := svc.RefreshSheet(context.Background(), SheetMusicians); err != nil {
		t.Fatalf("RefreshSheet: %v", err)
	}
	p, ok := svc.Person("BMU1")
	if !ok || p.Name != "Renamed" {
		t.Errorf("Person(BMU1) = %+v, %v, want Renamed", p, ok)
	}
	if loader.calls[SheetEvents] != 1 {
		t.Errorf("Events loaded %d times, want 1", loader.calls[SheetEvents])
	}
}

func TestService_RefreshUnknownSheet(t *testing.T) {
	svc := newTestService(newMemLoader(Sheets{}))

	_, err := svc.RefreshSheet(context.Background(), "Nope")
	if !errors.Is(err, ErrUnknownSheet) {
		t.Errorf("RefreshSheet error = %v, want ErrUnknownSheet", err)
	}
}

func TestService_RefreshFailureKeepsRunning(t *testing.T) {
	loader := newMemLoader(fixtureSheets())
	svc := newTestService(loader)
	svc.Reload(context.Background())

	loader.fail[SheetLocations] = errors.New("timeout")
	snap, err := svc.RefreshSheet(context.Background(), SheetLocations)
	if err != nil {
		t.Fatalf("RefreshSheet: %v", err)
	}
	if len(MappableOnly(snap.Mapped)) != 0 {
		t.Error("failed Locations refresh left mappable events")
	}

	found := false
	for _, d := range svc.Diagnostics() {
		if d.Kind == DiagSheetLoadFailed && d.Sheet == SheetLocations {
			found = true
		}
	}
	if !found {
		t.Error("Diagnostics() missing the load failure")
	}
}

func TestService_FilterAndReset(t *testing.T) {
	svc := newTestService(newMemLoader(fixtureSheets()))
	svc.Reload(context.Background())

	cfg := DefaultFilterConfig()
	cfg.SearchText = "weerbeke"
	snap := svc.SetFilter(cfg)
	if got := eventIDs(snap.Filtered); len(got) != 1 || got[0] != "EV002" {
		t.Errorf("Filtered = %v, want [EV002]", got)
	}

	snap = svc.ResetFilter()
	if snap.Filter.SearchText != "" || len(snap.Filtered) != 4 {
		t.Errorf("after reset: search %q, %d filtered", snap.Filter.SearchText, len(snap.Filtered))
	}
}

func TestService_EventLookup(t *testing.T) {
	svc := newTestService(newMemLoader(fixtureSheets()))
	svc.Reload(context.Background())

	for _, id := range []string{"EV004", "04"} {
		m, ok := svc.Event(id)
		if !ok || m.ID != "EV004" {
			t.Errorf("Event(%q) = %v, %v, want EV004", id, m.ID, ok)
		}
	}
	if _, ok := svc.Event("EV999"); ok {
		t.Error("Event(EV999) found")
	}
}

func TestService_SuggestNames(t *testing.T) {
	svc := newTestService(newMemLoader(fixtureSheets()))
	svc.Reload(context.Background())

	got := svc.SuggestNames("weer", 5)
	if len(got) == 0 || got[0].Name != "Gaspar van Weerbeke" {
		t.Errorf("SuggestNames(weer) = %+v, want Gaspar van Weerbeke first", got)
	}
}

func TestService_SuggestedAliasSelectsEvents(t *testing.T) {
	svc := newTestService(newMemLoader(fixtureSheets()))
	svc.Reload(context.Background())

	got := svc.SuggestNames("Jodocus", 5)
	if len(got) == 0 {
		t.Fatal("SuggestNames(Jodocus) returned nothing")
	}
	if got[0].Name != "Josquin des Prez" || got[0].Alias != "Jodocus Pratensis" {
		t.Fatalf("first suggestion = %+v, want Josquin des Prez via alias", got[0])
	}

	cfg := DefaultFilterConfig()
	cfg.ActiveNames = NewNameSet(got[0].Name)
	snap := svc.SetFilter(cfg)
	if ids := eventIDs(snap.Filtered); len(ids) != 2 || ids[0] != "EV001" || ids[1] != "EV005" {
		t.Errorf("Filtered = %v, want [EV001 EV005]", ids)
	}
}

func TestService_SchedulerStopsOnCancel(t *testing.T) {
	svc := newTestService(newMemLoader(fixtureSheets()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartReloadScheduler(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	if len(svc.Snapshot().Events) != 5 {
		t.Error("scheduler never reloaded")
	}
}
