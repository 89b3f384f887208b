package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/eventmap/internal/core"
)

// Paging and suggestion limits.
const (
	defaultEventLimit = 500
	maxEventLimit     = 5000
	defaultNameLimit  = 10
	maxNameLimit      = 50
)

// SnapshotSummary describes a published snapshot without its payload.
type SnapshotSummary struct {
	ID             string                 `json:"id"`
	Generation     uint64                 `json:"generation"`
	ComputedAt     time.Time              `json:"computedAt"`
	DurationMs     int64                  `json:"durationMs"`
	Filter         core.FilterConfig      `json:"filter"`
	SheetRows      map[core.SheetName]int `json:"sheetRows"`
	Events         int                    `json:"events"`
	Filtered       int                    `json:"filtered"`
	Mappable       int                    `json:"mappable"`
	IndexedSheets  int                    `json:"indexedSheets"`
	Diagnostics    int                    `json:"diagnostics"`
	HistogramTotal int                    `json:"histogramTotal"`
}

// Summarize builds the summary of snap.
func Summarize(snap *core.Snapshot) SnapshotSummary {
	st := snap.Stats()
	return SnapshotSummary{
		ID:             snap.ID,
		Generation:     snap.Generation,
		ComputedAt:     snap.ComputedAt,
		DurationMs:     snap.Duration.Milliseconds(),
		Filter:         snap.Filter,
		SheetRows:      snap.SheetRows,
		Events:         st.Events,
		Filtered:       st.Filtered,
		Mappable:       st.Mappable,
		IndexedSheets:  st.IndexedSheets,
		Diagnostics:    st.Diagnostics,
		HistogramTotal: snap.Histogram.Total(),
	}
}

// EventList is one page of augmented events.
type EventList struct {
	Snapshot string             `json:"snapshot"`
	Total    int                `json:"total"`
	Offset   int                `json:"offset"`
	Limit    int                `json:"limit"`
	Events   []core.MappedEvent `json:"events"`
}

// HistogramResponse is the decade histogram of the filtered events.
type HistogramResponse struct {
	Snapshot string        `json:"snapshot"`
	Start    int           `json:"start"`
	End      int           `json:"end"`
	Step     int           `json:"step"`
	Total    int           `json:"total"`
	Buckets  []core.Bucket `json:"buckets"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"snapshot":   snap.ID,
		"generation": snap.Generation,
		"events":     len(snap.Events),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Summarize(s.service.Snapshot()))
}

// handleListEvents returns filtered, augmented events. mappable=true keeps
// only events with a resolved location and coordinates.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	snap := s.service.Snapshot()

	events := snap.Mapped
	if b, _ := strconv.ParseBool(q.Get("mappable")); b {
		events = make([]core.MappedEvent, 0, len(snap.Mapped))
		for _, m := range snap.Mapped {
			if m.Mappable() {
				events = append(events, m)
			}
		}
	}

	limit := parseIntParam(r, "limit", defaultEventLimit)
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	offset := parseIntParam(r, "offset", 0)

	page := []core.MappedEvent{}
	if offset < len(events) {
		page = events[offset:min(offset+limit, len(events))]
	}

	writeJSON(w, http.StatusOK, EventList{
		Snapshot: snap.ID,
		Total:    len(events),
		Offset:   offset,
		Limit:    limit,
		Events:   page,
	})
}

// handleGetEvent looks an event up by EVID or share id, whether or not it
// passes the current filter.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	ev, ok := s.service.Event(id)
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	writeJSON(w, http.StatusOK, HistogramResponse{
		Snapshot: snap.ID,
		Start:    s.cfg.Filter.HistogramStart,
		End:      s.cfg.Filter.HistogramEnd,
		Step:     s.cfg.Filter.HistogramStep,
		Total:    snap.Histogram.Total(),
		Buckets:  snap.Histogram.Buckets(),
	})
}

func (s *Server) handleSuggestNames(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := parseIntParam(r, "limit", defaultNameLimit)
	if limit > maxNameLimit {
		limit = maxNameLimit
	}

	names := s.service.SuggestNames(query, limit)
	if names == nil {
		names = []core.NameSuggestion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query": query,
		"names": names,
	})
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	bioID := strings.TrimSpace(chi.URLParam(r, "bioID"))
	p, ok := s.service.Person(bioID)
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "person not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleHeaders(w http.ResponseWriter, r *http.Request) {
	headers := s.service.Snapshot().Headers
	if headers == nil {
		headers = core.HeaderLabels{}
	}
	writeJSON(w, http.StatusOK, headers)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	diags := s.service.Diagnostics()
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":    s.service.Snapshot().ID,
		"count":       len(diags),
		"diagnostics": diags,
	})
}

// SheetInfo describes one loaded sheet.
type SheetInfo struct {
	Name  core.SheetName `json:"name"`
	Label string         `json:"label"`
	Kind  string         `json:"kind"`
	Rows  int            `json:"rows"`
}

func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	names := s.service.SheetNames()

	out := make([]SheetInfo, 0, len(names))
	for _, name := range names {
		info := SheetInfo{Name: name, Label: string(name), Kind: "dimension", Rows: snap.SheetRows[name]}
		if def, ok := core.Get(name); ok {
			info.Label = def.Label
			if def.Kind == core.KindFact {
				info.Kind = "fact"
			}
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

// parseIntParam parses a non-negative integer query parameter, falling back
// to def when it is missing or invalid.
func parseIntParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return def
	}
	return i
}
