package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/eventmap/internal/core"
	"github.com/JonMunkholm/eventmap/internal/logging"
)

// handleReload fetches every sheet again. The reload is detached from the
// request so a client hanging up does not abandon it halfway; the service's
// load timeout still bounds it.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	snap, err := s.service.Reload(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("reload requested",
		"snapshot", snap.ID,
		"events", len(snap.Events),
	)
	writeJSON(w, http.StatusOK, Summarize(snap))
}

// handleReloadSheet refreshes one registered sheet.
func (s *Server) handleReloadSheet(w http.ResponseWriter, r *http.Request) {
	name := core.SheetName(chi.URLParam(r, "sheet"))
	if _, ok := core.Get(name); !ok {
		s.respondError(w, r, fmt.Errorf("refresh %q: %w", name, core.ErrUnknownSheet))
		return
	}

	snap, err := s.service.RefreshSheet(context.WithoutCancel(r.Context()), name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Summarize(snap))
}
