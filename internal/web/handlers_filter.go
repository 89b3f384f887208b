package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/eventmap/internal/core"
)

// maxFilterBody bounds PUT /api/filter bodies; active name sets can be large.
const maxFilterBody = 1 << 20

func (s *Server) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Snapshot().Filter)
}

// handlePutFilter replaces the whole filter config and returns the summary
// of the recomputed snapshot.
func (s *Server) handlePutFilter(w http.ResponseWriter, r *http.Request) {
	cfg, err := decodeFilter(http.MaxBytesReader(w, r.Body, maxFilterBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	snap := s.service.SetFilter(cfg)
	writeJSON(w, http.StatusOK, Summarize(snap))
}

func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Summarize(s.service.ResetFilter()))
}

// decodeFilter reads one filter config. Unknown fields are rejected so
// typos do not silently reset a control to its zero value.
func decodeFilter(body io.Reader) (core.FilterConfig, error) {
	var cfg core.FilterConfig

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return cfg, fmt.Errorf("filter body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return cfg, errors.New("empty filter body")
		default:
			return cfg, fmt.Errorf("invalid filter: %v", err)
		}
	}
	if dec.More() {
		return cfg, errors.New("invalid filter: trailing data")
	}

	if cfg.DateRange.Min > cfg.DateRange.Max {
		return cfg, fmt.Errorf("invalid filter: dateRange.min %d is after dateRange.max %d",
			cfg.DateRange.Min, cfg.DateRange.Max)
	}
	if cfg.ActiveNames == nil {
		cfg.ActiveNames = core.NameSet{}
	}
	return cfg, nil
}
