package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/eventmap/internal/core"
	"github.com/JonMunkholm/eventmap/internal/logging"
)

// streamHeartbeat keeps idle proxies from closing the stream.
var streamHeartbeat = 25 * time.Second

// handleStream pushes a snapshot summary as a server-sent event each time
// a snapshot is published, starting with the current one. The event id is
// the snapshot generation, so a client reconnecting with Last-Event-ID only
// receives newer snapshots.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	updates, cancel := s.service.Subscribe()
	defer cancel()

	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logging.FromContext(r.Context()).Warn("stream: flush unsupported", "error", err)
		return
	}

	// Generations only grow; anything at or below lastGen is stale.
	lastGen, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)
	send := func(snap *core.Snapshot) bool {
		if snap.Generation <= lastGen {
			return true
		}
		id := strconv.FormatUint(snap.Generation, 10)
		if err := writeEvent(w, id, "snapshot", Summarize(snap)); err != nil {
			return false
		}
		lastGen = snap.Generation
		return rc.Flush() == nil
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if !send(snap) {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			if rc.Flush() != nil {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, id, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", id, event, data)
	return err
}
