package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/eventmap/internal/core"
	"github.com/JonMunkholm/eventmap/internal/logging"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeNotFound     = "NOT_FOUND"
	CodeUnknownSheet = "UNKNOWN_SHEET"
	CodeTimeout      = "TIMEOUT"
	CodeInternal     = "INTERNAL"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// respondError logs err with the request id and writes a sanitized error
// body. The status and code are derived from err.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classifyError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", code,
		"error", err.Error(),
	)

	writeError(w, status, code, msg)
}

func classifyError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, core.ErrUnknownSheet):
		return http.StatusNotFound, CodeUnknownSheet, "unknown sheet"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout, "loading the source timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, CodeTimeout, "request cancelled"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}
}

// writeError writes an error body the client may display directly.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Message: message, Code: code})
}

// writeJSON encodes v as the response body. Encoding errors are only
// logged since the status is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode failed", "error", err)
	}
}
