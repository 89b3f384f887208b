package core

import (
	"context"
	"log/slog"
	"sort"
)

// DiagnosticKind classifies a non-fatal data problem.
type DiagnosticKind string

const (
	DiagKeyInferred     DiagnosticKind = "key_inferred"
	DiagSheetOmitted    DiagnosticKind = "sheet_omitted"
	DiagEmptyKeys       DiagnosticKind = "empty_keys"
	DiagDuplicateKeys   DiagnosticKind = "duplicate_keys"
	DiagSheetLoadFailed DiagnosticKind = "sheet_load_failed"
	DiagMissingField    DiagnosticKind = "missing_field"
	DiagUnmappable      DiagnosticKind = "unmappable"
	DiagHeaderSkipped   DiagnosticKind = "header_skipped"
)

// Diagnostic records a data problem that was tolerated rather than failed on.
// Problems are aggregated per sheet and kind; Count says how many rows hit it.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Sheet   SheetName      `json:"sheet,omitempty"`
	Field   string         `json:"field,omitempty"`
	Key     string         `json:"key,omitempty"`
	Count   int            `json:"count,omitempty"`
	Message string         `json:"message"`
}

// Level returns the log level a diagnostic is reported at.
func (d Diagnostic) Level() slog.Level {
	switch d.Kind {
	case DiagKeyInferred:
		return slog.LevelDebug
	case DiagSheetLoadFailed, DiagSheetOmitted:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// LogDiagnostics writes each diagnostic to logger at its level.
func LogDiagnostics(ctx context.Context, logger *slog.Logger, diags []Diagnostic) {
	for _, d := range diags {
		attrs := []slog.Attr{slog.String("kind", string(d.Kind))}
		if d.Sheet != "" {
			attrs = append(attrs, slog.String("sheet", string(d.Sheet)))
		}
		if d.Field != "" {
			attrs = append(attrs, slog.String("field", d.Field))
		}
		if d.Key != "" {
			attrs = append(attrs, slog.String("key", d.Key))
		}
		if d.Count > 0 {
			attrs = append(attrs, slog.Int("count", d.Count))
		}
		logger.LogAttrs(ctx, d.Level(), d.Message, attrs...)
	}
}

// sortDiagnostics orders diagnostics by sheet, then kind.
func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Sheet != diags[j].Sheet {
			return diags[i].Sheet < diags[j].Sheet
		}
		return diags[i].Kind < diags[j].Kind
	})
}
