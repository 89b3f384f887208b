package core

import (
	"sort"
	"strings"
)

// InferKeyColumn picks the primary key column of a dimension table.
// Known patterns are tried first, in order, against the cleaned headers.
// Failing that, the first column whose name contains "id" (any case) wins.
// generic reports whether the fallback heuristic was used.
func InferKeyColumn(table Table, patterns []string) (column string, generic bool, ok bool) {
	cols := table.ColumnOrder()

	for _, p := range patterns {
		want := CleanHeader(p)
		for _, c := range cols {
			if strings.EqualFold(CleanHeader(c), want) {
				return c, false, true
			}
		}
	}

	for _, c := range cols {
		if strings.Contains(strings.ToLower(CleanHeader(c)), "id") {
			return c, true, true
		}
	}
	return "", false, false
}

// BuildIndices keys every dimension sheet by its inferred primary key.
// The Events fact table is never indexed. Key values are trimmed; rows with
// an empty key are skipped and duplicate keys resolve to the last row.
// Sheets without an inferable key are omitted. Every such case is reported
// as a diagnostic rather than an error.
func BuildIndices(sheets Sheets, schema Schema) (Indices, []Diagnostic) {
	names := make([]SheetName, 0, len(sheets))
	for name := range sheets {
		if name == SheetEvents {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	indices := make(Indices, len(names))
	var diags []Diagnostic

	for _, name := range names {
		table := sheets[name]

		col, generic, ok := InferKeyColumn(table, schema.KeyColumns(name))
		if !ok {
			diags = append(diags, Diagnostic{
				Kind:    DiagSheetOmitted,
				Sheet:   name,
				Count:   len(table.Rows),
				Message: "no key column could be inferred",
			})
			continue
		}
		if generic {
			diags = append(diags, Diagnostic{
				Kind:    DiagKeyInferred,
				Sheet:   name,
				Field:   col,
				Message: "key column chosen by id heuristic",
			})
		}

		idx := make(Index, len(table.Rows))
		empty := 0
		dupes := 0
		for _, row := range table.Rows {
			key := strings.TrimSpace(row[col])
			if key == "" {
				empty++
				continue
			}
			if _, exists := idx[key]; exists {
				dupes++
			}
			idx[key] = row
		}

		if empty > 0 {
			diags = append(diags, Diagnostic{
				Kind:    DiagEmptyKeys,
				Sheet:   name,
				Field:   col,
				Count:   empty,
				Message: "rows with an empty key were skipped",
			})
		}
		if dupes > 0 {
			diags = append(diags, Diagnostic{
				Kind:    DiagDuplicateKeys,
				Sheet:   name,
				Field:   col,
				Count:   dupes,
				Message: "duplicate keys resolved to the last row",
			})
		}

		indices[name] = idx
	}

	return indices, diags
}
