package core

// convert.go provides parsing helpers for raw spreadsheet cells.
//
// These functions handle the messy reality of hand-maintained sheets:
//   - Years with trailing annotations ("1520?", "1520 ca.")
//   - Certainty codes typed as text
//   - Coordinates stored as a single "lat,lon" cell
//   - Semicolon-delimited foreign key lists with irregular spacing
//   - Common export artifacts (BOM, formula prefixes, stray quotes)
//
// Parsers return OptInt{Valid: false} for empty/invalid input; default
// substitution is left to the call site so every default stays visible.

import (
	"math"
	"strconv"
	"strings"
)

const byteOrderMark = "\uFEFF"

// CleanHeader trims whitespace and any leading byte-order marks from a column name.
func CleanHeader(h string) string {
	h = strings.TrimSpace(h)
	for strings.HasPrefix(h, byteOrderMark) {
		h = strings.TrimSpace(strings.TrimPrefix(h, byteOrderMark))
	}
	return h
}

// CleanCell removes common export artifacts from a cell value:
// - Trims whitespace and byte-order marks
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = CleanHeader(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// ParseYear parses the leading integer of a year cell.
// "1520", " 1520 ", "1520?" and "1520-1525" all yield 1520; "", "c.1520"
// and "unknown" are absent.
func ParseYear(s string) OptInt {
	return parseLeadingInt(s)
}

// ParseCertainty parses a certainty code (1 = certain ... 4 = conjectural).
// Any integer is accepted; range checks belong to the consumer.
func ParseCertainty(s string) OptInt {
	return parseLeadingInt(s)
}

// parseLeadingInt reads an optional sign followed by decimal digits from the
// start of s, ignoring anything after the digits.
func parseLeadingInt(s string) OptInt {
	s = CleanCell(s)
	if s == "" {
		return OptInt{}
	}

	end := 0
	if s[0] == '+' || s[0] == '-' {
		end = 1
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return OptInt{}
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return OptInt{}
	}
	return Some(n)
}

// Coordinates is a [latitude, longitude] pair.
type Coordinates [2]float64

// ParseCoordinates parses a "lat,lon" cell. Exactly two comma-separated,
// finite floating-point numbers are required; any other shape is invalid.
func ParseCoordinates(s string) (Coordinates, bool) {
	s = CleanCell(s)
	if s == "" {
		return Coordinates{}, false
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinates{}, false
	}

	var c Coordinates
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Coordinates{}, false
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Coordinates{}, false
		}
		c[i] = f
	}
	return c, true
}

// SplitList splits a semicolon-delimited cell, trimming whitespace around
// each entry. Interior empty entries are kept so positional alignment with
// sibling lists survives. A blank cell yields nil.
func SplitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ";")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// SplitNonEmpty is SplitList without the empty entries.
func SplitNonEmpty(s string) []string {
	parts := SplitList(s)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
