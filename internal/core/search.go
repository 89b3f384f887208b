package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSearchText folds s for matching: accents are stripped, letters
// lowercased, and every rune that is not a letter, digit, underscore or
// whitespace becomes a space.
func NormalizeSearchText(s string) string {
	if s == "" {
		return ""
	}

	// transform.Chain is stateful, so each call gets its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '_', unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, folded)
}

// Query is a parsed search: the distinct normalized tokens of the input.
type Query struct {
	Tokens []string
}

// ParseQuery tokenizes search text. Blank text yields an empty query that
// matches everything.
func ParseQuery(text string) Query {
	fields := strings.Fields(NormalizeSearchText(text))
	if len(fields) == 0 {
		return Query{}
	}

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return Query{Tokens: tokens}
}

// Empty reports whether the query has no tokens.
func (q Query) Empty() bool {
	return len(q.Tokens) == 0
}

// Match reports whether every token is a substring of corpus. The corpus
// must already be normalized with NormalizeSearchText.
func (q Query) Match(corpus string) bool {
	for _, tok := range q.Tokens {
		if !strings.Contains(corpus, tok) {
			return false
		}
	}
	return true
}

// SearchCorpus builds the normalized text an event is searched against:
// person name, location name and city, institution name, description, raw
// years, date range and person aliases.
func (d Dataset) SearchCorpus(ev Event) string {
	parts := make([]string, 0, 12)

	if p, ok := d.ResolvePersonRef(ev.Person); ok {
		parts = append(parts, p.Name)
		parts = append(parts, p.Aliases...)
	}
	if loc, ok := d.Location(ev); ok {
		parts = append(parts, d.Field(loc, FieldLOCNAME), d.Field(loc, FieldCITY))
	}
	if ins, ok := d.Institution(ev); ok {
		parts = append(parts, d.Field(ins, FieldINSNAME))
	}
	parts = append(parts, ev.Description, ev.RawEarliestYear, ev.RawLatestYear, ev.DateRange)

	return NormalizeSearchText(strings.Join(parts, " "))
}

// Matches reports whether ev satisfies the search text.
func (d Dataset) Matches(ev Event, searchText string) bool {
	q := ParseQuery(searchText)
	if q.Empty() {
		return true
	}
	return q.Match(d.SearchCorpus(ev))
}

// Matches is Dataset.Matches with the built-in alias table.
func Matches(ev Event, searchText string, idx Indices) bool {
	return NewDataset(idx, nil).Matches(ev, searchText)
}
