package core

import "github.com/sahilm/fuzzy"

// NameSuggestion is one autocomplete candidate. Name is always a canonical
// person name usable in FilterConfig.ActiveNames. When the query matched an
// alias, Alias holds it and Matched indexes into Alias instead of Name.
type NameSuggestion struct {
	Name    string `json:"name"`
	Alias   string `json:"alias,omitempty"`
	Score   int    `json:"score"`
	Matched []int  `json:"matched,omitempty"`
}

// nameSource adapts a name list to fuzzy.Source.
type nameSource []string

func (s nameSource) String(i int) string { return s[i] }
func (s nameSource) Len() int            { return len(s) }

// SuggestNames fuzzy-matches query against names and returns up to limit
// results, best first. An empty query returns the first names in order.
func SuggestNames(names []string, query string, limit int) []NameSuggestion {
	return suggestNames(names, nil, query, limit)
}

// suggestNames is SuggestNames with alias resolution: a hit on a key of
// canonical is reported under its canonical name, and each canonical name
// appears at most once.
func suggestNames(names []string, canonical map[string]string, query string, limit int) []NameSuggestion {
	if limit <= 0 {
		limit = 10
	}

	var candidates []NameSuggestion
	if query == "" {
		candidates = make([]NameSuggestion, len(names))
		for i, n := range names {
			candidates[i] = NameSuggestion{Name: n}
		}
	} else {
		matches := fuzzy.FindFrom(query, nameSource(names))
		candidates = make([]NameSuggestion, len(matches))
		for i, m := range matches {
			candidates[i] = NameSuggestion{Name: m.Str, Score: m.Score, Matched: m.MatchedIndexes}
		}
	}

	out := make([]NameSuggestion, 0, min(limit, len(candidates)))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if len(out) == limit {
			break
		}
		if name, ok := canonical[c.Name]; ok {
			c.Alias, c.Name = c.Name, name
		}
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}
