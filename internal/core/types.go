// Package core provides the data model, index building, filtering and
// aggregation for the event map. This package has no transport dependencies
// and can be used by the web server, the CLI, or tests without modification.
package core

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// SheetName identifies a table of the source workbook.
type SheetName string

const (
	SheetEvents       SheetName = "Events"
	SheetLocations    SheetName = "Locations"
	SheetComposers    SheetName = "Bio_Composers"
	SheetMusicians    SheetName = "Bio_Musicians"
	SheetNonMusicians SheetName = "Bio_Nonmusicians"
	SheetInstitutions SheetName = "Institutions"
	SheetDocEntries   SheetName = "Doc_Entries"
	SheetArchivalDocs SheetName = "Archival_Docs"
	SheetBibliography SheetName = "Bibliography"
	SheetHeaders      SheetName = "Headers"
	SheetOccasions    SheetName = "Occasions"
)

// SheetKind distinguishes the event fact table from the lookup tables joined onto it.
type SheetKind int

const (
	KindDimension SheetKind = iota
	KindFact
)

// Row is one raw record: raw column name -> cell value.
// Column names are whatever the source supplied (inconsistent casing,
// punctuation, byte-order marks, parenthetical suffixes).
type Row map[string]string

// Table is a loaded sheet. Columns preserves the source's header order,
// which the generic key heuristic depends on.
type Table struct {
	Columns []string
	Rows    []Row
}

// ColumnOrder returns the table's columns in source order. When the source
// did not report an order, the keys of the first row are returned sorted so
// the result stays deterministic.
func (t Table) ColumnOrder() []string {
	if len(t.Columns) > 0 {
		return t.Columns
	}
	if len(t.Rows) == 0 {
		return nil
	}
	cols := make([]string, 0, len(t.Rows[0]))
	for k := range t.Rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// NewTable builds a Table from a header row and data records, the shape
// every tabular source produces. Columns with a blank header are dropped and
// a repeated header keeps its first occurrence. Records whose cells are all
// blank are skipped; cells past the header are ignored.
func NewTable(header []string, records [][]string) Table {
	cols := make([]string, 0, len(header))
	pos := make([]int, 0, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		cols = append(cols, h)
		pos = append(pos, i)
	}

	t := Table{Columns: cols, Rows: make([]Row, 0, len(records))}
	for _, rec := range records {
		row := make(Row, len(cols))
		blank := true
		for j, i := range pos {
			if i >= len(rec) {
				break
			}
			row[cols[j]] = rec[i]
			if strings.TrimSpace(rec[i]) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Sheets is the raw dataset as handed over by a loader.
type Sheets map[SheetName]Table

// Clone returns a shallow copy of the sheet map. Tables are treated as
// immutable once loaded, so sharing them between copies is safe.
func (s Sheets) Clone() Sheets {
	out := make(Sheets, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// RowCount returns the number of rows across all sheets.
func (s Sheets) RowCount() int {
	n := 0
	for _, t := range s {
		n += len(t.Rows)
	}
	return n
}

// Index maps an inferred primary key value to its row.
type Index map[string]Row

// Indices holds one Index per dimension sheet that had an inferable key.
type Indices map[SheetName]Index

// Lookup returns the row stored under key in the given sheet's index.
// A missing sheet or key yields false rather than an error.
func (ix Indices) Lookup(sheet SheetName, key string) (Row, bool) {
	idx, ok := ix[sheet]
	if !ok || key == "" {
		return nil, false
	}
	row, ok := idx[key]
	return row, ok
}

// OptInt is an integer that may be absent. Valid is false for
// missing or unparsable input.
type OptInt struct {
	Int   int
	Valid bool
}

// Some wraps a present value.
func Some(i int) OptInt {
	return OptInt{Int: i, Valid: true}
}

// Or returns the value, or def when absent.
func (o OptInt) Or(def int) int {
	if !o.Valid {
		return def
	}
	return o.Int
}

// MarshalJSON renders absent values as null.
func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(o.Int)), nil
}

// UnmarshalJSON accepts null or an integer.
func (o *OptInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = OptInt{}
		return nil
	}
	var i int
	if err := json.Unmarshal(b, &i); err != nil {
		return err
	}
	*o = Some(i)
	return nil
}

// Event is a normalized row of the Events fact table.
type Event struct {
	ID            string    `json:"evid"`
	LocationID    string    `json:"locid,omitempty"`
	BioID         string    `json:"bioid,omitempty"`
	Person        PersonRef `json:"-"`
	InstitutionID string    `json:"insid,omitempty"`

	// DocEntryIDs and BibliographyIDs keep source order. BibliographyPages is
	// positionally aligned with BibliographyIDs (see BibliographyPage).
	DocEntryIDs       []string `json:"doeid,omitempty"`
	BibliographyIDs   []string `json:"bibid,omitempty"`
	BibliographyPages []string `json:"bibpages,omitempty"`

	EarliestYear OptInt `json:"eyear"`
	LatestYear   OptInt `json:"lyear"`

	CertLocation     OptInt `json:"certloc"`
	CertEarliestDate OptInt `json:"certedate"`
	CertLatestDate   OptInt `json:"certldate"`
	CertRange        OptInt `json:"certrange"`

	DateRange   string `json:"daterange,omitempty"`
	Description string `json:"description,omitempty"`

	// RawEarliestYear and RawLatestYear keep the cell text for search.
	RawEarliestYear string `json:"-"`
	RawLatestYear   string `json:"-"`

	Raw Row `json:"-"`
}

// BibliographyPage returns the page reference aligned with the i-th
// bibliography id. Missing trailing entries are empty strings.
func (e Event) BibliographyPage(i int) string {
	if i < 0 || i >= len(e.BibliographyPages) {
		return ""
	}
	return e.BibliographyPages[i]
}

// ShareID returns the identifier used in share links: the event id without
// its three-character prefix.
func (e Event) ShareID() string {
	if len(e.ID) <= 3 {
		return ""
	}
	return e.ID[3:]
}

// DateRange is an inclusive year interval.
type DateRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// NameSet is a set of person names. It serializes as a sorted JSON array.
type NameSet map[string]struct{}

// NewNameSet builds a set from names, ignoring blanks.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is a member.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s NameSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *NameSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*s = NewNameSet(names...)
	return nil
}

// FilterConfig is the complete set of user filter controls. It is replaced
// wholesale on every change.
type FilterConfig struct {
	ShowComposers     bool      `json:"showComposers"`
	ShowMusicians     bool      `json:"showMusicians"`
	ShowNonMusicians  bool      `json:"showNonMusicians"`
	DateRange         DateRange `json:"dateRange"`
	ShowCertainty     bool      `json:"showCertainty"`
	InstitutionFilter string    `json:"institutionFilter,omitempty"`
	ActiveNames       NameSet   `json:"activeNames"`
	SearchText        string    `json:"searchText"`
}

// Default year bounds and filter settings.
const (
	DefaultStartYear = 1400
	DefaultEndYear   = 1600
	DefaultRangeMax  = 1590
	DefaultCertainty = 1
	MaxCertainCode   = 2
	DecadeStep       = 10
)

// DefaultFilterConfig returns the filter state shown on first load.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		ShowComposers:    true,
		ShowMusicians:    true,
		ShowNonMusicians: true,
		DateRange:        DateRange{Min: DefaultStartYear, Max: DefaultRangeMax},
		ShowCertainty:    false,
		ActiveNames:      NameSet{},
	}
}
