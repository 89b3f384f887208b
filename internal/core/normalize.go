package core

import (
	"sort"
	"strings"
)

// Canonical field names. Events and dimension rows are read through these
// names; the alias table maps each one to the raw headers seen in the wild.
const (
	FieldEVID      = "EVID"
	FieldLOCID     = "LOCID"
	FieldBIOID     = "BIOID"
	FieldINSID     = "INSID"
	FieldDOEID     = "DOEID"
	FieldBIBID     = "BIBID"
	FieldBIBPAGES  = "BIBPAGES"
	FieldEYEAR     = "EYEAR"
	FieldLYEAR     = "LYEAR"
	FieldCERTLOC   = "CERTLOC"
	FieldCERTEDATE = "CERTEDATE"
	FieldCERTLDATE = "CERTLDATE"
	FieldCERTRANGE = "CERTRANGE"
	FieldDATERANGE = "DATERANGE"
	FieldEINFO     = "EINFO"

	FieldLOCNAME = "LOCNAME"
	FieldCITY    = "CITY"
	FieldCOORD   = "COORD"
	FieldINSNAME = "INSNAME"
	FieldBCONAME = "BCONAME"
	FieldBMUNAME = "BMUNAME"
	FieldBNONAME = "BNONAME"
	FieldALIAS   = "ALIAS"
	FieldARDID   = "ARDID"
	FieldARC     = "ARC"
	FieldARCFOND = "ARCFOND"
	FieldSIG     = "SIG"
	FieldAUTHOR  = "AUTHOR"
	FieldARTNAME = "ARTNAME"
	FieldVOLNAME = "VOLNAME"
	FieldYEAR    = "YEAR"
	FieldPAGES   = "PAGES"

	FieldSpreadsheetID  = "Spreadsheet ID"
	FieldJavaScriptName = "JavaScript Name"
	FieldColumnName     = "Column Name"
)

// AliasTable maps a canonical field name to the alternative raw column
// names tried, in order, after the canonical name itself.
type AliasTable map[string][]string

var defaultAliases = AliasTable{
	FieldEVID:  {"ID", "Event ID", "Event ID (EV)", "EV_ID"},
	FieldLOCID: {"Location ID (LOC)", "LOC_ID", "Location ID"},
	FieldBIOID: {
		"Biography Musician (BMU) ID",
		"Biography Composer (BCO) ID",
		"Biography Non-musician (BNO) ID",
		"Biography ID",
		"BIO_ID",
		"Person ID",
	},
	FieldINSID:     {"Institution ID (INS)", "INS_ID", "Institution ID"},
	FieldDOEID:     {"Document Entry ID (DOE)", "DOE_ID", "Document Entry ID"},
	FieldBIBID:     {"Bibliography ID (BIB)", "BIB_ID", "Bibliography ID"},
	FieldBIBPAGES:  {"Bibliography Pages", "BIB_PAGES", "Pages"},
	FieldEYEAR:     {"Earliest Year", "Earliest year", "E_YEAR"},
	FieldLYEAR:     {"Latest Year", "Latest year", "L_YEAR"},
	FieldCERTLOC:   {"Certainty Location", "CERT_LOC", "Location Certainty"},
	FieldCERTEDATE: {"Certainty Earliest Date", "CERT_EDATE"},
	FieldCERTLDATE: {"Certainty Latest Date", "CERT_LDATE"},
	FieldCERTRANGE: {"Certainty Range", "CERT_RANGE", "Date Certainty"},
	FieldDATERANGE: {"Date Range", "DATE_RANGE", "Date"},
	FieldEINFO:     {"Description", "Event Info", "Event Description", "EVINFO"},

	FieldLOCNAME: {"Location Name", "Location", "LOC_NAME", "Name"},
	FieldCITY:    {"City", "Town"},
	FieldCOORD:   {"Coordinates", "Coords", "LatLon"},
	FieldINSNAME: {"Institution Name", "Institution", "INS_NAME", "Name"},
	FieldBCONAME: {"Composer Name", "BCO_NAME", "Name"},
	FieldBMUNAME: {"Musician Name", "BMU_NAME", "Name"},
	FieldBNONAME: {"Non-musician Name", "BNO_NAME", "Name"},
	FieldALIAS:   {"Aliases", "Alias", "Also Known As"},
	FieldARDID:   {"Archival Document ID (ARD)", "ARD_ID", "Archival Document ID"},
	FieldARC:     {"Archive", "Archive Name"},
	FieldARCFOND: {"Fond", "Archive Fond", "ARC_FOND"},
	FieldSIG:     {"Signature", "Shelfmark", "Call Number"},
	FieldAUTHOR:  {"Author", "Authors"},
	FieldARTNAME: {"Article Name", "Article", "Title"},
	FieldVOLNAME: {"Volume Name", "Volume", "Journal"},
	FieldYEAR:    {"Year", "Publication Year"},
	FieldPAGES:   {"Pages", "Page Range"},

	FieldSpreadsheetID:  {"SpreadsheetID", "Spreadsheet Id", "Sheet ID"},
	FieldJavaScriptName: {"JavaScriptName", "JS Name", "Javascript Name"},
	FieldColumnName:     {"ColumnName", "Column", "Label"},
}

// DefaultAliases returns a copy of the built-in alias table.
func DefaultAliases() AliasTable {
	return defaultAliases.Clone()
}

// Clone deep-copies the table.
func (a AliasTable) Clone() AliasTable {
	out := make(AliasTable, len(a))
	for k, v := range a {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Lookup returns the aliases for canonical, or nil.
func (a AliasTable) Lookup(canonical string) []string {
	if a == nil {
		return nil
	}
	return a[canonical]
}

// Merge returns a copy of a with the aliases in override prepended to the
// existing ones, so overrides win while built-ins still apply.
func (a AliasTable) Merge(override AliasTable) AliasTable {
	out := a.Clone()
	for field, aliases := range override {
		merged := make([]string, 0, len(aliases)+len(out[field]))
		seen := make(map[string]struct{}, len(aliases)+len(out[field]))
		for _, name := range append(append([]string(nil), aliases...), out[field]...) {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			merged = append(merged, name)
		}
		out[field] = merged
	}
	return out
}

// Schema bundles the field alias table with the key column patterns used for
// index inference.
type Schema struct {
	Fields AliasTable
	Keys   map[SheetName][]string
}

// DefaultSchema returns the built-in aliases together with the key columns
// of every registered dimension sheet.
func DefaultSchema() Schema {
	keys := make(map[SheetName][]string)
	for _, def := range Dimensions() {
		keys[def.Name] = append([]string(nil), def.KeyColumns...)
	}
	return Schema{Fields: DefaultAliases(), Keys: keys}
}

// Merge layers override on top of s. Override key patterns are tried first.
func (s Schema) Merge(override Schema) Schema {
	out := Schema{
		Fields: s.Fields.Merge(override.Fields),
		Keys:   make(map[SheetName][]string, len(s.Keys)),
	}
	for name, cols := range s.Keys {
		out.Keys[name] = append([]string(nil), cols...)
	}
	for name, cols := range override.Keys {
		out.Keys[name] = append(append([]string(nil), cols...), out.Keys[name]...)
	}
	return out
}

// KeyColumns returns the key column patterns for a sheet.
func (s Schema) KeyColumns(name SheetName) []string {
	return s.Keys[name]
}

// Record wraps a raw row with its keys sorted once, so repeated field
// lookups stay deterministic without re-sorting.
type Record struct {
	row  Row
	keys []string
}

// NewRecord prepares row for field resolution.
func NewRecord(row Row) Record {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Record{row: row, keys: keys}
}

// Field resolves canonical against the row, trying the canonical name and
// then each alias. For every candidate the match order is: exact key,
// exact key after trimming whitespace and byte-order marks, then a
// case-insensitive comparison of the trimmed forms. Blank values count as
// absent so later candidates can still fill the field.
func (r Record) Field(canonical string, aliases []string) (string, bool) {
	if v, ok := r.column(canonical); ok {
		return v, true
	}
	for _, alias := range aliases {
		if v, ok := r.column(alias); ok {
			return v, true
		}
	}
	return "", false
}

func (r Record) column(name string) (string, bool) {
	if v, ok := r.row[name]; ok {
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}

	want := CleanHeader(name)
	for _, k := range r.keys {
		if CleanHeader(k) != want {
			continue
		}
		if v := strings.TrimSpace(r.row[k]); v != "" {
			return v, true
		}
	}
	for _, k := range r.keys {
		if !strings.EqualFold(CleanHeader(k), want) {
			continue
		}
		if v := strings.TrimSpace(r.row[k]); v != "" {
			return v, true
		}
	}
	return "", false
}

// ResolveField looks up a canonical field in a raw row using the given
// aliases. It returns false when no candidate column holds a value.
func ResolveField(row Row, canonical string, aliases []string) (string, bool) {
	return NewRecord(row).Field(canonical, aliases)
}

// field is ResolveField against an alias table, returning "" when absent.
func (a AliasTable) field(row Row, canonical string) string {
	v, _ := ResolveField(row, canonical, a.Lookup(canonical))
	return v
}

// NormalizeEvent maps one raw Events row onto the canonical Event.
func NormalizeEvent(row Row, aliases AliasTable) Event {
	rec := NewRecord(row)
	get := func(field string) string {
		v, _ := rec.Field(field, aliases.Lookup(field))
		return v
	}

	ev := Event{
		ID:                get(FieldEVID),
		LocationID:        get(FieldLOCID),
		BioID:             get(FieldBIOID),
		InstitutionID:     get(FieldINSID),
		DocEntryIDs:       SplitList(get(FieldDOEID)),
		BibliographyIDs:   SplitList(get(FieldBIBID)),
		BibliographyPages: SplitList(get(FieldBIBPAGES)),
		RawEarliestYear:   get(FieldEYEAR),
		RawLatestYear:     get(FieldLYEAR),
		CertLocation:      ParseCertainty(get(FieldCERTLOC)),
		CertEarliestDate:  ParseCertainty(get(FieldCERTEDATE)),
		CertLatestDate:    ParseCertainty(get(FieldCERTLDATE)),
		CertRange:         ParseCertainty(get(FieldCERTRANGE)),
		DateRange:         get(FieldDATERANGE),
		Description:       get(FieldEINFO),
		Raw:               row,
	}
	ev.EarliestYear = ParseYear(ev.RawEarliestYear)
	ev.LatestYear = ParseYear(ev.RawLatestYear)
	ev.Person = ParsePersonRef(ev.BioID)
	return ev
}

// NormalizeEvents normalizes every row of the Events table in source order.
// Rows without an event id are kept and reported once in aggregate.
func NormalizeEvents(table Table, aliases AliasTable) ([]Event, []Diagnostic) {
	events := make([]Event, 0, len(table.Rows))
	missing := 0
	for _, row := range table.Rows {
		ev := NormalizeEvent(row, aliases)
		if ev.ID == "" {
			missing++
		}
		events = append(events, ev)
	}

	var diags []Diagnostic
	if missing > 0 {
		diags = append(diags, Diagnostic{
			Kind:    DiagMissingField,
			Sheet:   SheetEvents,
			Field:   FieldEVID,
			Count:   missing,
			Message: "events without an event id",
		})
	}
	return events, diags
}
