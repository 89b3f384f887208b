package core

import "strings"

// MappedEvent is a filtered event joined with everything a map or list
// renderer needs. Joins that fail leave their field empty; the event is
// still returned.
type MappedEvent struct {
	Event

	Location        Row          `json:"location,omitempty"`
	LocationDisplay string       `json:"locationDisplay,omitempty"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	PersonInfo      *Person      `json:"personInfo,omitempty"`
	InstitutionInfo Row          `json:"institutionInfo,omitempty"`
	PersonType      PersonType   `json:"personType"`
	MarkerColor     string       `json:"markerColor"`
	Archival        []string     `json:"archival,omitempty"`
	Bibliography    []string     `json:"bibliography,omitempty"`
	ShareID         string       `json:"shareId,omitempty"`
}

// Mappable reports whether the event can be placed on a map: both the
// location join and its coordinates resolved.
func (m MappedEvent) Mappable() bool {
	return m.Location != nil && m.Coordinates != nil
}

// Augment joins every event with its dimension records using the built-in
// alias table.
func Augment(events []Event, idx Indices) []MappedEvent {
	return NewDataset(idx, nil).Augment(events)
}

// Augment joins every event with its dimension records, in input order.
func (d Dataset) Augment(events []Event) []MappedEvent {
	out := make([]MappedEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, d.AugmentEvent(ev))
	}
	return out
}

// AugmentEvent joins a single event.
func (d Dataset) AugmentEvent(ev Event) MappedEvent {
	m := MappedEvent{
		Event:       ev,
		PersonType:  ev.Person.Type,
		MarkerColor: ev.Person.Type.MarkerColor(),
		ShareID:     ev.ShareID(),
	}

	if loc, ok := d.Location(ev); ok {
		m.Location = loc
		m.LocationDisplay = d.LocationDisplay(loc, ev.CertLocation)
		if c, ok := ParseCoordinates(d.Field(loc, FieldCOORD)); ok {
			m.Coordinates = &c
		}
	}
	if p, ok := d.ResolvePersonRef(ev.Person); ok {
		m.PersonInfo = &p
	}
	if ins, ok := d.Institution(ev); ok {
		m.InstitutionInfo = ins
	}
	m.Archival = d.ArchivalCitations(ev)
	m.Bibliography = d.BibliographyCitations(ev)

	return m
}

// MappableOnly returns the events that can be placed on a map.
func MappableOnly(events []MappedEvent) []MappedEvent {
	out := make([]MappedEvent, 0, len(events))
	for _, m := range events {
		if m.Mappable() {
			out = append(out, m)
		}
	}
	return out
}

var certaintyMarks = map[int]string{2: "?", 3: "??", 4: "???"}

// LocationDisplay formats "LOCNAME[, CITY]" followed by one to three
// question marks for location certainty 2, 3 or 4.
func (d Dataset) LocationDisplay(loc Row, certainty OptInt) string {
	var b strings.Builder
	b.WriteString(d.Field(loc, FieldLOCNAME))
	if city := d.Field(loc, FieldCITY); city != "" {
		b.WriteString(", ")
		b.WriteString(city)
	}
	if certainty.Valid {
		b.WriteString(certaintyMarks[certainty.Int])
	}
	return b.String()
}

// ArchivalCitations follows each DOEID through Doc_Entries to its archival
// document and formats "ARC[, ARCFOND][ SIG]". Broken links are skipped.
func (d Dataset) ArchivalCitations(ev Event) []string {
	var out []string
	for _, doeID := range ev.DocEntryIDs {
		entry, ok := d.Indices.Lookup(SheetDocEntries, doeID)
		if !ok {
			continue
		}
		doc, ok := d.Indices.Lookup(SheetArchivalDocs, d.Field(entry, FieldARDID))
		if !ok {
			continue
		}

		arc := d.Field(doc, FieldARC)
		if arc == "" {
			continue
		}
		cite := arc
		if fond := d.Field(doc, FieldARCFOND); fond != "" {
			cite += ", " + fond
		}
		if sig := d.Field(doc, FieldSIG); sig != "" {
			cite += " " + sig
		}
		out = append(out, cite)
	}
	return out
}

// BibliographyCitations formats each BIBID as
// `AUTHOR, "ARTNAME," VOLNAME (YEAR): PAGES, at <page>`, omitting the parts
// that are blank. The page comes from the aligned BIBPAGES entry.
func (d Dataset) BibliographyCitations(ev Event) []string {
	var out []string
	for i, bibID := range ev.BibliographyIDs {
		bib, ok := d.Indices.Lookup(SheetBibliography, bibID)
		if !ok {
			continue
		}

		var b strings.Builder
		if v := d.Field(bib, FieldAUTHOR); v != "" {
			b.WriteString(v + ", ")
		}
		if v := d.Field(bib, FieldARTNAME); v != "" {
			b.WriteString(`"` + v + `," `)
		}
		b.WriteString(d.Field(bib, FieldVOLNAME))
		if v := d.Field(bib, FieldYEAR); v != "" {
			b.WriteString(" (" + v + ")")
		}
		if v := d.Field(bib, FieldPAGES); v != "" {
			b.WriteString(": " + v)
		}
		if page := ev.BibliographyPage(i); page != "" {
			b.WriteString(", at " + page)
		}

		out = append(out, strings.TrimSpace(b.String()))
	}
	return out
}

// unmappableDiagnostics summarizes why events were kept off the map.
func unmappableDiagnostics(events []MappedEvent) []Diagnostic {
	noLocation, badCoords := 0, 0
	for _, m := range events {
		switch {
		case m.Location == nil:
			noLocation++
		case m.Coordinates == nil:
			badCoords++
		}
	}

	var diags []Diagnostic
	if noLocation > 0 {
		diags = append(diags, Diagnostic{
			Kind:    DiagUnmappable,
			Sheet:   SheetLocations,
			Field:   FieldLOCID,
			Count:   noLocation,
			Message: "events without a resolvable location",
		})
	}
	if badCoords > 0 {
		diags = append(diags, Diagnostic{
			Kind:    DiagUnmappable,
			Sheet:   SheetLocations,
			Field:   FieldCOORD,
			Count:   badCoords,
			Message: "events whose location has missing or invalid coordinates",
		})
	}
	return diags
}
