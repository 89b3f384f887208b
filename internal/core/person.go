package core

import (
	"fmt"
	"strings"
)

// PersonType is the kind of person a BIOID refers to.
type PersonType int

const (
	PersonUnknown PersonType = iota
	PersonComposer
	PersonMusician
	PersonNonMusician
)

type personKind struct {
	code      string
	name      string
	sheet     SheetName
	nameField string
	color     string
}

// MarkerColorOther is used for events whose person type is unknown.
const MarkerColorOther = "#0c8aff"

var personKinds = map[PersonType]personKind{
	PersonComposer:    {code: "BCO", name: "composer", sheet: SheetComposers, nameField: FieldBCONAME, color: "#440154"},
	PersonMusician:    {code: "BMU", name: "musician", sheet: SheetMusicians, nameField: FieldBMUNAME, color: "#23ed5c"},
	PersonNonMusician: {code: "BNO", name: "nonmusician", sheet: SheetNonMusicians, nameField: FieldBNONAME, color: "#fde725"},
}

var personPrefixes = map[string]PersonType{
	"BCO": PersonComposer,
	"BMU": PersonMusician,
	"BNO": PersonNonMusician,
}

// Code returns the three-letter BIOID prefix, or "" for PersonUnknown.
func (t PersonType) Code() string {
	return personKinds[t].code
}

// Sheet returns the dimension sheet holding records of this type.
func (t PersonType) Sheet() SheetName {
	return personKinds[t].sheet
}

// NameField returns the canonical field holding the person's name.
func (t PersonType) NameField() string {
	return personKinds[t].nameField
}

// MarkerColor returns the map marker color for events of this type.
func (t PersonType) MarkerColor() string {
	if k, ok := personKinds[t]; ok {
		return k.color
	}
	return MarkerColorOther
}

func (t PersonType) String() string {
	if k, ok := personKinds[t]; ok {
		return k.name
	}
	return "unknown"
}

func (t PersonType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PersonType) UnmarshalText(b []byte) error {
	s := string(b)
	if s == "unknown" || s == "" {
		*t = PersonUnknown
		return nil
	}
	for pt, k := range personKinds {
		if k.name == s || k.code == s {
			*t = pt
			return nil
		}
	}
	return fmt.Errorf("unknown person type %q", s)
}

// PersonRef is a parsed BIOID: the person type selected by its prefix plus
// the full identifier used as the lookup key.
type PersonRef struct {
	Type PersonType
	ID   string
}

// ParsePersonRef parses a BIOID. The prefix match is case-sensitive; any
// unrecognized or missing prefix yields PersonUnknown.
func ParsePersonRef(bioID string) PersonRef {
	id := strings.TrimSpace(bioID)
	if len(id) < 3 {
		return PersonRef{Type: PersonUnknown, ID: id}
	}
	return PersonRef{Type: personPrefixes[id[:3]], ID: id}
}

// Known reports whether the reference carries a recognized prefix.
func (r PersonRef) Known() bool {
	return r.Type != PersonUnknown && r.ID != ""
}

// Person is a resolved person record.
type Person struct {
	ID      string     `json:"id"`
	Type    PersonType `json:"type"`
	Name    string     `json:"name"`
	Aliases []string   `json:"aliases"`
	Record  Row        `json:"record,omitempty"`
}

// ResolvePerson finds the person record a BIOID points to using the built-in
// alias table. It returns false when the id is blank, the prefix is
// unrecognized, or the person sheet has no row at that key.
func ResolvePerson(bioID string, idx Indices) (Person, bool) {
	return Dataset{Aliases: defaultAliases, Indices: idx}.ResolvePerson(bioID)
}

// ResolvePerson is the package-level ResolvePerson against the dataset's
// own alias table.
func (d Dataset) ResolvePerson(bioID string) (Person, bool) {
	return d.ResolvePersonRef(ParsePersonRef(bioID))
}

// ResolvePersonRef resolves an already parsed reference.
func (d Dataset) ResolvePersonRef(ref PersonRef) (Person, bool) {
	if !ref.Known() {
		return Person{}, false
	}

	row, ok := d.Indices.Lookup(ref.Type.Sheet(), ref.ID)
	if !ok {
		return Person{}, false
	}

	return Person{
		ID:      ref.ID,
		Type:    ref.Type,
		Name:    d.Field(row, ref.Type.NameField()),
		Aliases: SplitNonEmpty(d.Field(row, FieldALIAS)),
		Record:  row,
	}, true
}
