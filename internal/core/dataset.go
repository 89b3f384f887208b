package core

// Dataset is the read-only view the join, filter and search stages work
// against: the built indices plus the alias table used to read dimension
// rows. The zero value has no indices and resolves nothing.
type Dataset struct {
	Aliases AliasTable
	Indices Indices
}

// NewDataset pairs indices with an alias table. A nil table falls back to
// the built-in aliases.
func NewDataset(idx Indices, aliases AliasTable) Dataset {
	if aliases == nil {
		aliases = defaultAliases
	}
	return Dataset{Aliases: aliases, Indices: idx}
}

// Location returns the Locations row for an event.
func (d Dataset) Location(ev Event) (Row, bool) {
	return d.Indices.Lookup(SheetLocations, ev.LocationID)
}

// Institution returns the Institutions row for an event.
func (d Dataset) Institution(ev Event) (Row, bool) {
	return d.Indices.Lookup(SheetInstitutions, ev.InstitutionID)
}

// Field reads a canonical field from any row through the alias table.
func (d Dataset) Field(row Row, canonical string) string {
	if row == nil {
		return ""
	}
	return d.aliases().field(row, canonical)
}

func (d Dataset) aliases() AliasTable {
	if d.Aliases == nil {
		return defaultAliases
	}
	return d.Aliases
}
