// Package sheets registers the workbook's sheet definitions with the core
// registry. Import it for side effects before building a core.Schema.
package sheets

import "github.com/JonMunkholm/eventmap/internal/core"

func init() {
	registerEvents()
	registerPlaces()
	registerPeople()
	registerSources()
	registerReference()
}

func registerEvents() {
	core.Register(core.SheetDefinition{
		Name:  core.SheetEvents,
		Kind:  core.KindFact,
		Label: "Events",
	})
}

func registerPlaces() {
	core.Register(core.SheetDefinition{
		Name:       core.SheetLocations,
		Label:      "Locations",
		KeyColumns: []string{"LOCID", "LOC_ID", "Location ID"},
	})
	core.Register(core.SheetDefinition{
		Name:       core.SheetInstitutions,
		Label:      "Institutions",
		KeyColumns: []string{"INSID", "INS_ID", "Institution ID"},
	})
}

func registerPeople() {
	core.Register(core.SheetDefinition{
		Name:       core.SheetComposers,
		Label:      "Composers",
		KeyColumns: []string{"BCOID", "BCO_ID", "BIOID"},
	})
	core.Register(core.SheetDefinition{
		Name:       core.SheetMusicians,
		Label:      "Musicians",
		KeyColumns: []string{"BMUID", "BMU_ID", "BIOID"},
	})
	core.Register(core.SheetDefinition{
		Name:       core.SheetNonMusicians,
		Label:      "Non-musicians",
		KeyColumns: []string{"BNOID", "BNO_ID", "BIOID"},
	})
}

func registerSources() {
	core.Register(core.SheetDefinition{
		Name:       core.SheetDocEntries,
		Label:      "Document Entries",
		KeyColumns: []string{"DOEID", "DOE_ID"},
	})
	core.Register(core.SheetDefinition{
		Name:       core.SheetArchivalDocs,
		Label:      "Archival Documents",
		KeyColumns: []string{"ARDID", "ARD_ID"},
	})
	core.Register(core.SheetDefinition{
		Name:       core.SheetBibliography,
		Label:      "Bibliography",
		KeyColumns: []string{"BIBID", "BIB_ID"},
	})
}

func registerReference() {
	core.Register(core.SheetDefinition{
		Name:  core.SheetHeaders,
		Label: "Column Headers",
	})
	core.Register(core.SheetDefinition{
		Name:       core.SheetOccasions,
		Label:      "Occasions",
		KeyColumns: []string{"OCCID", "OCC_ID"},
	})
}
