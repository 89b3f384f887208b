package sheets

import (
	"testing"

	"github.com/JonMunkholm/eventmap/internal/core"
)

func TestAllSheetsRegistered(t *testing.T) {
	want := []core.SheetName{
		core.SheetEvents,
		core.SheetLocations,
		core.SheetComposers,
		core.SheetMusicians,
		core.SheetNonMusicians,
		core.SheetInstitutions,
		core.SheetDocEntries,
		core.SheetArchivalDocs,
		core.SheetBibliography,
		core.SheetHeaders,
		core.SheetOccasions,
	}

	if got := core.SheetCount(); got != len(want) {
		t.Errorf("SheetCount() = %d, want %d", got, len(want))
	}
	for _, name := range want {
		if _, ok := core.Get(name); !ok {
			t.Errorf("sheet %q not registered", name)
		}
	}
}

func TestEventsIsTheOnlyFact(t *testing.T) {
	names := core.Names()
	if len(names) == 0 || names[0] != core.SheetEvents {
		t.Fatalf("Names()[0] = %v, want %q", names, core.SheetEvents)
	}
	for _, def := range core.Dimensions() {
		if def.Name == core.SheetEvents {
			t.Error("Events listed as a dimension")
		}
	}
}

func TestDefaultSchemaCarriesKeyColumns(t *testing.T) {
	schema := core.DefaultSchema()

	tests := []struct {
		sheet core.SheetName
		first string
	}{
		{core.SheetLocations, "LOCID"},
		{core.SheetMusicians, "BMUID"},
		{core.SheetArchivalDocs, "ARDID"},
	}

	for _, tt := range tests {
		cols := schema.KeyColumns(tt.sheet)
		if len(cols) == 0 || cols[0] != tt.first {
			t.Errorf("KeyColumns(%q) = %v, want first %q", tt.sheet, cols, tt.first)
		}
	}
	if cols := schema.KeyColumns(core.SheetHeaders); len(cols) != 0 {
		t.Errorf("KeyColumns(Headers) = %v, want none", cols)
	}
}
