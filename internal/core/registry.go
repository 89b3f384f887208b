package core

import (
	"fmt"
	"sort"
	"sync"
)

// SheetDefinition describes one sheet of the source workbook.
type SheetDefinition struct {
	Name  SheetName // Sheet name as published by the source: "Bio_Composers"
	Kind  SheetKind // KindFact for Events, KindDimension for lookup tables
	Label string    // Display name: "Composers"

	// KeyColumns lists the known primary key column names, tried in order
	// before the generic "name contains id" heuristic.
	KeyColumns []string
}

var (
	registry   = make(map[SheetName]SheetDefinition)
	registryMu sync.RWMutex
)

// Register adds a sheet definition to the registry.
// Panics if a sheet with the same name is already registered.
func Register(def SheetDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Name]; exists {
		panic(fmt.Sprintf("sheet already registered: %s", def.Name))
	}

	if def.Label == "" {
		def.Label = string(def.Name)
	}

	registry[def.Name] = def
}

// Get returns a sheet definition by name.
// Returns false if not found.
func Get(name SheetName) (SheetDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// All returns all registered sheet definitions.
// The fact table sorts first, then dimensions by name.
func All() []SheetDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SheetDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind == KindFact
		}
		return result[i].Name < result[j].Name
	})

	return result
}

// Dimensions returns the registered dimension sheets sorted by name.
func Dimensions() []SheetDefinition {
	var result []SheetDefinition
	for _, def := range All() {
		if def.Kind == KindDimension {
			result = append(result, def)
		}
	}
	return result
}

// Names returns the names of all registered sheets in All() order.
func Names() []SheetName {
	defs := All()
	names := make([]SheetName, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// SheetCount returns the number of registered sheets.
func SheetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered sheets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[SheetName]SheetDefinition)
}
