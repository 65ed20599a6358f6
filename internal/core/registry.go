package core

import (
	"fmt"
	"sync"
)

// SheetDefinition declares one sheet of the export workbook.
type SheetDefinition struct {
	Name   string       // Sheet name in the workbook: "vitals"
	Source string       // Source table: "form_vitals"
	Policy ColumnPolicy // Columns kept from the source
	Metric bool         // Convert imperial measurements to metric
	Codes  []CodeColumn // Coded columns to resolve to titles
}

var (
	registry   []SheetDefinition
	registryMu sync.RWMutex
)

// Register appends a sheet definition to the registry.
// Registration order is the sheet order of the workbook.
// Panics if a sheet with the same name is already registered.
func Register(def SheetDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Name == "" || def.Source == "" {
		panic(fmt.Sprintf("sheet definition needs a name and a source: %+v", def))
	}
	for _, existing := range registry {
		if existing.Name == def.Name {
			panic(fmt.Sprintf("sheet already registered: %s", def.Name))
		}
	}

	registry = append(registry, def)
}

// Lookup returns a sheet definition by name.
// Returns false if not found.
func Lookup(name string) (SheetDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, def := range registry {
		if def.Name == name {
			return def, true
		}
	}
	return SheetDefinition{}, false
}

// Sheets returns all registered sheet definitions in registration order.
func Sheets() []SheetDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return append([]SheetDefinition(nil), registry...)
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
	registry = nil
}

// codeCategories returns the distinct reference categories used by defs,
// in first-seen order.
func codeCategories(defs []SheetDefinition) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, def := range defs {
		for _, code := range def.Codes {
			category := code.category()
			if !seen[category] {
				seen[category] = true
				categories = append(categories, category)
			}
		}
	}
	return categories
}
