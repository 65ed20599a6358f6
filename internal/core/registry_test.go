package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withCleanRegistry(t *testing.T) {
	t.Helper()
	saved := Sheets()
	Clear()
	t.Cleanup(func() {
		Clear()
		for _, def := range saved {
			Register(def)
		}
	})
}

func TestRegistry_OrderAndLookup(t *testing.T) {
	withCleanRegistry(t)

	Register(SheetDefinition{Name: "patient_data", Source: "patient_data"})
	Register(SheetDefinition{Name: "vitals", Source: "form_vitals", Metric: true})
	Register(SheetDefinition{Name: "SOAP", Source: "form_soap"})

	assert.Equal(t, 3, SheetCount())
	names := make([]string, 0, 3)
	for _, def := range Sheets() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"patient_data", "vitals", "SOAP"}, names)

	def, ok := Lookup("vitals")
	assert.True(t, ok)
	assert.Equal(t, "form_vitals", def.Source)
	assert.True(t, def.Metric)

	_, ok = Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_Panics(t *testing.T) {
	withCleanRegistry(t)

	Register(SheetDefinition{Name: "vitals", Source: "form_vitals"})

	assert.Panics(t, func() { Register(SheetDefinition{Name: "vitals", Source: "other"}) })
	assert.Panics(t, func() { Register(SheetDefinition{Name: "", Source: "x"}) })
	assert.Panics(t, func() { Register(SheetDefinition{Name: "x"}) })
	assert.Equal(t, 1, SheetCount())
}

func TestCodeCategories(t *testing.T) {
	defs := []SheetDefinition{
		{Name: "a", Source: "a", Codes: []CodeColumn{{Column: "sex"}, {Column: "race", Category: "ethrace"}}},
		{Name: "b", Source: "b"},
		{Name: "c", Source: "c", Codes: []CodeColumn{{Column: "ethnicity", Category: "ethrace"}, {Column: "sex"}}},
	}

	assert.Equal(t, []string{"sex", "ethrace"}, codeCategories(defs))
	assert.Empty(t, codeCategories(defs[1:2]))
}
