// Package sheets registers the OpenEMR export workbook with the core registry.
// Import this package to ensure all sheets are registered.
package sheets

import "github.com/JonMunkholm/emrexport/internal/core"

func init() {
	for _, def := range OpenEMR {
		core.Register(def)
	}
}

// OpenEMR is the patient export workbook, in sheet order.
var OpenEMR = []core.SheetDefinition{
	{
		Name:   "patient_data",
		Source: "patient_data",
		Policy: core.ColumnPolicy{Include: []string{
			"pubpid",
			"DOB",
			"sex",
			"sexual_orientation",
			"gender_identity",
			"status",
			"street",
			"deceased_date",
			"deceased_reason",
		}},
		Codes: []core.CodeColumn{
			{Column: "sexual_orientation", Category: "sexual_orientation"},
			{Column: "gender_identity", Category: "gender_identity"},
		},
	},
	{Name: "history_data", Source: "history_data"},
	{Name: "issues", Source: "lists"},
	{Name: "prescriptions", Source: "prescriptions"},
	{Name: "vitals", Source: "form_vitals", Metric: true},
	{Name: "encounters", Source: "form_encounter"},
	{Name: "clinical_notes", Source: "form_clinical_notes"},
	{Name: "SOAP", Source: "form_soap"},
}
