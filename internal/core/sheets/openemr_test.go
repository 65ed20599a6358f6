package sheets

import (
	"testing"

	"github.com/JonMunkholm/emrexport/internal/core"
)

func TestOpenEMR_Registered(t *testing.T) {
	want := []struct{ name, source string }{
		{"patient_data", "patient_data"},
		{"history_data", "history_data"},
		{"issues", "lists"},
		{"prescriptions", "prescriptions"},
		{"vitals", "form_vitals"},
		{"encounters", "form_encounter"},
		{"clinical_notes", "form_clinical_notes"},
		{"SOAP", "form_soap"},
	}

	got := core.Sheets()
	if len(got) != len(want) {
		t.Fatalf("registered %d sheets, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Source != w.source {
			t.Errorf("sheet %d = %s/%s, want %s/%s", i, got[i].Name, got[i].Source, w.name, w.source)
		}
	}
}

func TestOpenEMR_Transforms(t *testing.T) {
	for _, def := range OpenEMR {
		switch def.Name {
		case "vitals":
			if !def.Metric {
				t.Error("vitals should convert to metric")
			}
		case "patient_data":
			if len(def.Codes) != 2 {
				t.Errorf("patient_data codes = %d, want 2", len(def.Codes))
			}
			if def.Policy.Include[0] != "pubpid" {
				t.Errorf("patient_data first column = %q, want pubpid", def.Policy.Include[0])
			}
		default:
			if def.Metric || len(def.Codes) > 0 {
				t.Errorf("%s should not be transformed", def.Name)
			}
		}
	}
}

func TestOpenEMR_SheetNamesFitWorkbook(t *testing.T) {
	// Spreadsheet sheet names are limited to 31 characters.
	for _, def := range OpenEMR {
		if len(def.Name) > 31 {
			t.Errorf("sheet name %q is longer than 31 characters", def.Name)
		}
	}
}
