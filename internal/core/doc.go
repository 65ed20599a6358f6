// Package core provides the extract-transform logic of the clinical export.
//
// This package holds all domain logic independent of the command line or
// the HTTP trigger. It works on immutable [Table] values: every
// transformation returns a new table, so a table can be read by the caller
// after it has been handed on.
//
// # Sheet Registry
//
// Sheets are registered at init time using [Register]. Each
// [SheetDefinition] names the workbook sheet, its source table, the
// [ColumnPolicy] applied after extraction, and the transformations to run:
//
//	core.Register(core.SheetDefinition{
//	    Name:   "vitals",
//	    Source: "form_vitals",
//	    Metric: true,
//	})
//
// Registration order is workbook order.
//
// # Pipeline
//
// [Service.Run] performs one export:
//
//  1. Open one connection (see [ConnectFunc])
//  2. Extract every sheet in order with [Extractor.Extract]
//  3. Load the code reference if any sheet declares [CodeColumn]s
//  4. Apply [ConvertToMetric] and [ResolveTitles] where declared
//  5. Hand the [TableSet] to the [Exporter]
//
// # Error Handling
//
// Connection, query and export failures are wrapped with [ErrConnection],
// [ErrQuery] and [ErrExport] and abort the run. Missing columns, unknown
// codes and non-numeric measurements are absorbed. [MapError] turns errors
// into coded user messages.
package core
