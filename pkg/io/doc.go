// Package io reads and writes tabular flow records.
//
// Flow inventories arrive as spreadsheet exports in whatever shape the
// exporting tool produced. This package turns them into []flow.Record (a
// header-to-value map per row) without interpreting the columns; field
// resolution and defaults are the job of [flow.FromRecord].
//
// # Formats
//
//   - [FormatCSV]: first row is the header, each later row one record
//   - [FormatJSON]: an array of objects, or an object with a "rows" array
//   - [FormatYAML]: a sequence of mappings
//
// [DetectFormat] picks a format from a file extension. [ImportRecords] opens
// a file and dispatches on its extension; [ReadRecords] works on any reader.
//
//	records, err := io.ImportRecords("flows.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g := flow.ConsolidateRecords(records)
//
// # Export
//
// [WriteRecords] and [ExportRecords] write records back out in any of the
// three formats. Column order for CSV is taken from the caller or, when none
// is given, from the sorted union of record keys.
//
// [flow.FromRecord]: github.com/matzehuels/flowmap/pkg/flow.FromRecord
package io
