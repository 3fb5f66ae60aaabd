// Package exporter writes consolidated batch records as CSV and XLSX.
//
// Two tables are produced from a record set: one summary row per
// (batch, equipment group) record, and one timeline row per step, wait steps
// included. CSVWriter emits either table to any io.Writer with a UTF-8 BOM
// so spreadsheet tools detect the encoding. WriteWorkbook puts both tables,
// plus materials and parameter readings, on separate sheets of one workbook.
//
// Example usage:
//
//	w := exporter.NewCSVWriter()
//	err := w.WriteTable(os.Stdout, exporter.BatchTable(records))
//
//	err = exporter.WriteWorkbook(f, records)
package exporter
