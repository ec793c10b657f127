// Package exporter renders datasets and analysis reports for download.
//
// WriteCSV writes a raw table, optionally prefixed with a UTF-8 BOM so that Excel detects the
// encoding. WriteExcel builds a multi-sheet workbook from a Report and WriteMarkdown renders the
// same Report as aligned Markdown tables. FileExporter resolves relative output paths against a
// base directory and writes any of the three formats to disk.
//
// Example usage:
//
//	report := &exporter.Report{Name: "q1", Dataset: ds, Summary: aggregate.Summarize(ds)}
//	fe := exporter.NewFileExporter("/path/to/reports", logger)
//	path, err := fe.Excel("q1.xlsx", report)
package exporter
