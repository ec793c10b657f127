// Package ingest turns uploaded CSV, Excel and JSON files into raw tables and profiles them.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

var (
	ErrUnsupportedFormat = errors.New("ingest: unsupported file format")
	ErrEmptyInput        = errors.New("ingest: no header row found")
	ErrMalformed         = errors.New("ingest: malformed input")
)

// Format is a supported input file type.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatJSON  Format = "json"
)

var extensions = map[string]Format{
	".csv":  FormatCSV,
	".txt":  FormatCSV,
	".xlsx": FormatExcel,
	".json": FormatJSON,
}

// FormatFromFilename picks the parser from the file extension.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Reader parses uploaded files.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger.With("component", "ingest")}
}

// Read parses data according to the extension of filename. Header names are trimmed, blank
// names become column_N and repeated names get a numeric suffix.
func (r *Reader) Read(filename string, data []byte) (*dataset.Table, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}

	var table *dataset.Table
	switch format {
	case FormatCSV:
		table, err = r.readCSV(data)
	case FormatExcel:
		table, err = r.readExcel(data)
	case FormatJSON:
		table, err = readJSON(data)
	}
	if err != nil {
		return nil, err
	}

	table.Columns = cleanHeader(table.Columns)
	r.logger.Info("file parsed",
		slog.String("file", filename),
		slog.String("format", string(format)),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))
	return table, nil
}

func cleanHeader(columns []string) []string {
	out := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	for i, c := range columns {
		name := strings.TrimSpace(strings.TrimPrefix(c, bom))
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = name + "_" + strconv.Itoa(n)
		}
		out[i] = name
	}
	return out
}

// rectangular pads or truncates rows to the header width and drops rows with no content.
func rectangular(header []string, rows [][]string) *dataset.Table {
	table := &dataset.Table{Columns: header, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		if blank(row) {
			continue
		}
		out := make([]string, len(header))
		copy(out, row)
		table.Rows = append(table.Rows, out)
	}
	return table
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

const bom = "\ufeff"

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte(bom))
}
