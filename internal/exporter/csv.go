package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes the table header and rows to w.
func WriteCSV(w io.Writer, table *dataset.Table, opts WriteOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// FileExporter writes exports under a base directory.
type FileExporter struct {
	baseDir string
	logger  *slog.Logger
}

// NewFileExporter creates a file exporter. Relative paths are resolved against baseDir.
func NewFileExporter(baseDir string, logger *slog.Logger) *FileExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileExporter{baseDir: baseDir, logger: logger.With("component", "exporter")}
}

// CSV writes table to path and returns the resolved path.
func (e *FileExporter) CSV(path string, table *dataset.Table, opts WriteOptions) (string, error) {
	return e.write(path, "csv", func(w io.Writer) error {
		return WriteCSV(w, table, opts)
	})
}

// Excel writes the report workbook to path and returns the resolved path.
func (e *FileExporter) Excel(path string, report *Report) (string, error) {
	return e.write(path, "excel", func(w io.Writer) error {
		return WriteExcel(w, report)
	})
}

// Markdown writes the report as Markdown to path and returns the resolved path.
func (e *FileExporter) Markdown(path string, report *Report) (string, error) {
	return e.write(path, "markdown", func(w io.Writer) error {
		return WriteMarkdown(w, report)
	})
}

func (e *FileExporter) write(path, format string, render func(io.Writer) error) (string, error) {
	fullPath := e.resolvePath(path)

	e.logger.Info("Writing export",
		slog.String("format", format),
		slog.String("file_path", path),
		slog.String("full_path", fullPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := render(file); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return fullPath, nil
}

// resolvePath resolves a path against the base directory
func (e *FileExporter) resolvePath(path string) string {
	if filepath.IsAbs(path) || e.baseDir == "" {
		return path
	}
	return filepath.Join(e.baseDir, path)
}
