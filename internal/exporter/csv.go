package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility
	BOMPrefix bool
	logger    *slog.Logger
}

// NewCSVWriter creates a writer that prefixes output with a BOM
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{BOMPrefix: true, logger: slog.Default()}
}

// WithLogger sets the logger used for file writes
func (w *CSVWriter) WithLogger(logger *slog.Logger) *CSVWriter {
	w.logger = logger
	return w
}

// WriteTable writes the header and every row to out
func (w *CSVWriter) WriteTable(out io.Writer, t Table) error {
	if w.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(t.Headers) > 0 {
		if err := writer.Write(t.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range t.Rows {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes the table to path, creating parent directories
func (w *CSVWriter) WriteFile(path string, t Table) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", path),
		slog.String("table", t.Name),
		slog.Int("record_count", len(t.Rows)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := w.WriteTable(file, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
