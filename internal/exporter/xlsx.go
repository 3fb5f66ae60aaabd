package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"batchline/pkg/contracts/domain"
)

// WorkbookTables returns the sheets written by WriteWorkbook, in order
func WorkbookTables(records []domain.BatchRecord) []Table {
	return []Table{
		BatchTable(records),
		StepTable(records),
		MaterialTable(records),
		ParameterTable(records),
	}
}

// WriteWorkbook writes records as an .xlsx workbook with one sheet per table.
// Measurement columns are stored as numbers; identifiers stay text.
func WriteWorkbook(out io.Writer, records []domain.BatchRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range WorkbookTables(records) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}
		if err := writeSheet(f, t); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table) error {
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", t.Name, err)
	}

	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = cellValue(t.Headers[i], v)
		}
		addr, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, addr, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", t.Name, r, err)
		}
	}
	return nil
}

func cellValue(header, v string) any {
	if !numericColumn(header) {
		return v
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

func numericColumn(header string) bool {
	switch header {
	case "steps", "waits", "step_number", "value", "target_value":
		return true
	}
	return strings.HasSuffix(header, "_min") || strings.HasSuffix(header, "_qty")
}
