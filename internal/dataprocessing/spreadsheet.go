package dataprocessing

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"batchline/internal/dbf"
)

// ErrEmptyWorkbook is returned when a workbook has no header row
var ErrEmptyWorkbook = errors.New("workbook has no data")

// ParseWorkbook reads the first sheet of an .xlsx export into the same row
// shape the table decoder produces. The first non-empty row is the header;
// header names are upper-cased to match the binary export. Numeric cells
// become float64, text cells stay strings and blank cells nil.
func ParseWorkbook(r io.Reader) ([]dbf.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	sheet := sheets[0]
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	headerRow := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerRow = i
			break
		}
	}
	if headerRow == -1 {
		return nil, ErrEmptyWorkbook
	}

	header := make([]string, len(rows[headerRow]))
	for j, h := range rows[headerRow] {
		header[j] = strings.ToUpper(strings.TrimSpace(h))
	}

	out := make([]dbf.RawRow, 0, len(rows)-headerRow-1)
	for i, row := range rows[headerRow+1:] {
		if blankRow(row) {
			continue
		}
		rowNum := headerRow + i + 2
		raw := make(dbf.RawRow, len(header))
		for j, name := range header {
			if name == "" {
				continue
			}
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			if cell == "" {
				raw[name] = nil
				continue
			}
			addr, err := excelize.CoordinatesToCellName(j+1, rowNum)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, addr)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", addr, err)
			}
			raw[name] = cellValue(typ, cell)
		}
		out = append(out, raw)
	}

	return out, nil
}

// cellValue keeps text cells as text, so "000123" stays an identifier as it
// does in a character field of a table. Untyped and numeric cells become
// float64 when they hold a finite number.
func cellValue(typ excelize.CellType, cell string) any {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return cell
	case excelize.CellTypeBool:
		return cell == "1" || strings.EqualFold(cell, "TRUE")
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return cell
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
