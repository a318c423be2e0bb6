package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"predictflow/pkg/contracts/domain"
)

// DefaultSheetName is the sheet XLSXWriter writes to
const DefaultSheetName = "Sheet1"

// XLSXWriter writes header tables to workbooks
type XLSXWriter struct {
	sheet string
}

// NewXLSXWriter creates a workbook writer
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{sheet: DefaultSheetName}
}

// WriteTable writes table to a single-sheet workbook at filePath. Number cells
// are stored as numbers so spreadsheet formulas keep working.
func (w *XLSXWriter) WriteTable(filePath string, table domain.Table) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(w.sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for r := range table.Rows {
		values := make([]interface{}, len(table.Headers))
		for c := range table.Headers {
			cell := table.Value(r, c)
			switch cell.Kind {
			case domain.CellNumber:
				values[c] = cell.Num
			case domain.CellText:
				values[c] = cell.Text
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
