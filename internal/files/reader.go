package files

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"predictflow/internal/dataprocessing"
	"predictflow/pkg/contracts/domain"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor a workbook
	ErrUnsupportedFormat = errors.New("unsupported tabular format")
	// ErrSheetNotFound is returned when a requested sheet does not exist
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoData is returned when a file has no non-empty sheet
	ErrNoData = errors.New("no data")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format identifies a tabular file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat returns the format implied by the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// Sheet is one named grid of a tabular file. CSV files have a single sheet
// named after the file.
type Sheet struct {
	Name string
	Rows domain.RawTable
}

// ReadFile reads every sheet of a CSV or workbook file
func ReadFile(path string) ([]Sheet, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Read(f, format, name)
}

// Read reads every sheet from r. name labels the single sheet of a CSV source.
func Read(r io.Reader, format Format, name string) ([]Sheet, error) {
	switch format {
	case FormatCSV:
		rows, err := readCSV(r)
		if err != nil {
			return nil, err
		}
		return []Sheet{{Name: name, Rows: rows}}, nil
	case FormatXLSX:
		return readWorkbook(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func readCSV(r io.Reader) (domain.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	table := make(domain.RawTable, len(records))
	for i, rec := range records {
		table[i] = cellsFromStrings(rec)
	}
	return table, nil
}

func readWorkbook(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		table := make(domain.RawTable, len(rows))
		for i, row := range rows {
			table[i] = cellsFromStrings(row)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: table})
	}
	return sheets, nil
}

// cellsFromStrings types raw strings: empty is blank, plain literals are numbers
func cellsFromStrings(values []string) []domain.Cell {
	cells := make([]domain.Cell, len(values))
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			cells[i] = domain.BlankCell()
			continue
		}
		text := domain.TextCell(v)
		if f, ok := dataprocessing.ParseStrict(text); ok {
			cells[i] = domain.NumberCell(f)
			continue
		}
		cells[i] = text
	}
	return cells
}

// IsEmpty reports whether every cell of the sheet is blank
func (s Sheet) IsEmpty() bool {
	for _, row := range s.Rows {
		for _, c := range row {
			if !c.IsBlank() {
				return false
			}
		}
	}
	return true
}

// Trim drops rows and columns that are entirely blank
func Trim(raw domain.RawTable) domain.RawTable {
	width := raw.Width()
	keepCol := make([]bool, width)
	for _, row := range raw {
		for c, cell := range row {
			if !cell.IsBlank() {
				keepCol[c] = true
			}
		}
	}

	var out domain.RawTable
	for _, row := range raw {
		blank := true
		for _, cell := range row {
			if !cell.IsBlank() {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		trimmed := make([]domain.Cell, 0, width)
		for c := 0; c < width; c++ {
			if keepCol[c] {
				trimmed = append(trimmed, cellAt(row, c))
			}
		}
		out = append(out, trimmed)
	}
	return out
}

func cellAt(row []domain.Cell, c int) domain.Cell {
	if c < len(row) {
		return row[c]
	}
	return domain.BlankCell()
}

// HeaderTable uses the first row of raw as headers. Blank headers are named
// after their position.
func HeaderTable(raw domain.RawTable) domain.Table {
	if len(raw) == 0 {
		return domain.Table{}
	}
	width := raw.Width()
	headers := make([]string, width)
	for c := 0; c < width; c++ {
		h := strings.TrimSpace(raw.At(0, c).String())
		if h == "" {
			h = fmt.Sprintf("column_%d", c+1)
		}
		headers[c] = h
	}
	return domain.Table{Headers: headers, Rows: raw[1:]}
}
