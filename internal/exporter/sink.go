package exporter

import (
	"fmt"
	"path/filepath"
	"strings"

	"predictflow/pkg/contracts/domain"
)

// TableSink writes a header table to a file
type TableSink interface {
	WriteTable(filePath string, table domain.Table) error
}

// SinkFor picks a writer from the file extension. CSV output carries a UTF-8 BOM.
func SinkFor(filePath string) (TableSink, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		return NewCSVWriter("", true), nil
	case ".xlsx":
		return NewXLSXWriter(), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", filepath.Ext(filePath))
}

// WriteTable writes table to filePath in the format its extension names
func WriteTable(filePath string, table domain.Table) error {
	sink, err := SinkFor(filePath)
	if err != nil {
		return err
	}
	return sink.WriteTable(filePath, table)
}

// AppendPredictions returns a copy of input with one column per output
// appended; row i receives predictions[i]
func AppendPredictions(input domain.Table, outputs []string, predictions [][]float64) domain.Table {
	out := domain.Table{
		Headers: append(append([]string(nil), input.Headers...), outputs...),
		Rows:    make([][]domain.Cell, len(input.Rows)),
	}
	for i := range input.Rows {
		row := make([]domain.Cell, 0, len(out.Headers))
		for c := range input.Headers {
			row = append(row, input.Value(i, c))
		}
		for o := range outputs {
			if i < len(predictions) && o < len(predictions[i]) {
				row = append(row, domain.NumberCell(predictions[i][o]))
			} else {
				row = append(row, domain.BlankCell())
			}
		}
		out.Rows[i] = row
	}
	return out
}
