// Package domain holds the value types shared by the ingestion, training and
// serving layers: raw spreadsheet grids, flat tables, numeric frames and the
// model schema contract.
package domain

import (
	"math"
	"strconv"
	"strings"
)

// CellKind discriminates the three cell shapes a spreadsheet can hold
type CellKind int

const (
	CellBlank CellKind = iota
	CellNumber
	CellText
)

// Cell is one untyped spreadsheet cell
type Cell struct {
	Kind CellKind
	Num  float64
	Text string
}

// BlankCell returns an absent cell
func BlankCell() Cell { return Cell{Kind: CellBlank} }

// NumberCell returns a typed numeric cell
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// TextCell returns a text cell. Whitespace-only text is still text.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// IsBlank reports whether the cell is absent or holds only whitespace
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case CellBlank:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	}
	return false
}

// String renders the cell the way it would be written to a CSV file
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return ""
		}
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellText:
		return c.Text
	}
	return ""
}

// RawTable is a row-major grid with no header assumption. Rows may be ragged.
type RawTable [][]Cell

// At returns the cell at (row, col), or a blank cell when out of range
func (t RawTable) At(row, col int) Cell {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return BlankCell()
	}
	return t[row][col]
}

// Width returns the length of the widest row
func (t RawTable) Width() int {
	w := 0
	for _, r := range t {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Table is a flat table with a header row
type Table struct {
	Headers []string
	Rows    [][]Cell
}

// Column returns the index of the named header, or -1
func (t Table) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at (row, col), blank when the row is short
func (t Table) Value(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return BlankCell()
	}
	return t.Rows[row][col]
}

// ColumnCells returns every cell of column col, padding short rows with blanks
func (t Table) ColumnCells(col int) []Cell {
	out := make([]Cell, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Value(i, col)
	}
	return out
}

// RowMap returns row i keyed by header name. A repeated header keeps its
// first column.
func (t Table) RowMap(i int) map[string]Cell {
	m := make(map[string]Cell, len(t.Headers))
	for c, h := range t.Headers {
		if _, seen := m[h]; !seen {
			m[h] = t.Value(i, c)
		}
	}
	return m
}
