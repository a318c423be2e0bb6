package files

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"predictflow/pkg/contracts/domain"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"a.csv", FormatCSV, false},
		{"A.XLSX", FormatXLSX, false},
		{"macro.xlsm", FormatXLSX, false},
		{"legacy.xls", "", true},
		{"notes.pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	content := "\xEF\xBB\xBFload,frequency,stress\n0.2,0.1,15.15MPA\n,,\n0.4,,"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	sheets, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "train", sheets[0].Name)

	rows := sheets[0].Rows
	require.Len(t, rows, 4)
	assert.Equal(t, domain.TextCell("load"), rows[0][0])
	assert.Equal(t, domain.NumberCell(0.2), rows[1][0])
	assert.Equal(t, domain.TextCell("15.15MPA"), rows[1][2])
	assert.True(t, rows[2][1].IsBlank())

	table := HeaderTable(Trim(rows))
	assert.Equal(t, []string{"load", "frequency", "stress"}, table.Headers)
	assert.Len(t, table.Rows, 2)
}

func writeWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := "blocks"
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))

	rows := [][]interface{}{
		{"载荷", 0.2, nil, "应力强度最大值", "15.15MPA"},
		{"频率", 0.1, nil, "定向弹性应变", 4.92e-05, -3.9647e-05},
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	_, err := f.NewSheet("empty")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "load.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadFile_Workbook(t *testing.T) {
	path := writeWorkbook(t)

	sheets, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	blocks := sheets[0]
	assert.Equal(t, "blocks", blocks.Name)
	assert.False(t, blocks.IsEmpty())
	assert.Equal(t, domain.TextCell("载荷"), blocks.Rows.At(0, 0))
	assert.Equal(t, domain.NumberCell(0.2), blocks.Rows.At(0, 1))
	assert.True(t, blocks.Rows.At(0, 2).IsBlank())

	strain := blocks.Rows.At(1, 4)
	require.Equal(t, domain.CellNumber, strain.Kind)
	assert.InDelta(t, 4.92e-05, strain.Num, 1e-15)

	assert.Equal(t, "empty", sheets[1].Name)
	assert.True(t, sheets[1].IsEmpty())
}

func TestHeaderTable(t *testing.T) {
	raw := domain.RawTable{
		{domain.TextCell(" a "), domain.TextCell("")},
		{domain.NumberCell(1), domain.NumberCell(2)},
	}

	table := HeaderTable(raw)
	assert.Equal(t, []string{"a", "column_2"}, table.Headers)
	assert.Equal(t, [][]domain.Cell{{domain.NumberCell(1), domain.NumberCell(2)}}, table.Rows)

	assert.Equal(t, domain.Table{}, HeaderTable(nil))
}

func TestTrim(t *testing.T) {
	raw := domain.RawTable{
		{domain.BlankCell(), domain.BlankCell()},
		{domain.TextCell("x"), domain.BlankCell(), domain.TextCell("y")},
		{domain.TextCell(" ")},
		{domain.BlankCell(), domain.BlankCell(), domain.NumberCell(3)},
	}

	got := Trim(raw)
	assert.Equal(t, domain.RawTable{
		{domain.TextCell("x"), domain.TextCell("y")},
		{domain.BlankCell(), domain.NumberCell(3)},
	}, got)
}
