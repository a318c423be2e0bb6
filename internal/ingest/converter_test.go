package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"predictflow/internal/dataprocessing"
	"predictflow/internal/files"
	"predictflow/pkg/contracts/domain"
)

func newTestConverter() *Converter {
	return NewConverter(dataprocessing.NewBlockExtractor(dataprocessing.DefaultBlockLayout()), slog.Default())
}

func setRows(t *testing.T, f *excelize.File, sheet string, rows [][]interface{}) {
	t.Helper()
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
}

// buildWorkbook writes a workbook with the named sheets; nil content leaves a sheet empty
func buildWorkbook(t *testing.T, dir string, sheets map[string][][]interface{}, order []string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		setRows(t, f, name, sheets[name])
	}

	path := filepath.Join(dir, "load.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var blockRows = [][]interface{}{
	{"载荷", 0.2, nil, "应力强度最大值", "15.15MPA"},
	{"频率", 0.1, nil, "定向弹性应变", 4.92e-05, -3.9647e-05},
	{nil, nil, nil, "线性化薄膜应力", "2.78MPA"},
	{nil, nil, nil, "膜加弯应力", "6.3691MPA"},
}

var plainRows = [][]interface{}{
	{nil, nil, nil},
	{nil, "load", "life"},
	{nil, 1.5, 1000},
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := strings.TrimPrefix(string(content), "\xEF\xBB\xBF")
	return strings.Split(strings.TrimSpace(text), "\n")
}

func TestConverter_ConvertFile_MultipleSheets(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, map[string][][]interface{}{
		"blocks": blockRows,
		"plain":  plainRows,
	}, []string{"blocks", "empty", "plain"})

	results, err := newTestConverter().ConvertFile(context.Background(), path, Options{Clean: true})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(dir, "load_blocks.csv"), results[0].Path)
	assert.True(t, results[0].Structured)
	assert.Equal(t, 1, results[0].Rows)
	assert.Equal(t, filepath.Join(dir, "load_plain.csv"), results[1].Path)
	assert.False(t, results[1].Structured)

	assert.Equal(t, []string{
		"load,frequency,stress_intensity_max,strain_primary,strain_secondary,membrane_stress,bending_stress",
		"0.2,0.1,15.15MPA,0.0000492,-0.000039647,2.78MPA,6.3691MPA",
	}, readLines(t, results[0].Path))
	assert.Equal(t, []string{"load,life", "1.5,1000"}, readLines(t, results[1].Path))
}

func TestConverter_ConvertFile_UserOutput(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, map[string][][]interface{}{
		"blocks": blockRows,
		"plain":  plainRows,
	}, []string{"blocks", "plain"})
	out := filepath.Join(dir, "out", "train.csv")

	results, err := newTestConverter().ConvertFile(context.Background(), path, Options{Output: out, Clean: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, out, results[0].Path)
	assert.Equal(t, filepath.Join(dir, "out", "train_plain.csv"), results[1].Path)
}

func TestConverter_ConvertFile_SingleSheet(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, map[string][][]interface{}{"blocks": blockRows}, []string{"blocks", "empty"})

	results, err := newTestConverter().ConvertFile(context.Background(), path, Options{Clean: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "load.csv"), results[0].Path)
}

func TestConverter_ConvertFile_BOM(t *testing.T) {
	for _, noBOM := range []bool{false, true} {
		dir := t.TempDir()
		path := buildWorkbook(t, dir, map[string][][]interface{}{"plain": plainRows}, []string{"plain"})

		results, err := newTestConverter().ConvertFile(context.Background(), path, Options{Clean: true, NoBOM: noBOM})
		require.NoError(t, err)
		require.Len(t, results, 1)

		content, err := os.ReadFile(results[0].Path)
		require.NoError(t, err)
		assert.Equal(t, !noBOM, strings.HasPrefix(string(content), "\xEF\xBB\xBF"), "noBOM=%v", noBOM)
	}
}

func TestConverter_ConvertFile_NamedSheet(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, map[string][][]interface{}{
		"blocks": blockRows,
		"plain":  plainRows,
	}, []string{"blocks", "plain", "empty"})
	c := newTestConverter()

	results, err := c.ConvertFile(context.Background(), path, Options{Sheet: "plain"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "load.csv"), results[0].Path)

	results, err = c.ConvertFile(context.Background(), path, Options{Sheet: "empty"})
	assert.NoError(t, err)
	assert.Empty(t, results)

	_, err = c.ConvertFile(context.Background(), path, Options{Sheet: "nope"})
	assert.True(t, errors.Is(err, files.ErrSheetNotFound))
}

func TestConverter_ConvertFile_AllEmpty(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, nil, []string{"a", "b"})

	_, err := newTestConverter().ConvertFile(context.Background(), path, Options{})
	assert.True(t, errors.Is(err, ErrAllSheetsEmpty))
}

func TestConverter_LoadTable(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, map[string][][]interface{}{
		"blocks": blockRows,
		"plain":  plainRows,
	}, []string{"empty", "blocks", "plain"})
	c := newTestConverter()

	table, err := c.LoadTable(path, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RecordFields, table.Headers)

	table, err = c.LoadTable(path, "plain")
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "life"}, table.Headers)
	assert.Equal(t, domain.NumberCell(1000), table.Rows[0][1])

	_, err = c.LoadTable(path, "missing")
	assert.True(t, errors.Is(err, files.ErrSheetNotFound))
}
