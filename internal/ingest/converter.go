// Package ingest converts spreadsheet exports into flat tables, reassembling
// block-structured sheets and cleaning plain ones.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"predictflow/internal/dataprocessing"
	"predictflow/internal/exporter"
	"predictflow/internal/files"
	"predictflow/pkg/contracts/domain"
)

// ErrAllSheetsEmpty is returned when a workbook has nothing to convert
var ErrAllSheetsEmpty = errors.New("all sheets are empty")

// Options configures a conversion
type Options struct {
	// Output is the target file. Empty means <stem>.csv next to the source.
	Output string
	// Sheet restricts conversion to one sheet
	Sheet string
	// Clean drops blank rows and columns from sheets that are not block-structured
	Clean bool
	// NoBOM omits the UTF-8 byte order mark from CSV output
	NoBOM bool
}

// Result describes one written sheet
type Result struct {
	Sheet      string `json:"sheet"`
	Path       string `json:"path"`
	Structured bool   `json:"structured"`
	Rows       int    `json:"rows"`
}

// Converter turns workbook sheets into flat tables
type Converter struct {
	extractor *dataprocessing.BlockExtractor
	logger    *slog.Logger
}

// NewConverter creates a converter
func NewConverter(extractor *dataprocessing.BlockExtractor, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		extractor: extractor,
		logger:    logger.With(slog.String("component", "converter")),
	}
}

// SheetTable turns one sheet into a flat table. Block-structured sheets are
// reassembled into records; anything else uses its first row as the header.
func (c *Converter) SheetTable(sheet files.Sheet, clean bool) (domain.Table, bool) {
	records, err := c.extractor.Extract(sheet.Rows)
	if err == nil {
		return dataprocessing.RecordsToTable(records), true
	}
	raw := sheet.Rows
	if clean {
		raw = files.Trim(raw)
	}
	return files.HeaderTable(raw), false
}

// LoadTable reads path and returns the flat table of the named sheet, or of
// the first non-empty sheet when sheet is empty
func (c *Converter) LoadTable(path, sheet string) (domain.Table, error) {
	sheets, err := files.ReadFile(path)
	if err != nil {
		return domain.Table{}, err
	}
	return c.PickTable(sheets, sheet)
}

// PickTable selects a sheet like LoadTable does
func (c *Converter) PickTable(sheets []files.Sheet, sheet string) (domain.Table, error) {
	for _, s := range sheets {
		if sheet != "" && s.Name != sheet {
			continue
		}
		if sheet == "" && s.IsEmpty() {
			continue
		}
		table, _ := c.SheetTable(s, true)
		return table, nil
	}
	if sheet != "" {
		return domain.Table{}, fmt.Errorf("%w: %s", files.ErrSheetNotFound, sheet)
	}
	return domain.Table{}, files.ErrNoData
}

// ConvertFile converts every non-empty sheet of path (or only opts.Sheet) and
// returns what was written. With several sheets, each goes to
// <stem>_<sheet>.csv, except that the first uses opts.Output when one was given.
func (c *Converter) ConvertFile(ctx context.Context, path string, opts Options) ([]Result, error) {
	sheets, err := files.ReadFile(path)
	if err != nil {
		return nil, err
	}

	output := opts.Output
	userOutput := output != ""
	if !userOutput {
		output = filepath.Join(filepath.Dir(path), stem(path)+".csv")
	}

	if opts.Sheet != "" {
		var found *files.Sheet
		for i := range sheets {
			if sheets[i].Name == opts.Sheet {
				found = &sheets[i]
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%w: %s", files.ErrSheetNotFound, opts.Sheet)
		}
		if found.IsEmpty() {
			c.logger.WarnContext(ctx, "Sheet is empty, skipped", slog.String("sheet", found.Name))
			return nil, nil
		}
		sheets = []files.Sheet{*found}
	}

	var nonEmpty []files.Sheet
	for _, s := range sheets {
		if s.IsEmpty() {
			c.logger.WarnContext(ctx, "Sheet is empty, skipped", slog.String("sheet", s.Name))
			continue
		}
		nonEmpty = append(nonEmpty, s)
	}
	if len(nonEmpty) == 0 {
		return nil, ErrAllSheetsEmpty
	}

	results := make([]Result, 0, len(nonEmpty))
	for idx, s := range nonEmpty {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		target := output
		if len(nonEmpty) > 1 && !(idx == 0 && userOutput) {
			target = filepath.Join(filepath.Dir(output), stem(output)+"_"+s.Name+".csv")
		}

		table, structured := c.SheetTable(s, opts.Clean)
		if err := writeTable(target, table, opts); err != nil {
			return results, fmt.Errorf("failed to write sheet %s: %w", s.Name, err)
		}

		c.logger.InfoContext(ctx, "Sheet converted",
			slog.String("sheet", s.Name),
			slog.String("output", target),
			slog.Bool("structured", structured),
			slog.Int("rows", len(table.Rows)))

		results = append(results, Result{
			Sheet:      s.Name,
			Path:       target,
			Structured: structured,
			Rows:       len(table.Rows),
		})
	}
	return results, nil
}

func writeTable(path string, table domain.Table, opts Options) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return exporter.NewCSVWriter("", !opts.NoBOM).WriteTable(path, table)
	}
	return exporter.WriteTable(path, table)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
