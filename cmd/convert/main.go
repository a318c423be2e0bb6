// Command convert turns spreadsheet exports into flat CSV files.
//
//	convert <file|dir|glob> [-o out.csv] [-s sheet] [--no-clean] [--bom=false]
//
// Block-structured sheets are reassembled into one record per block; other
// sheets keep their first non-blank row as the header.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"predictflow/internal/dataprocessing"
	"predictflow/internal/files"
	"predictflow/internal/infrastructure"
	"predictflow/internal/ingest"
	"predictflow/internal/shared/cli"
	"predictflow/internal/validation"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts ingest.Options
	fs.StringVar(&opts.Output, "o", "", "output CSV path (single file input only)")
	fs.StringVar(&opts.Output, "output", "", "alias for -o")
	fs.StringVar(&opts.Sheet, "s", "", "convert only this sheet")
	fs.StringVar(&opts.Sheet, "sheet", "", "alias for -s")
	noClean := fs.Bool("no-clean", false, "keep blank rows and columns of plain sheets")
	bom := fs.Bool("bom", true, "prefix CSV output with a UTF-8 byte order mark")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: convert <file|dir> [flags]")
		fs.PrintDefaults()
	}

	positional, err := cli.Parse(fs, args)
	if err != nil {
		return 2
	}
	if len(positional) != 1 {
		fs.Usage()
		return 2
	}
	opts.Clean = !*noClean
	opts.NoBOM = !*bom

	logger := infrastructure.NewCLILogger(*logLevel)
	ctx = infrastructure.EnsureTraceID(ctx)
	converter := ingest.NewConverter(
		dataprocessing.NewBlockExtractor(dataprocessing.DefaultBlockLayout()),
		logger,
	)

	if opts.Output != "" {
		if err := validation.NewFileValidator(logger).ValidateOutputFile(opts.Output); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
	}

	found, err := files.NewDiscovery("").Expand(positional[0])
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	// A CSV converted next to itself would overwrite its source
	var inputs []files.FileInfo
	for _, in := range found {
		if in.Format == files.FormatCSV && opts.Output == "" {
			if len(found) == 1 {
				fmt.Fprintln(stderr, "error: -o is required when converting a CSV file")
				return 2
			}
			continue
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		fmt.Fprintf(stderr, "error: no workbooks in %s\n", positional[0])
		return 1
	}
	if len(inputs) > 1 && opts.Output != "" {
		fmt.Fprintln(stderr, "error: -o cannot be used with a directory of several files")
		return 2
	}

	failed := 0
	for _, in := range inputs {
		results, err := converter.ConvertFile(ctx, in.Path, opts)
		if err != nil {
			failed++
			logger.ErrorContext(ctx, "Conversion failed",
				slog.String("file", in.Path),
				slog.String("error", err.Error()))
			if errors.Is(err, ingest.ErrAllSheetsEmpty) {
				fmt.Fprintf(stderr, "%s: every sheet is empty\n", in.Path)
			} else {
				fmt.Fprintf(stderr, "%s: %v\n", in.Path, err)
			}
			continue
		}
		for _, r := range results {
			kind := "table"
			if r.Structured {
				kind = "blocks"
			}
			fmt.Fprintf(stdout, "%s [%s] -> %s (%d rows, %s)\n", in.Name, r.Sheet, r.Path, r.Rows, kind)
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}
