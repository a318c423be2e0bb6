// Command train inspects a table, proposes input and output columns, trains a
// multi-output regressor and saves the model artifact.
//
//	train <file> [--inputs a,b] [--outputs c,d] [--out-model models/model.json] [--auto] [-k 5]
//
// Without --auto the proposed columns are confirmed on stdin; an empty answer
// accepts the proposal, otherwise names or zero-based indices are read.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"predictflow/internal/config"
	"predictflow/internal/dataprocessing"
	"predictflow/internal/infrastructure"
	"predictflow/internal/ingest"
	"predictflow/internal/model"
	"predictflow/internal/shared/cli"
	"predictflow/internal/validation"
	"predictflow/pkg/contracts/domain"
)

// sampleRows is how many trailing rows get a sample prediction
const sampleRows = 3

type options struct {
	path     string
	sheet    string
	inputs   string
	outputs  string
	outModel string
	auto     bool
	impute   string
	train    model.TrainOptions
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v, using defaults\n", err)
		cfg = config.Default()
	}

	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.sheet, "sheet", "", "sheet to read from a workbook (default: first non-empty)")
	fs.StringVar(&opts.inputs, "inputs", "", "comma separated input columns (names or indices)")
	fs.StringVar(&opts.outputs, "outputs", "", "comma separated output columns (names or indices)")
	fs.StringVar(&opts.outModel, "out-model", config.DefaultModelFile, "where to save the model artifact")
	fs.BoolVar(&opts.auto, "auto", false, "accept the proposed columns without prompting")
	fs.IntVar(&opts.train.K, "k", cfg.Model.K, "number of neighbours")
	fs.Float64Var(&opts.train.TestRatio, "test-ratio", cfg.Model.TestRatio, "share of rows held out for scoring")
	fs.Int64Var(&opts.train.Seed, "seed", cfg.Model.Seed, "split seed")
	fs.StringVar(&opts.impute, "impute", cfg.Model.Impute, "fill missing values with the column median, mean or zero")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: train <file> [flags]")
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
	opts.path = positional[0]
	if _, err := dataprocessing.ParseImputePolicy(opts.impute); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	logger := infrastructure.NewCLILogger(*logLevel)
	ctx = infrastructure.EnsureTraceID(ctx)
	if err := train(ctx, opts, cli.NewPrompter(stdin, stdout), stdout, logger); err != nil {
		logger.ErrorContext(ctx, "Training failed", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func train(ctx context.Context, opts options, prompt *cli.Prompter, out io.Writer, logger *slog.Logger) error {
	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputFile(opts.path); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(filepath.Dir(opts.outModel)); err != nil {
		return err
	}

	converter := ingest.NewConverter(
		dataprocessing.NewBlockExtractor(dataprocessing.DefaultBlockLayout()),
		logger,
	)
	table, err := converter.LoadTable(opts.path, opts.sheet)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", opts.path, err)
	}
	fmt.Fprintf(out, "Loaded %s: %d rows, %d columns\n", opts.path, len(table.Rows), len(table.Headers))

	printSummary(out, table)

	classifier := dataprocessing.NewColumnClassifier(dataprocessing.DefaultVocabulary)
	candidates := classifier.Classify(table.Headers, dataprocessing.NumericColumns(table))
	printCorrelations(out, table, candidates)

	roles := candidates
	if opts.inputs != "" {
		roles.Inputs = dataprocessing.ParseSelection(opts.inputs, table.Headers)
	}
	if opts.outputs != "" {
		roles.Outputs = dataprocessing.ParseSelection(opts.outputs, table.Headers)
	}

	if !opts.auto {
		roles, err = confirmRoles(prompt, out, table.Headers, roles)
		if err != nil {
			return err
		}
	}
	if err := dataprocessing.RequireRoles(roles); err != nil {
		if opts.auto {
			return fmt.Errorf("%w (use --inputs/--outputs)", err)
		}
		return err
	}

	fmt.Fprintf(out, "\nInputs:  %s\nOutputs: %s\n", strings.Join(roles.Inputs, ", "), strings.Join(roles.Outputs, ", "))

	policy, err := dataprocessing.ParseImputePolicy(opts.impute)
	if err != nil {
		return err
	}
	x, y, fills, err := dataprocessing.Prepare(table, roles, dataprocessing.NewImputer(policy))
	if err != nil {
		return err
	}
	for _, f := range fills {
		fmt.Fprintf(out, "Column %q: %d missing values filled with %s %.4f\n", f.Column, f.Filled, policy, f.Value)
	}

	result, err := model.Train(x, y, opts.train)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	m := result.Model

	fmt.Fprintf(out, "\nTrained %s on %d rows (%d train, %d test), %d inputs, %d outputs\n",
		m.Kind(), x.Rows(), result.TrainRows, result.TestRows, len(roles.Inputs), len(roles.Outputs))
	metrics := m.Metrics()
	for _, name := range m.Outputs() {
		s := metrics[name]
		fmt.Fprintf(out, "  %-24s R2: %.4f  MAE: %.4f\n", name, s.R2, s.MAE)
	}

	if err := model.NewFileStore(opts.outModel).Save(m); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	fmt.Fprintf(out, "\nModel saved to %s\n", opts.outModel)
	logger.InfoContext(ctx, "Model saved",
		slog.String("path", opts.outModel),
		slog.Any("inputs", m.Inputs()),
		slog.Any("outputs", m.Outputs()))

	return printSample(out, m, x)
}

func printSummary(out io.Writer, table domain.Table) {
	fmt.Fprintln(out, "\nColumns:")
	for _, s := range dataprocessing.Summarize(table) {
		fmt.Fprintf(out, "  %3d. %-28s %-8s missing=%d\n", s.Index, s.Name, s.Kind, s.Missing)
	}
	fmt.Fprintln(out, "\nFirst rows:")
	_ = cli.PrintTable(out, table, 5)
}

func printCorrelations(out io.Writer, table domain.Table, roles domain.ColumnRoleSet) {
	if !roles.Valid() {
		return
	}
	x, err := dataprocessing.SelectFrame(table, roles.Inputs)
	if err != nil {
		return
	}
	y, err := dataprocessing.SelectFrame(table, roles.Outputs)
	if err != nil {
		return
	}
	corr, err := dataprocessing.Correlations(x, y)
	if errors.Is(err, dataprocessing.ErrTooFewRows) {
		fmt.Fprintln(out, "\n(too few complete rows for correlations)")
		return
	}
	if err != nil {
		return
	}

	fmt.Fprintln(out, "\nCorrelations:")
	for _, in := range roles.Inputs {
		fmt.Fprintf(out, "  %s\n", in)
		row := corr[in]
		names := make([]string, 0, len(row))
		for name := range row {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return row[names[i]] > row[names[j]] })
		for _, name := range names {
			fmt.Fprintf(out, "    %-24s %+.4f\n", name, row[name])
		}
	}
}

// confirmRoles shows the proposal and lets the user replace either side
func confirmRoles(prompt *cli.Prompter, out io.Writer, headers []string, roles domain.ColumnRoleSet) (domain.ColumnRoleSet, error) {
	fmt.Fprintf(out, "\nProposed inputs:  %s\n", strings.Join(roles.Inputs, ", "))
	fmt.Fprintf(out, "Proposed outputs: %s\n", strings.Join(roles.Outputs, ", "))
	fmt.Fprintln(out, "Press enter to accept, or list column names or indices separated by commas.")

	answer, err := prompt.Ask("Inputs: ")
	if err != nil && !errors.Is(err, cli.ErrNoInput) {
		return roles, err
	}
	if answer != "" {
		roles.Inputs = dataprocessing.ParseSelection(answer, headers)
	}

	answer, err = prompt.Ask("Outputs: ")
	if err != nil && !errors.Is(err, cli.ErrNoInput) {
		return roles, err
	}
	if answer != "" {
		roles.Outputs = dataprocessing.ParseSelection(answer, headers)
	}
	fmt.Fprintln(out)
	return roles, nil
}

func printSample(out io.Writer, m *model.Model, x domain.Frame) error {
	rows := x.Matrix()
	if len(rows) > sampleRows {
		rows = rows[len(rows)-sampleRows:]
	}
	vectors := make([]domain.FeatureVector, len(rows))
	for i, r := range rows {
		vectors[i] = domain.FeatureVector(r)
	}
	preds, err := m.PredictBatch(vectors)
	if err != nil {
		return err
	}

	sample := domain.Table{Headers: append(m.Inputs(), m.Outputs()...)}
	for i, r := range rows {
		row := make([]domain.Cell, 0, len(sample.Headers))
		for _, v := range r {
			row = append(row, domain.NumberCell(v))
		}
		for _, name := range m.Outputs() {
			row = append(row, domain.NumberCell(preds[i][name]))
		}
		sample.Rows = append(sample.Rows, row)
	}

	fmt.Fprintf(out, "\nSample prediction (last %d rows):\n", len(rows))
	return cli.PrintTable(out, sample, 0)
}
