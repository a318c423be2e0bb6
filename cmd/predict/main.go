// Command predict runs a saved model against a file or interactively.
//
//	predict --model models/model.json --input data.csv [--output out.csv|out.xlsx]
//	predict --model models/model.json --interactive
//
// File input must carry every model input column, matched by name ignoring
// case; other columns are kept and the outputs are appended.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"predictflow/internal/config"
	"predictflow/internal/dataprocessing"
	"predictflow/internal/exporter"
	"predictflow/internal/infrastructure"
	"predictflow/internal/ingest"
	"predictflow/internal/model"
	"predictflow/internal/shared/cli"
	"predictflow/internal/validation"
	"predictflow/pkg/contracts/domain"
)

// previewRows is how many result rows are echoed to stdout
const previewRows = 5

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	modelPath := fs.String("model", config.DefaultModelFile, "model artifact")
	input := fs.String("input", "", "csv or xlsx file to predict")
	output := fs.String("output", "", "write input plus predictions to this csv or xlsx file")
	sheet := fs.String("sheet", "", "sheet to read from a workbook (default: first non-empty)")
	interactive := fs.Bool("interactive", false, "prompt for input values")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: predict --model m.json (--input file [--output out] | --interactive)")
		fs.PrintDefaults()
	}

	if _, err := cli.Parse(fs, args); err != nil {
		return 2
	}
	if *interactive == (*input != "") {
		fs.Usage()
		return 2
	}

	logger := infrastructure.NewCLILogger(*logLevel)
	ctx = infrastructure.EnsureTraceID(ctx)

	if err := validateFiles(validation.NewFileValidator(logger), *modelPath, *input, *output); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	m, err := model.NewFileStore(*modelPath).Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: failed to load model: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Loaded %s model from %s\n", m.Kind(), *modelPath)
	fmt.Fprintf(stdout, "Inputs:  %s\nOutputs: %s\n", strings.Join(m.Inputs(), ", "), strings.Join(m.Outputs(), ", "))

	if *interactive {
		if err := predictInteractive(m, cli.NewPrompter(stdin, stdout), stdout); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := predictFile(ctx, m, *input, *sheet, *output, stdout, logger); err != nil {
		logger.ErrorContext(ctx, "Prediction failed",
			slog.String("input", *input),
			slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func validateFiles(v *validation.FileValidator, modelPath, input, output string) error {
	if err := v.ValidateModelFile(modelPath); err != nil {
		return err
	}
	if input != "" {
		if err := v.ValidateInputFile(input); err != nil {
			return err
		}
	}
	if output != "" {
		return v.ValidateOutputFile(output)
	}
	return nil
}

func predictFile(ctx context.Context, m *model.Model, input, sheet, output string, out io.Writer, logger *slog.Logger) error {
	converter := ingest.NewConverter(
		dataprocessing.NewBlockExtractor(dataprocessing.DefaultBlockLayout()),
		logger,
	)
	table, err := converter.LoadTable(input, sheet)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", input, err)
	}
	fmt.Fprintf(out, "\nRead %d rows from %s\n", len(table.Rows), input)

	vectors, err := dataprocessing.NewFeatureAligner(dataprocessing.DefaultVocabulary).AlignTable(table, m.Inputs())
	if err != nil {
		var missing *dataprocessing.MissingColumnsError
		if errors.As(err, &missing) {
			return fmt.Errorf("input is missing columns %s (available: %s)",
				strings.Join(missing.Missing, ", "), strings.Join(table.Headers, ", "))
		}
		return err
	}

	preds, err := m.PredictBatch(vectors)
	if err != nil {
		return err
	}
	outputs := m.Outputs()
	matrix := make([][]float64, len(preds))
	for i, p := range preds {
		row := make([]float64, len(outputs))
		for j, name := range outputs {
			row[j] = p[name]
		}
		matrix[i] = row
	}
	result := exporter.AppendPredictions(table, outputs, matrix)

	fmt.Fprintln(out, "\nPreview:")
	if err := cli.PrintTable(out, result, previewRows); err != nil {
		return err
	}

	if output != "" {
		if err := exporter.WriteTable(output, result); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		fmt.Fprintf(out, "\nPredictions saved to %s\n", output)
		logger.InfoContext(ctx, "Predictions written",
			slog.String("output", output),
			slog.Int("rows", len(result.Rows)))
	}
	return nil
}

// predictInteractive asks for each input in schema order until the user
// answers q or stdin ends. A value that is not a number restarts the row.
func predictInteractive(m *model.Model, prompt *cli.Prompter, out io.Writer) error {
	inputs := m.Inputs()
	fmt.Fprintln(out, "\nEnter values, or q to quit.")

	for {
		fmt.Fprintln(out, strings.Repeat("-", 40))
		vector := make(domain.FeatureVector, 0, len(inputs))
		for _, name := range inputs {
			answer, err := prompt.Ask(name + ": ")
			if errors.Is(err, cli.ErrNoInput) {
				return nil
			}
			if err != nil {
				return err
			}
			if strings.EqualFold(answer, "q") {
				return nil
			}
			n := dataprocessing.CoerceString(answer)
			if !n.Valid {
				fmt.Fprintf(out, "%q is not a number\n", answer)
				break
			}
			vector = append(vector, n.Value)
		}
		if len(vector) != len(inputs) {
			continue
		}

		pred, err := m.Predict(vector)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nPrediction:")
		for _, name := range m.Outputs() {
			fmt.Fprintf(out, "  %s: %.4f\n", name, pred[name])
		}
		fmt.Fprintln(out)
	}
}
