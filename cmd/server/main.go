// Command server runs the PredictFlow HTTP API.
//
//	server [-config config.yaml]
//	server -version
//	echo -n 'password' | server -hash
//
// -hash prints the bcrypt hash of a password read from stdin, for use in the
// auth.users section of the configuration.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"predictflow/internal/app"
	"predictflow/internal/config"
	apierrors "predictflow/internal/errors"
	"predictflow/internal/infrastructure"
	"predictflow/internal/services"
	"predictflow/pkg/contracts"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default: config.yaml, configs/config.yaml or $"+config.EnvPrefix+"_CONFIG)")
	hash := fs.Bool("hash", false, "print the bcrypt hash of a password read from stdin and exit")
	version := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	if *hash {
		return hashPassword(stdin, stdout, stderr)
	}

	application, err := newApplication(*configPath)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if err := application.Run(); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func newApplication(configPath string) (*app.Application, error) {
	if configPath == "" {
		return app.NewApplication()
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, apierrors.NewConfigError("failed to load "+configPath, err)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return app.New(cfg, logger)
}

func hashPassword(stdin io.Reader, stdout, stderr io.Writer) int {
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		fmt.Fprintln(stderr, "error: empty password")
		return 1
	}

	hashed, err := services.HashPassword(password)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, hashed)
	return 0
}
