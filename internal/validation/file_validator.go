// Package validation checks the files the command-line tools read and write
// before any work starts, so a bad path fails with one clear message.
package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"predictflow/internal/exporter"
	"predictflow/internal/files"
)

var (
	// ErrNotExist is returned for a path that does not exist
	ErrNotExist = errors.New("does not exist")
	// ErrIsDirectory is returned when a file was expected
	ErrIsDirectory = errors.New("is a directory, not a file")
	// ErrEmptyFile is returned for a zero-length input
	ErrEmptyFile = errors.New("is empty")
	// ErrLockFile is returned for office lock files such as ~$book.xlsx
	ErrLockFile = errors.New("is a temporary office lock file")
)

// FileValidator provides file checks shared by the executables
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateFile checks that path is an existing, readable regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return fmt.Errorf("file %s %w", path, ErrNotExist)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return fmt.Errorf("%s %w", path, ErrIsDirectory)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile checks a table to be read: it must exist, be non-empty,
// have a csv or workbook extension and not be an office lock file
func (v *FileValidator) ValidateInputFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary office file", slog.String("file", path))
		return fmt.Errorf("file %s %w", path, ErrLockFile)
	}

	if _, err := files.DetectFormat(path); err != nil {
		v.logger.Error("Unsupported input format",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return fmt.Errorf("file %s: %w", path, err)
	}

	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		return fmt.Errorf("file %s %w", path, ErrEmptyFile)
	}
	return nil
}

// ValidateModelFile checks a model artifact to be loaded
func (v *FileValidator) ValidateModelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".json" {
		v.logger.Warn("Model artifact without .json extension",
			slog.String("file", path),
			slog.String("extension", ext))
	}
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	testFile.Close()
	os.Remove(testFile.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateOutputFile checks that a table can be written to path: the
// extension must name a supported format and the directory must be writable
func (v *FileValidator) ValidateOutputFile(path string) error {
	if _, err := exporter.SinkFor(path); err != nil {
		v.logger.Error("Unsupported output format",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s %w", path, ErrIsDirectory)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}
