package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ExecutableBase selects the executable's directory as BaseDir
const ExecutableBase = "exe"

// Paths contains the resolved, absolute application paths
type Paths struct {
	BaseDir   string
	ModelFile string
	ModelsDir string
	DataDir   string
	LogsDir   string
}

// ExecutableDir returns the directory holding the running binary, with
// symlinks resolved
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// ResolvePaths turns the configured paths into absolute ones. BaseDir may be
// empty (working directory), ExecutableBase, or a directory.
func (c *Config) ResolvePaths() (*Paths, error) {
	base, err := c.baseDir()
	if err != nil {
		return nil, err
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	model := resolve(c.Paths.ModelFile)
	return &Paths{
		BaseDir:   base,
		ModelFile: model,
		ModelsDir: filepath.Dir(model),
		DataDir:   resolve(c.Paths.DataDir),
		LogsDir:   resolve(c.Paths.LogsDir),
	}, nil
}

func (c *Config) baseDir() (string, error) {
	switch c.Paths.BaseDir {
	case "":
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return wd, nil
	case ExecutableBase:
		return ExecutableDir()
	default:
		return filepath.Abs(c.Paths.BaseDir)
	}
}

// EnsureDirectories creates the data, logs and model directories
func (p *Paths) EnsureDirectories(logger *slog.Logger) error {
	for _, dir := range []string{p.DataDir, p.LogsDir, p.ModelsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		if logger != nil {
			logger.Debug("Ensured directory exists", slog.String("directory", dir))
		}
	}
	return nil
}

// LogPathResolution logs the resolved paths
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("logs", p.LogsDir),
			slog.String("models", p.ModelsDir),
		),
		slog.Group("files",
			slog.String("model", p.ModelFile),
			slog.Bool("model_exists", FileExists(p.ModelFile)),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
