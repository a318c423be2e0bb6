package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictflow/internal/files"
	"predictflow/internal/shared/testutil"
)

func newValidator(t *testing.T) (*FileValidator, *testutil.BufferedSlogHandler) {
	logger, handler := testutil.NewTestLogger(t)
	return NewFileValidator(logger), handler
}

func TestFileValidator_ValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"csv", write("ok.csv", "load\n1\n"), nil},
		{"workbook extension", write("ok.xlsx", "not checked here"), nil},
		{"missing", filepath.Join(dir, "absent.csv"), ErrNotExist},
		{"directory", dir, ErrIsDirectory},
		{"empty", write("empty.csv", ""), ErrEmptyFile},
		{"lock file", write("~$book.xlsx", "x"), ErrLockFile},
		{"unsupported", write("notes.pdf", "x"), files.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newValidator(t)
			err := v.ValidateInputFile(tt.path)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestFileValidator_ValidateOutputFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("creates missing directory", func(t *testing.T) {
		v, _ := newValidator(t)
		out := filepath.Join(dir, "nested", "out.xlsx")
		require.NoError(t, v.ValidateOutputFile(out))
		assert.DirExists(t, filepath.Dir(out))

		entries, err := os.ReadDir(filepath.Dir(out))
		require.NoError(t, err)
		assert.Empty(t, entries, "write-test file must be removed")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		v, handler := newValidator(t)
		assert.Error(t, v.ValidateOutputFile(filepath.Join(dir, "out.json")))
		assert.True(t, handler.ContainsMessage("Unsupported output format"))
	})

	t.Run("directory target", func(t *testing.T) {
		v, _ := newValidator(t)
		target := filepath.Join(dir, "table.csv")
		require.NoError(t, os.Mkdir(target, 0755))
		assert.ErrorIs(t, v.ValidateOutputFile(target), ErrIsDirectory)
	})
}

func TestFileValidator_ValidateModelFile(t *testing.T) {
	dir := t.TempDir()
	v, handler := newValidator(t)

	path := testutil.SavedModel(t, dir)
	assert.NoError(t, v.ValidateModelFile(path))
	assert.ErrorIs(t, v.ValidateModelFile(filepath.Join(dir, "none.json")), ErrNotExist)
	assert.True(t, handler.ContainsMessage("File does not exist"))

	other := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(other, []byte("{}"), 0644))
	assert.NoError(t, v.ValidateModelFile(other))
	assert.True(t, handler.ContainsMessage("Model artifact without .json extension"))
}
