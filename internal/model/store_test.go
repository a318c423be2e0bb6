package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictflow/pkg/contracts/domain"
)

func trainedModel(t *testing.T, rows int) *Model {
	t.Helper()
	x, y := linearFrames(rows)
	res, err := Train(x, y, DefaultTrainOptions())
	require.NoError(t, err)
	return res.Model
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "model.json")
	store := NewFileStore(path)
	m := trainedModel(t, 10)

	require.NoError(t, store.Save(m))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, m.Schema(), loaded.Schema())
	assert.Equal(t, m.Kind(), loaded.Kind())
	assert.Equal(t, m.Metrics(), loaded.Metrics())
	assert.True(t, m.TrainedAt().Equal(loaded.TrainedAt()))

	query := []domain.FeatureVector{{2.5, 5}, {11, 22}}
	want, err := m.PredictBatch(query)
	require.NoError(t, err)
	got, err := loaded.PredictBatch(query)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// no temp files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.json", entries[0].Name())
}

func TestFileStore_Load_Errors(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) *FileStore {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return NewFileStore(path)
	}

	tests := []struct {
		name  string
		store *FileStore
		want  error
	}{
		{
			name:  "missing file",
			store: NewFileStore(filepath.Join(dir, "absent.json")),
			want:  ErrNoModel,
		},
		{
			name:  "wrong format version",
			store: write("v9.json", `{"format_version": 9, "inputs": ["a"], "outputs": ["b"], "predictor": {"kind": "knn", "params": {}}}`),
			want:  ErrFormatVersion,
		},
		{
			name:  "unknown kind",
			store: write("kind.json", `{"format_version": 1, "inputs": ["a"], "outputs": ["b"], "predictor": {"kind": "forest", "params": {}}}`),
			want:  ErrUnknownKind,
		},
		{
			name: "predictor does not fit schema",
			store: write("shape.json", `{"format_version": 1, "inputs": ["a", "b"], "outputs": ["c"],
				"predictor": {"kind": "knn", "params": {"k": 1, "mins": [0], "maxs": [1], "x": [[0], [1]], "y": [[1], [2]]}}}`),
			want: ErrShapeMismatch,
		},
		{
			name: "ragged params",
			store: write("ragged.json", `{"format_version": 1, "inputs": ["a"], "outputs": ["c"],
				"predictor": {"kind": "knn", "params": {"k": 1, "mins": [0], "maxs": [1], "x": [[0], [1, 2]], "y": [[1], [2]]}}}`),
			want: ErrShapeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.store.Load()
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := write("garbage.json", "not json").Load()
	assert.Error(t, err)
}

func TestRegisterKind(t *testing.T) {
	assert.Contains(t, Kinds(), KindKNN)
	_, err := decodePredictor("missing-kind", nil)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}
