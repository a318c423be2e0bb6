package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"predictflow/internal/model"
	"predictflow/pkg/contracts/domain"
)

// FixtureRows is the number of rows in the training fixture
const FixtureRows = 10

// TrainingFrames returns a linear training set: frequency = 2*load,
// stress = 10*load and strain = load/100 for load = 1..FixtureRows
func TrainingFrames() (domain.Frame, domain.Frame) {
	x := domain.Frame{Columns: []string{"load", "frequency"}, Values: make([][]domain.Number, 2)}
	y := domain.Frame{Columns: []string{"stress", "strain"}, Values: make([][]domain.Number, 2)}
	for i := 0; i < FixtureRows; i++ {
		load := float64(i + 1)
		x.Values[0] = append(x.Values[0], domain.Some(load))
		x.Values[1] = append(x.Values[1], domain.Some(load*2))
		y.Values[0] = append(y.Values[0], domain.Some(load*10))
		y.Values[1] = append(y.Values[1], domain.Some(load/100))
	}
	return x, y
}

// TrainedModel trains a KNN model on TrainingFrames
func TrainedModel(t *testing.T) *model.Model {
	t.Helper()
	x, y := TrainingFrames()
	res, err := model.Train(x, y, model.DefaultTrainOptions())
	require.NoError(t, err)
	return res.Model
}

// SavedModel writes a trained model artifact under dir and returns its path
func SavedModel(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "models", "model.json")
	require.NoError(t, model.NewFileStore(path).Save(TrainedModel(t)))
	return path
}

// WriteCSV writes rows to dir/name and returns the path
func WriteCSV(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	return path
}
