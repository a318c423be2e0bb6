package model

import (
	"fmt"
	"math/rand"
	"time"

	"predictflow/pkg/contracts/domain"
)

// MinSplitRows is the smallest table that is split into train and test rows.
// Smaller tables are scored on the rows they were fitted on.
const MinSplitRows = 5

// TrainOptions configures Train
type TrainOptions struct {
	TestRatio float64
	Seed      int64
	K         int
}

// DefaultTrainOptions returns a 20% held-out split with seed 42
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{TestRatio: 0.2, Seed: 42, K: DefaultK}
}

// TrainResult is the outcome of Train
type TrainResult struct {
	Model     *Model
	TrainRows int
	TestRows  int
}

// Train fits a KNN regressor on fully imputed frames. Scores come from a
// deterministic held-out split; the returned model is refit on every row.
func Train(x, y domain.Frame, opts TrainOptions) (*TrainResult, error) {
	schema := domain.ModelSchema{
		Inputs:  append([]string(nil), x.Columns...),
		Outputs: append([]string(nil), y.Columns...),
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	n := x.Rows()
	if n == 0 {
		return nil, ErrNoSamples
	}
	if y.Rows() != n {
		return nil, fmt.Errorf("%w: %d input rows, %d output rows", ErrShapeMismatch, n, y.Rows())
	}
	if x.HasMissing() || y.HasMissing() {
		return nil, ErrMissingValues
	}

	X, Y := x.Matrix(), y.Matrix()
	trainIdx, testIdx := split(n, opts.TestRatio, opts.Seed)

	scorer := NewKNNRegressor(opts.K)
	if err := scorer.Fit(pick(X, trainIdx), pick(Y, trainIdx)); err != nil {
		return nil, err
	}
	pred, err := scorer.Predict(pick(X, testIdx))
	if err != nil {
		return nil, err
	}
	metrics := Evaluate(schema.Outputs, pick(Y, testIdx), pred)

	final := NewKNNRegressor(opts.K)
	if err := final.Fit(X, Y); err != nil {
		return nil, err
	}

	m, err := New(schema, final, time.Now().UTC(), metrics)
	if err != nil {
		return nil, err
	}
	return &TrainResult{Model: m, TrainRows: len(trainIdx), TestRows: len(testIdx)}, nil
}

// split shuffles row indices with seed and holds out ratio of them. Tables
// below MinSplitRows, or ratios that hold out nothing, use every row for both.
func split(n int, ratio float64, seed int64) (train, test []int) {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	nTest := int(float64(n) * ratio)
	if n < MinSplitRows || nTest <= 0 || nTest >= n {
		return all, all
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest]
}

func pick(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}
