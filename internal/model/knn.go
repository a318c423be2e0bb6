package model

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// KindKNN identifies KNNRegressor artifacts
const KindKNN = "knn"

// DefaultK is the neighbour count used when none is configured
const DefaultK = 5

// KNNRegressor is a multi-output k-nearest-neighbours regressor. Features are
// min-max scaled with the training ranges and neighbours are weighted by
// inverse distance.
type KNNRegressor struct {
	K int

	x    [][]float64 // scaled training features
	y    [][]float64
	mins []float64
	maxs []float64
}

// NewKNNRegressor creates an unfitted regressor. k <= 0 uses DefaultK.
func NewKNNRegressor(k int) *KNNRegressor {
	if k <= 0 {
		k = DefaultK
	}
	return &KNNRegressor{K: k}
}

// Kind implements Predictor
func (m *KNNRegressor) Kind() string { return KindKNN }

// Dims implements Persistable
func (m *KNNRegressor) Dims() (int, int) {
	if len(m.x) == 0 {
		return 0, 0
	}
	return len(m.mins), len(m.y[0])
}

// Fit stores the scaled training rows. X and Y must have the same row count
// and rectangular rows.
func (m *KNNRegressor) Fit(X, Y [][]float64) error {
	if len(X) == 0 {
		return ErrNoSamples
	}
	if len(X) != len(Y) {
		return fmt.Errorf("%w: %d feature rows, %d target rows", ErrShapeMismatch, len(X), len(Y))
	}
	in, out := len(X[0]), len(Y[0])
	if in == 0 || out == 0 {
		return fmt.Errorf("%w: empty feature or target row", ErrShapeMismatch)
	}

	for i := range X {
		if len(X[i]) != in || len(Y[i]) != out {
			return fmt.Errorf("%w: row %d", ErrShapeMismatch, i)
		}
	}

	mins := make([]float64, in)
	maxs := make([]float64, in)
	col := make([]float64, len(X))
	for j := 0; j < in; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mins[j], maxs[j] = floats.Min(col), floats.Max(col)
	}

	m.mins, m.maxs = mins, maxs
	m.x = make([][]float64, len(X))
	m.y = make([][]float64, len(Y))
	for i := range X {
		m.x[i] = m.scale(X[i])
		m.y[i] = append([]float64(nil), Y[i]...)
	}
	return nil
}

// Predict predicts every row of X. Rows are processed concurrently.
func (m *KNNRegressor) Predict(X [][]float64) ([][]float64, error) {
	if len(m.x) == 0 {
		return nil, ErrNotFitted
	}
	for i, row := range X {
		if len(row) != len(m.mins) {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), len(m.mins))
		}
	}

	out := make([][]float64, len(X))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range X {
		g.Go(func() error {
			out[i] = m.predictRow(X[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type neighbour struct {
	dist float64
	idx  int
}

func (m *KNNRegressor) predictRow(row []float64) []float64 {
	q := m.scale(row)

	nbrs := make([]neighbour, len(m.x))
	for i, xi := range m.x {
		nbrs[i] = neighbour{dist: floats.Distance(q, xi, 2), idx: i}
	}
	sort.SliceStable(nbrs, func(a, b int) bool { return nbrs[a].dist < nbrs[b].dist })

	k := m.K
	if k > len(nbrs) {
		k = len(nbrs)
	}
	nbrs = nbrs[:k]

	width := len(m.y[0])
	pred := make([]float64, width)

	// Exact matches take all the weight.
	exact := 0
	for _, n := range nbrs {
		if n.dist == 0 {
			exact++
			floats.Add(pred, m.y[n.idx])
		}
	}
	if exact > 0 {
		floats.Scale(1/float64(exact), pred)
		return pred
	}

	var total float64
	for _, n := range nbrs {
		w := 1 / n.dist
		total += w
		floats.AddScaled(pred, w, m.y[n.idx])
	}
	floats.Scale(1/total, pred)
	return pred
}

func (m *KNNRegressor) scale(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if span := m.maxs[j] - m.mins[j]; span > 0 {
			out[j] = (v - m.mins[j]) / span
		}
	}
	return out
}

type knnParams struct {
	K    int         `json:"k"`
	Mins []float64   `json:"mins"`
	Maxs []float64   `json:"maxs"`
	X    [][]float64 `json:"x"`
	Y    [][]float64 `json:"y"`
}

// MarshalParams implements Persistable
func (m *KNNRegressor) MarshalParams() (json.RawMessage, error) {
	if len(m.x) == 0 {
		return nil, ErrNotFitted
	}
	return json.Marshal(knnParams{K: m.K, Mins: m.mins, Maxs: m.maxs, X: m.x, Y: m.y})
}

func decodeKNN(raw json.RawMessage) (Persistable, error) {
	var p knnParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode knn params: %w", err)
	}
	if len(p.X) == 0 || len(p.X) != len(p.Y) {
		return nil, fmt.Errorf("%w: knn params hold %d feature rows and %d target rows", ErrShapeMismatch, len(p.X), len(p.Y))
	}
	if len(p.Mins) != len(p.Maxs) {
		return nil, fmt.Errorf("%w: knn scaling ranges", ErrShapeMismatch)
	}
	width := len(p.Y[0])
	for i := range p.X {
		if len(p.X[i]) != len(p.Mins) || len(p.Y[i]) != width {
			return nil, fmt.Errorf("%w: knn params row %d", ErrShapeMismatch, i)
		}
	}
	m := NewKNNRegressor(p.K)
	m.mins, m.maxs, m.x, m.y = p.Mins, p.Maxs, p.X, p.Y
	return m, nil
}
