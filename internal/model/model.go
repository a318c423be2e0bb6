package model

import (
	"fmt"
	"time"

	"predictflow/pkg/contracts/domain"
)

// Model is an immutable trained handle: a schema and the predictor fitted to it
type Model struct {
	schema    domain.ModelSchema
	predictor Predictor
	trainedAt time.Time
	metrics   Metrics
}

// New validates that predictor fits schema and returns the handle
func New(schema domain.ModelSchema, predictor Predictor, trainedAt time.Time, metrics Metrics) (*Model, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if p, ok := predictor.(Persistable); ok {
		in, out := p.Dims()
		if in != len(schema.Inputs) || out != len(schema.Outputs) {
			return nil, fmt.Errorf("%w: predictor is %dx%d, schema is %dx%d",
				ErrShapeMismatch, in, out, len(schema.Inputs), len(schema.Outputs))
		}
	}
	return &Model{
		schema:    schema.Clone(),
		predictor: predictor,
		trainedAt: trainedAt,
		metrics:   metrics,
	}, nil
}

// Schema returns a copy of the input/output contract
func (m *Model) Schema() domain.ModelSchema { return m.schema.Clone() }

// Inputs returns the input column names in feature order
func (m *Model) Inputs() []string { return append([]string(nil), m.schema.Inputs...) }

// Outputs returns the output column names in prediction order
func (m *Model) Outputs() []string { return append([]string(nil), m.schema.Outputs...) }

// Kind returns the predictor kind
func (m *Model) Kind() string { return m.predictor.Kind() }

// TrainedAt returns the training timestamp
func (m *Model) TrainedAt() time.Time { return m.trainedAt }

// Metrics returns a copy of the held-out scores
func (m *Model) Metrics() Metrics {
	out := make(Metrics, len(m.metrics))
	for k, v := range m.metrics {
		out[k] = v
	}
	return out
}

// Predict predicts one feature vector and names the outputs
func (m *Model) Predict(v domain.FeatureVector) (map[string]float64, error) {
	out, err := m.PredictBatch([]domain.FeatureVector{v})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// PredictBatch predicts every vector, preserving order
func (m *Model) PredictBatch(vectors []domain.FeatureVector) ([]map[string]float64, error) {
	X := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != len(m.schema.Inputs) {
			return nil, fmt.Errorf("%w: vector %d has %d values, model expects %d",
				ErrShapeMismatch, i, len(v), len(m.schema.Inputs))
		}
		X[i] = v
	}
	if len(X) == 0 {
		return nil, nil
	}

	Y, err := m.predictor.Predict(X)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]float64, len(Y))
	for i, row := range Y {
		if len(row) != len(m.schema.Outputs) {
			return nil, fmt.Errorf("%w: predictor returned %d outputs, schema has %d",
				ErrShapeMismatch, len(row), len(m.schema.Outputs))
		}
		named := make(map[string]float64, len(row))
		for j, name := range m.schema.Outputs {
			named[name] = row[j]
		}
		out[i] = named
	}
	return out, nil
}
