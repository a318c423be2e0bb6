package model

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// OutputMetrics holds held-out scores for one output column
type OutputMetrics struct {
	R2  float64 `json:"r2"`
	MAE float64 `json:"mae"`
}

// Metrics maps output names to their scores
type Metrics map[string]OutputMetrics

// R2 is the coefficient of determination. A constant target scores 1 when
// predicted exactly and 0 otherwise.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	if floats.Min(yTrue) == floats.Max(yTrue) {
		if floats.Equal(yTrue, yPred) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

// MAE is the mean absolute error
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	return floats.Distance(yPred, yTrue, 1) / float64(len(yTrue))
}

// Evaluate scores predictions column by column
func Evaluate(outputs []string, yTrue, yPred [][]float64) Metrics {
	metrics := make(Metrics, len(outputs))
	for j, name := range outputs {
		truth := column(yTrue, j)
		pred := column(yPred, j)
		metrics[name] = OutputMetrics{R2: R2(truth, pred), MAE: MAE(truth, pred)}
	}
	return metrics
}

func column(rows [][]float64, j int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[j]
	}
	return out
}
