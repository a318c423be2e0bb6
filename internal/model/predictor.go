package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Predictor maps rows of features to rows of outputs
type Predictor interface {
	Predict(X [][]float64) ([][]float64, error)
	Kind() string
}

// Persistable is a predictor that can be written into an artifact
type Persistable interface {
	Predictor
	MarshalParams() (json.RawMessage, error)
	// Dims returns the input and output widths the predictor was fitted with
	Dims() (inputs, outputs int)
}

// Decoder rebuilds a predictor from its persisted params
type Decoder func(params json.RawMessage) (Persistable, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Decoder{
		KindKNN: decodeKNN,
	}
)

// RegisterKind makes a predictor kind loadable from artifacts
func RegisterKind(kind string, decode Decoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = decode
}

// Kinds lists the registered predictor kinds
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func decodePredictor(kind string, params json.RawMessage) (Persistable, error) {
	registryMu.RLock()
	decode, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return decode(params)
}
