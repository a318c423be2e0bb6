package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"predictflow/pkg/contracts"
	"predictflow/pkg/contracts/domain"
)

// Store persists models
type Store interface {
	Save(m *Model) error
	Load() (*Model, error)
}

type artifact struct {
	FormatVersion int             `json:"format_version"`
	Inputs        []string        `json:"inputs"`
	Outputs       []string        `json:"outputs"`
	Predictor     artifactPayload `json:"predictor"`
	TrainedAt     time.Time       `json:"trained_at"`
	Metrics       Metrics         `json:"metrics,omitempty"`
}

type artifactPayload struct {
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params"`
}

// FileStore keeps one model as a JSON artifact on disk
type FileStore struct {
	path string
}

// NewFileStore creates a store for the artifact at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the artifact location
func (s *FileStore) Path() string { return s.path }

// Save writes m atomically: readers never observe a partial artifact
func (s *FileStore) Save(m *Model) error {
	p, ok := m.predictor.(Persistable)
	if !ok {
		return fmt.Errorf("predictor kind %q cannot be persisted", m.Kind())
	}
	params, err := p.MarshalParams()
	if err != nil {
		return fmt.Errorf("encode predictor: %w", err)
	}

	data, err := json.MarshalIndent(artifact{
		FormatVersion: contracts.ArtifactFormatVersion,
		Inputs:        m.schema.Inputs,
		Outputs:       m.schema.Outputs,
		Predictor:     artifactPayload{Kind: p.Kind(), Params: params},
		TrainedAt:     m.trainedAt,
		Metrics:       m.metrics,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Load reads and validates the artifact. A missing file yields ErrNoModel.
func (s *FileStore) Load() (*Model, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoModel, s.path)
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.FormatVersion != contracts.ArtifactFormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrFormatVersion, a.FormatVersion)
	}

	predictor, err := decodePredictor(a.Predictor.Kind, a.Predictor.Params)
	if err != nil {
		return nil, err
	}
	return New(domain.ModelSchema{Inputs: a.Inputs, Outputs: a.Outputs}, predictor, a.TrainedAt, a.Metrics)
}
