// Package model trains, persists and serves multi-output regressors.
//
// A trained Model pairs an immutable ModelSchema with a Predictor. Models are
// persisted as a JSON artifact by FileStore and published to request handlers
// through a Holder, which a Watcher refreshes when the artifact changes on disk.
//
// # Artifact
//
//	{
//	  "format_version": 1,
//	  "inputs":  ["load", "frequency"],
//	  "outputs": ["stress", "strain"],
//	  "predictor": {"kind": "knn", "params": {...}},
//	  "trained_at": "2024-01-01T00:00:00Z",
//	  "metrics": {"stress": {"r2": 0.93, "mae": 1.2}}
//	}
//
// The predictor params are opaque here and decoded through a kind registry,
// so new predictor kinds only need RegisterKind.
package model
