// Package dataprocessing turns heterogeneous spreadsheet exports into clean
// numeric model inputs. It is pure: nothing here performs I/O or logs.
//
// # Components
//
//  1. NumericCoercer (Coerce): cell to number or missing, unit suffixes dropped
//  2. BlockExtractor: reassembles load/frequency blocks into flat records
//  3. ColumnClassifier: keyword-based input/output candidates
//  4. FeatureAligner: maps a request or batch row onto a model's input schema
//  5. Imputer: per-column median (or constant) fill
//
// # Data Flow
//
// Training:
//
//	RawTable → BlockExtractor (or plain table) → ColumnClassifier → Prepare
//	         → Coerce per cell → Imputer (median) → Predictor.Fit
//
// Inference:
//
//	request / batch row → FeatureAligner → Coerce → Imputer (zero) → Predictor.Predict
//
// # Errors
//
// ErrNotApplicable and unparseable cells are negative results, not failures.
// MissingColumnsError rejects a batch; ErrEmptyCandidateSet is raised by
// RequireRoles for training callers.
package dataprocessing
