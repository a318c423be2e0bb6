package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"predictflow/internal/dataprocessing"
	apierrors "predictflow/internal/errors"
	"predictflow/internal/files"
	"predictflow/internal/infrastructure"
	"predictflow/internal/ingest"
	"predictflow/internal/model"
	api "predictflow/pkg/contracts/api/v1"
	"predictflow/pkg/contracts/domain"
)

// Prediction paths used as metric labels
const (
	PathSingle = "single"
	PathBatch  = "batch"
)

// PredictionService serves predictions from the currently published model.
// Every call loads the model once and uses that handle throughout.
type PredictionService struct {
	holder    *model.Holder
	aligner   *dataprocessing.FeatureAligner
	converter *ingest.Converter
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewPredictionService creates a prediction service
func NewPredictionService(holder *model.Holder, converter *ingest.Converter, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *PredictionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictionService{
		holder:    holder,
		aligner:   dataprocessing.NewFeatureAligner(dataprocessing.DefaultVocabulary),
		converter: converter,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "prediction_service")),
	}
}

// Predict aligns load and frequency onto the model's inputs and predicts
// every output
func (s *PredictionService) Predict(ctx context.Context, load, frequency float64) (*api.PredictResponse, error) {
	start := time.Now()

	m, err := s.holder.Require()
	if err != nil {
		return nil, err
	}

	aligned := s.aligner.AlignRequest(dataprocessing.Quantities{Load: load, Frequency: frequency}, m.Inputs())
	if n := aligned.Fallbacks(); n > 0 {
		s.logger.DebugContext(ctx, "inputs resolved without a keyword",
			slog.Any("inputs", m.Inputs()),
			slog.Any("resolutions", aligned.Resolutions))
	}

	predictions, err := m.Predict(aligned.Vector)
	if err != nil {
		logServiceError(ctx, s.logger, "predict", "prediction failed", slog.String("error", err.Error()))
		return nil, apierrors.NewModelError("prediction failed", err)
	}

	infrastructure.RecordPredictionMetrics(ctx, s.metrics, PathSingle, 1, time.Since(start), aligned.Fallbacks())
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"prediction.path":      PathSingle,
		"prediction.fallbacks": aligned.Fallbacks(),
	})

	return &api.PredictResponse{
		Predictions: predictions,
		InputData:   api.PredictInput{Load: load, Frequency: frequency},
	}, nil
}

// PredictBatch reads an uploaded CSV or workbook, checks that every model
// input column is present, and predicts each row. A missing column rejects
// the whole file with a *dataprocessing.MissingColumnsError.
func (s *PredictionService) PredictBatch(ctx context.Context, r io.Reader, filename string) (*api.BatchPredictResponse, error) {
	start := time.Now()

	m, err := s.holder.Require()
	if err != nil {
		return nil, err
	}

	table, err := s.readUpload(r, filename)
	if err != nil {
		return nil, err
	}

	inputs := m.Inputs()
	vectors, err := s.aligner.AlignTable(table, inputs)
	if err != nil {
		var missing *dataprocessing.MissingColumnsError
		if errors.As(err, &missing) {
			infrastructure.RecordBatchRejection(ctx, s.metrics, len(missing.Missing))
			s.logger.WarnContext(ctx, "batch rejected",
				slog.String("file", filename),
				slog.Any("missing", missing.Missing),
				slog.Any("headers", table.Headers))
		}
		return nil, err
	}

	predictions, err := m.PredictBatch(vectors)
	if err != nil {
		logServiceError(ctx, s.logger, "predict_batch", "batch prediction failed",
			slog.String("file", filename),
			slog.String("error", err.Error()))
		return nil, apierrors.NewModelError("batch prediction failed", err)
	}

	rows := make([]api.BatchRow, len(vectors))
	for i, v := range vectors {
		in := make(map[string]float64, len(inputs))
		for j, name := range inputs {
			in[name] = v[j]
		}
		rows[i] = api.BatchRow{Inputs: in, Predictions: predictions[i]}
	}

	infrastructure.RecordPredictionMetrics(ctx, s.metrics, PathBatch, len(rows), time.Since(start), 0)
	s.logger.InfoContext(ctx, "batch predicted",
		slog.String("file", filename),
		slog.Int("rows", len(rows)),
		slog.Duration("duration", time.Since(start)))

	return &api.BatchPredictResponse{Rows: rows, Count: len(rows)}, nil
}

func (s *PredictionService) readUpload(r io.Reader, filename string) (domain.Table, error) {
	format, err := files.DetectFormat(filename)
	if err != nil {
		return domain.Table{}, err
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	sheets, err := files.Read(r, format, name)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Table{}, err
		}
		return domain.Table{}, apierrors.NewParsingError(fmt.Sprintf("cannot read %s", filepath.Base(filename)), err)
	}

	table, err := s.converter.PickTable(sheets, "")
	if err != nil {
		return domain.Table{}, apierrors.NewParsingError("uploaded file has no data", err)
	}
	if len(table.Rows) == 0 {
		return domain.Table{}, apierrors.NewAppError(apierrors.ErrTypeValidation, ErrEmptyBatch.Error(), ErrEmptyBatch)
	}
	return table, nil
}

// ModelInfo describes the published model
func (s *PredictionService) ModelInfo(ctx context.Context) (*api.ModelInfoResponse, error) {
	m, err := s.holder.Require()
	if err != nil {
		return nil, err
	}

	var metrics map[string]api.OutputMetricsValue
	if scores := m.Metrics(); len(scores) > 0 {
		metrics = make(map[string]api.OutputMetricsValue, len(scores))
		for name, sc := range scores {
			metrics[name] = api.OutputMetricsValue{R2: sc.R2, MAE: sc.MAE}
		}
	}

	return &api.ModelInfoResponse{
		Inputs:    m.Inputs(),
		Outputs:   m.Outputs(),
		Kind:      m.Kind(),
		TrainedAt: m.TrainedAt(),
		Metrics:   metrics,
	}, nil
}
