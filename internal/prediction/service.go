package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Brownie44l1/skinsense-api/internal/logging"
	"github.com/Brownie44l1/skinsense-api/internal/metrics"
	"github.com/Brownie44l1/skinsense-api/internal/model"
	"github.com/Brownie44l1/skinsense-api/internal/preprocess"
	"github.com/Brownie44l1/skinsense-api/internal/recommend"
)

// DefaultInferTimeout bounds a single classifier call when no option overrides it.
const DefaultInferTimeout = 30 * time.Second

// Classifier runs the frozen model on one prepared batch and returns the
// per-class probabilities in label order.
type Classifier interface {
	Infer(ctx context.Context, batch *preprocess.Batch) ([]float32, error)
}

// Result is the outcome of one successful prediction.
type Result struct {
	Label          model.Label `json:"-"`
	PredictedClass string      `json:"predicted_class"`
	Confidence     float32     `json:"confidence"`
	Recommendation string      `json:"recommendation"`
}

// Service runs the decode, prepare, infer, resolve and lookup pipeline.
// It is safe for concurrent use.
type Service struct {
	classifier   Classifier
	catalog      *recommend.Catalog
	decoder      *preprocess.Decoder
	metrics      *metrics.Metrics
	logger       *zap.Logger
	inferTimeout time.Duration
	loadErr      error
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records prediction outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithInferTimeout overrides DefaultInferTimeout. Non-positive values are ignored.
func WithInferTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.inferTimeout = d
		}
	}
}

// WithDecoder replaces the default decoder, which has no pixel limit.
func WithDecoder(d *preprocess.Decoder) Option {
	return func(s *Service) { s.decoder = d }
}

// WithLoadError records why the classifier is missing so it can be reported.
func WithLoadError(err error) Option {
	return func(s *Service) { s.loadErr = err }
}

// NewService wires the pipeline. A nil classifier yields a service that
// answers every prediction with ErrRuntimeUnavailable.
func NewService(classifier Classifier, catalog *recommend.Catalog, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		classifier:   classifier,
		catalog:      catalog,
		decoder:      preprocess.NewDecoder(0),
		logger:       logger.Named("prediction"),
		inferTimeout: DefaultInferTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = recommend.Default()
	}
	return s
}

// Available reports whether the classifier loaded.
func (s *Service) Available() bool {
	return s.classifier != nil
}

// LoadError returns the startup failure, if any.
func (s *Service) LoadError() error {
	return s.loadErr
}

// Predict classifies one encoded image. Errors are *Error values whose kind
// is one of ErrInvalidImage, ErrRuntimeUnavailable, ErrInferenceTimeout or
// ErrInternal.
func (s *Service) Predict(ctx context.Context, data []byte) (result *Result, err error) {
	requestID := logging.RequestIDFromContext(ctx)
	logger := logging.WithOperation(s.logger, "predict", requestID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("prediction panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = nil
			err = &Error{Kind: ErrInternal, Op: "predict", Err: fmt.Errorf("panic: %v", r)}
		}
		s.metrics.ObservePrediction(outcome(err))
	}()

	if s.classifier == nil {
		return nil, &Error{Kind: ErrRuntimeUnavailable, Op: "predict", Err: s.loadErr}
	}

	img, format, err := s.decoder.Decode(data)
	if err != nil {
		logger.Debug("rejected upload", zap.Int("bytes", len(data)), zap.Error(err))
		return nil, &Error{Kind: ErrInvalidImage, Op: "decode", Err: err}
	}

	batch := preprocess.Prepare(img)

	inferCtx, cancel := context.WithTimeout(ctx, s.inferTimeout)
	defer cancel()

	start := time.Now()
	probs, err := s.classifier.Infer(inferCtx, batch)
	elapsed := time.Since(start)
	s.metrics.ObserveInference(elapsed)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn("inference did not complete", zap.Duration("elapsed", elapsed), zap.Error(err))
			return nil, &Error{Kind: ErrInferenceTimeout, Op: "infer", Err: err}
		}
		err = logging.NewOperationError("model.infer", requestID, err)
		logger.Error("inference failed", logging.ErrorField(err))
		return nil, &Error{Kind: ErrInternal, Op: "infer", Err: err}
	}

	label, confidence, err := model.Resolve(probs)
	if err != nil {
		logger.Error("unusable classifier output", zap.Float32s("probabilities", probs), zap.Error(err))
		return nil, &Error{Kind: ErrInternal, Op: "resolve", Err: err}
	}

	s.metrics.ObserveClass(label.String())
	logger.Info("prediction complete",
		zap.String("format", format),
		zap.Stringer("class", label),
		zap.Float32("confidence", confidence),
		zap.Duration("inference", elapsed),
	)

	return &Result{
		Label:          label,
		PredictedClass: label.String(),
		Confidence:     confidence,
		Recommendation: s.catalog.Lookup(label),
	}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrInvalidImage):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrRuntimeUnavailable):
		return metrics.OutcomeUnavailable
	case errors.Is(err, ErrInferenceTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeInternal
	}
}
