package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cardiolens/cardiolens-backend/internal/risk/classifier"
	"github.com/cardiolens/cardiolens-backend/internal/risk/domain"
	"github.com/cardiolens/cardiolens-backend/internal/risk/encoder"
	"github.com/cardiolens/cardiolens-backend/pkg/errors"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
	"github.com/cardiolens/cardiolens-backend/pkg/messaging"
)

// Service encodes clinical inputs and scores them with the loaded classifier
type Service struct {
	model     classifier.Classifier
	publisher messaging.EventPublisher
	log       *logger.Logger
}

// NewService creates a new risk service. model may be the Unavailable sentinel.
func NewService(model classifier.Classifier, publisher messaging.EventPublisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		model:     model,
		publisher: publisher,
		log:       log,
	}
}

// ModelAvailable reports whether predictions can be served
func (s *Service) ModelAvailable() bool {
	return classifier.Available(s.model)
}

// ModelName returns the configured backend name
func (s *Service) ModelName() string {
	if s.model == nil {
		return ""
	}
	return s.model.Name()
}

// Predict encodes in and returns the class with the positive-class probability
// as a percentage.
func (s *Service) Predict(ctx context.Context, in domain.ClinicalInput) (*domain.Prediction, error) {
	if !s.ModelAvailable() {
		return nil, errors.ModelUnavailable()
	}

	start := time.Now()

	v, defaulted, err := encoder.Encode(in)
	if err != nil {
		return nil, errors.InvalidInput(err)
	}
	if len(defaulted) > 0 {
		s.log.Warn().Strs("defaulted_columns", defaulted).Msg("missing clinical inputs encoded as 0")
	}

	rows := []domain.FeatureVector{v}

	classes, err := s.model.Predict(ctx, rows)
	if err != nil {
		return nil, s.modelError(err)
	}
	probs, err := s.model.PredictProba(ctx, rows)
	if err != nil {
		return nil, s.modelError(err)
	}
	if len(classes) != 1 || len(probs) != 1 {
		return nil, errors.Dependency("Error during prediction", fmt.Errorf("model returned %d classes and %d probabilities for one row", len(classes), len(probs)))
	}

	result := domain.NewPrediction(classes[0], probs[0][1])

	s.log.Info().
		Str("model", s.model.Name()).
		Int("prediction", result.Prediction).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("prediction completed")

	if err := s.publisher.Publish(ctx, messaging.EventPredictionCompleted, messaging.PredictionCompletedEvent{
		Prediction:       result.Prediction,
		Probability:      result.Probability,
		DefaultedColumns: defaulted,
	}); err != nil {
		s.log.Warn().Err(err).Str("event_type", messaging.EventPredictionCompleted).Msg("failed to publish event")
	}

	return &result, nil
}

func (s *Service) modelError(err error) error {
	if errors.Is(err, errors.ErrModelUnavailable) {
		return errors.ModelUnavailable()
	}
	s.log.Error().Err(err).Str("model", s.model.Name()).Msg("model inference failed")
	return errors.Dependency("Error during prediction", err)
}
