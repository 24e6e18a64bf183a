package service

import (
	"context"
	"time"

	"github.com/cardiolens/cardiolens-backend/internal/feedback/domain"
	"github.com/cardiolens/cardiolens-backend/internal/feedback/repository"
	"github.com/cardiolens/cardiolens-backend/pkg/errors"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
	"github.com/cardiolens/cardiolens-backend/pkg/messaging"
	"github.com/google/uuid"
)

// Service records user feedback
type Service struct {
	log       repository.Log
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewService creates a new feedback service
func NewService(log repository.Log, publisher messaging.EventPublisher, lg *logger.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		log:       log,
		publisher: publisher,
		logger:    lg,
	}
}

// Submit appends one record to the feedback log
func (s *Service) Submit(ctx context.Context, req *domain.SubmitRequest) (*domain.Feedback, error) {
	fb := &domain.Feedback{
		ID:        uuid.New().String(),
		Name:      req.DisplayName(),
		Review:    req.Review,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.log.Append(ctx, fb); err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		s.logger.Error().Err(err).Str("sink", s.log.Name()).Msg("failed to record feedback")
		return nil, errors.Internal("Failed to save feedback")
	}

	s.logger.Info().
		Str("feedback_id", fb.ID).
		Str("sink", s.log.Name()).
		Int("review_length", len(fb.Review)).
		Msg("feedback recorded")

	if err := s.publisher.Publish(ctx, messaging.EventFeedbackReceived, messaging.FeedbackReceivedEvent{
		FeedbackID: fb.ID,
		HasName:    req.Name != nil && *req.Name != "",
	}); err != nil {
		s.logger.Warn().Err(err).Str("event_type", messaging.EventFeedbackReceived).Msg("failed to publish event")
	}

	return fb, nil
}

// Health reports the sink status
func (s *Service) Health(ctx context.Context) map[string]string {
	return s.log.Health(ctx)
}
