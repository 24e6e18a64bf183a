package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cardiolens/cardiolens-backend/internal/extraction/domain"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/parser"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/processor"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/storage"
	"github.com/cardiolens/cardiolens-backend/pkg/errors"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
	"github.com/cardiolens/cardiolens-backend/pkg/messaging"
)

// Service orchestrates extraction: save upload → OCR → parse → cleanup
type Service struct {
	registry  *processor.Registry
	tempDir   string
	publisher messaging.EventPublisher
	log       *logger.Logger
}

// NewService creates a new extraction service. Workspaces are created under tempDir.
func NewService(registry *processor.Registry, tempDir string, publisher messaging.EventPublisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		registry:  registry,
		tempDir:   tempDir,
		publisher: publisher,
		log:       log,
	}
}

// Extract runs OCR over the uploaded document and returns the fields found.
// The upload and all intermediate files are removed before Extract returns.
func (s *Service) Extract(ctx context.Context, filename string, upload io.Reader) (*domain.Result, error) {
	start := time.Now()
	kind := domain.KindOf(filename)

	proc := s.registry.FindProcessor(kind)
	if proc == nil {
		return nil, errors.Internal(fmt.Sprintf("no processor available for %s documents", kind))
	}

	ws, err := storage.NewWorkspace(s.tempDir)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create extraction workspace")
		return nil, errors.Internal("failed to store uploaded file")
	}
	defer func() {
		if err := ws.Close(); err != nil {
			s.log.Warn().Err(err).Str("dir", ws.Dir()).Msg("failed to remove extraction workspace")
		}
	}()

	path, err := ws.Save(filename, upload)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to save upload")
		return nil, errors.Internal("failed to store uploaded file")
	}

	text, err := proc.Process(ctx, path, ws)
	if err != nil {
		s.log.Error().Err(err).Str("processor", proc.Name()).Msg("document processing failed")
		return nil, errors.Dependency("Error processing file", err)
	}

	fields := parser.Parse(text.Body)
	found := fields.Names()

	s.log.Info().
		Str("processor", proc.Name()).
		Str("kind", string(kind)).
		Int("pages", text.Pages).
		Strs("fields_found", found).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("document extraction completed")

	s.publish(ctx, messaging.EventExtractionCompleted, messaging.ExtractionCompletedEvent{
		DocumentKind: string(kind),
		Pages:        text.Pages,
		FieldsFound:  found,
	})

	return &domain.Result{Kind: kind, Pages: text.Pages, Fields: fields}, nil
}

func (s *Service) publish(ctx context.Context, eventType string, data interface{}) {
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
