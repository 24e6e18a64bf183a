package repository

import (
	"context"

	"github.com/cardiolens/cardiolens-backend/internal/feedback/domain"
)

// Log is an append-only feedback sink. Records are never updated or deleted.
type Log interface {
	Append(ctx context.Context, fb *domain.Feedback) error
	Health(ctx context.Context) map[string]string
	Name() string
}
