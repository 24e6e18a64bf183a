package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cardiolens/cardiolens-backend/internal/feedback/domain"
	"github.com/cardiolens/cardiolens-backend/pkg/database"
	"github.com/google/uuid"
)

// Schema creates the feedback table. Safe to run on every startup.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS feedback (
		id         UUID PRIMARY KEY,
		name       VARCHAR(200) NOT NULL,
		review     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback (created_at)`,
}

// PostgresLog stores feedback rows in PostgreSQL
type PostgresLog struct {
	db *database.DB
}

// NewPostgresLog creates a new postgres-backed feedback log
func NewPostgresLog(db *database.DB) *PostgresLog {
	return &PostgresLog{db: db}
}

func (r *PostgresLog) Name() string { return "postgres" }

// Migrate creates the schema
func (r *PostgresLog) Migrate(ctx context.Context) error {
	return r.db.Migrate(ctx, Schema...)
}

// Append inserts one row
func (r *PostgresLog) Append(ctx context.Context, fb *domain.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.New().String()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO feedback (id, name, review, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.ExecContext(ctx, query, fb.ID, fb.Name, fb.Review, fb.CreatedAt); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// Count returns the number of stored records
func (r *PostgresLog) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM feedback`); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

// Health reports database reachability
func (r *PostgresLog) Health(ctx context.Context) map[string]string {
	status := r.db.Health(ctx)
	status["driver"] = r.Name()
	return status
}
