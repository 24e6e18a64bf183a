package database

import (
	"github.com/cardiolens/cardiolens-backend/pkg/errors"
	"github.com/lib/pq"
)

// MapPQError converts a PostgreSQL constraint error to an AppError.
// Returns nil if the error is not a pq.Error or not a constraint violation.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		field := pqErr.Column
		if field == "" {
			field = pqErr.Constraint
		}
		return errors.Validation(map[string]string{
			field: "violates " + pqErr.Constraint,
		})

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// String data right truncation (22001)
	case "22001":
		return errors.BadRequest("value too long")

	default:
		return nil
	}
}
