package database

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantCode   string
		wantStatus int
	}{
		{"not a pq error", stderrors.New("boom"), true, "", 0},
		{"check violation", &pq.Error{Code: "23514", Constraint: "feedback_review_length"}, false, "VALIDATION_ERROR", http.StatusBadRequest},
		{"not null violation", &pq.Error{Code: "23502", Column: "review"}, false, "VALIDATION_ERROR", http.StatusBadRequest},
		{"too long", &pq.Error{Code: "22001"}, false, "BAD_REQUEST", http.StatusBadRequest},
		{"wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23502"}), false, "VALIDATION_ERROR", http.StatusBadRequest},
		{"unrelated code", &pq.Error{Code: "40001"}, true, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := MapPQError(tt.err)
			if tt.wantNil {
				assert.Nil(t, appErr)
				return
			}
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
		})
	}
}
