package domain

import (
	"time"
)

// AnonymousName is recorded when no name is submitted
const AnonymousName = "Anonymous"

// Feedback is one append-only review record
type Feedback struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Review    string    `json:"review" db:"review"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SubmitRequest is the POST /feedback body. A missing or null name is
// recorded as AnonymousName; an explicit empty string is kept as is.
type SubmitRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=200"`
	Review string  `json:"review" validate:"max=10000"`
}

// DisplayName resolves the name to record
func (r *SubmitRequest) DisplayName() string {
	if r.Name == nil {
		return AnonymousName
	}
	return *r.Name
}

// SubmitResponse is the acknowledgement the frontend expects
type SubmitResponse struct {
	Success string `json:"success"`
}

// Acknowledgement is the fixed success message
const Acknowledgement = "Feedback received!"
