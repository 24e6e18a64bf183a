package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventExtractionCompleted = "extraction.completed"
	EventPredictionCompleted = "prediction.completed"
	EventFeedbackReceived    = "feedback.received"
)

// DefaultExchange is the topic exchange all events go to
const DefaultExchange = "cardiolens.events"

// Event is the envelope every published message is wrapped in
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ExtractionCompletedEvent is published after a document was OCR'd and parsed.
// It never carries the extracted values themselves.
type ExtractionCompletedEvent struct {
	DocumentKind string   `json:"document_kind"`
	Pages        int      `json:"pages"`
	FieldsFound  []string `json:"fields_found"`
}

// PredictionCompletedEvent is published after a successful prediction
type PredictionCompletedEvent struct {
	Prediction       int      `json:"prediction"`
	Probability      float64  `json:"probability"`
	DefaultedColumns []string `json:"defaulted_columns,omitempty"`
}

// FeedbackReceivedEvent is published after a feedback record was appended
type FeedbackReceivedEvent struct {
	FeedbackID string `json:"feedback_id"`
	HasName    bool   `json:"has_name"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
