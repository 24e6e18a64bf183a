package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(EventPredictionCompleted, "cardiolens", "req-1", PredictionCompletedEvent{
		Prediction:       1,
		Probability:      73.42,
		DefaultedColumns: []string{"Smoke"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventPredictionCompleted, event.Type)
	assert.Equal(t, "cardiolens", event.Source)
	assert.Equal(t, "req-1", event.CorrelationID)
	assert.False(t, event.Timestamp.IsZero())

	var data PredictionCompletedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, 1, data.Prediction)
	assert.Equal(t, 73.42, data.Probability)
	assert.Equal(t, []string{"Smoke"}, data.DefaultedColumns)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		event, err := NewEvent(EventFeedbackReceived, "cardiolens", "", FeedbackReceivedEvent{FeedbackID: "x"})
		require.NoError(t, err)
		assert.False(t, seen[event.ID], "duplicate event id %s", event.ID)
		seen[event.ID] = true
	}
}

func TestExtractionCompletedEvent_CarriesNoValues(t *testing.T) {
	raw, err := json.Marshal(ExtractionCompletedEvent{DocumentKind: "pdf", Pages: 2, FieldsFound: []string{"age", "ap_hi"}})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.ElementsMatch(t, []string{"document_kind", "pages", "fields_found"}, keys(fields))
}

func TestCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", getCorrelationID(ctx))
	assert.Equal(t, "", getCorrelationID(context.Background()))
}

func TestNopPublisher(t *testing.T) {
	var p EventPublisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), EventFeedbackReceived, nil))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
