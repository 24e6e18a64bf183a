package classifier_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cardiolens/cardiolens-backend/internal/risk/classifier"
	"github.com/cardiolens/cardiolens-backend/internal/risk/domain"
	"github.com/cardiolens/cardiolens-backend/pkg/config"
	"github.com/cardiolens/cardiolens-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "testdata/model.json"

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func TestLoadTreeEnsemble(t *testing.T) {
	e, err := classifier.LoadTreeEnsemble(testModel)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Trees())
	assert.Equal(t, "tree", e.Name())
	assert.True(t, classifier.Available(e))
}

func TestTreeEnsemble_Scoring(t *testing.T) {
	e, err := classifier.LoadTreeEnsemble(testModel)
	require.NoError(t, err)

	tests := []struct {
		name      string
		row       domain.FeatureVector
		wantProb  float64
		wantClass int
	}{
		{"low pressure normal cholesterol", domain.FeatureVector{APHi: 120, Cholesterol: 1}, sigmoid(-0.5), 0},
		{"high pressure high cholesterol", domain.FeatureVector{APHi: 160, Cholesterol: 3}, sigmoid(1.1), 1},
		{"threshold goes right", domain.FeatureVector{APHi: 140, Cholesterol: 1}, sigmoid(0.7), 1},
		{"high pressure only", domain.FeatureVector{APHi: 150, Cholesterol: 2}, sigmoid(0.7), 1},
		{"cholesterol only", domain.FeatureVector{APHi: 100, Cholesterol: 3}, sigmoid(-0.1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs, err := e.PredictProba(context.Background(), []domain.FeatureVector{tt.row})
			require.NoError(t, err)
			require.Len(t, probs, 1)
			assert.InDelta(t, tt.wantProb, probs[0][1], 1e-9)
			assert.InDelta(t, 1, probs[0][0]+probs[0][1], 1e-12)

			classes, err := e.Predict(context.Background(), []domain.FeatureVector{tt.row})
			require.NoError(t, err)
			assert.Equal(t, []int{tt.wantClass}, classes)
		})
	}
}

func TestTreeEnsemble_Deterministic(t *testing.T) {
	e, err := classifier.LoadTreeEnsemble(testModel)
	require.NoError(t, err)

	row := domain.FeatureVector{Age: 50, Gender: 2, Height: 160, Weight: 70, APHi: 135, APLo: 85, Cholesterol: 2, Gluc: 1}
	first := e.Probability(row)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Probability(row))
	}
}

func TestTreeEnsemble_CancelledContext(t *testing.T) {
	e, err := classifier.LoadTreeEnsemble(testModel)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.PredictProba(ctx, []domain.FeatureVector{{}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseTreeEnsemble_Rejects(t *testing.T) {
	columns, _ := json.Marshal(domain.Columns)
	leafTree := `{"nodeid": 0, "leaf": 0.1}`

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "not json",
			body:    `{"trees": [`,
			wantErr: "decode model artifact",
		},
		{
			name:    "missing trees",
			body:    `{"base_score": 0.5, "feature_names": ` + string(columns) + `}`,
			wantErr: "does not match schema",
		},
		{
			name:    "base score out of range",
			body:    `{"base_score": 1, "feature_names": ` + string(columns) + `, "trees": [` + leafTree + `]}`,
			wantErr: "does not match schema",
		},
		{
			name:    "feature names renamed",
			body:    `{"base_score": 0.5, "feature_names": ["Age","Gender","Height","Weight","ap_hi","ap_lo","Cholesterol","Gluc","Smoke","Alco","Active"], "trees": [` + leafTree + `]}`,
			wantErr: `model has "Age"`,
		},
		{
			name:    "feature count",
			body:    `{"base_score": 0.5, "feature_names": ["Age "], "trees": [` + leafTree + `]}`,
			wantErr: "model expects 1 features",
		},
		{
			name: "unknown split",
			body: `{"base_score": 0.5, "feature_names": ` + string(columns) + `, "trees": [
				{"nodeid": 0, "split": "bmi", "split_condition": 25, "yes": 1, "no": 2,
				 "children": [{"nodeid": 1, "leaf": 0}, {"nodeid": 2, "leaf": 1}]}]}`,
			wantErr: `unknown split feature "bmi"`,
		},
		{
			name: "dangling branch",
			body: `{"base_score": 0.5, "feature_names": ` + string(columns) + `, "trees": [
				{"nodeid": 0, "split": "ap_hi", "split_condition": 140, "yes": 1, "no": 7,
				 "children": [{"nodeid": 1, "leaf": 0}, {"nodeid": 2, "leaf": 1}]}]}`,
			wantErr: "does not reference a child",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classifier.ParseTreeEnsemble([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_UnavailableOnLoadFailure(t *testing.T) {
	c, err := classifier.New(config.ModelConfig{Backend: config.ModelBackendTree, Path: "testdata/missing.json"})
	require.Error(t, err)
	require.NotNil(t, c)
	assert.False(t, classifier.Available(c))

	_, err = c.PredictProba(context.Background(), []domain.FeatureVector{{}})
	assert.ErrorIs(t, err, errors.ErrModelUnavailable)
	_, err = c.Predict(context.Background(), []domain.FeatureVector{{}})
	assert.ErrorIs(t, err, errors.ErrModelUnavailable)
}

func TestNew_Backends(t *testing.T) {
	c, err := classifier.New(config.ModelConfig{Backend: config.ModelBackendTree, Path: testModel})
	require.NoError(t, err)
	assert.Equal(t, "tree", c.Name())

	c, err = classifier.New(config.ModelConfig{Backend: config.ModelBackendRemote, RemoteURL: "http://scoring.local/predict", RemoteTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "remote", c.Name())

	_, err = classifier.New(config.ModelConfig{Backend: "onnx"})
	assert.Error(t, err)

	assert.False(t, classifier.Available(nil))
}

func TestRemote_Score(t *testing.T) {
	var got struct {
		Columns []string        `json:"columns"`
		Data    [][]json.Number `json:"data"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		dec := json.NewDecoder(strings.NewReader(string(body)))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions": [1], "probabilities": [[0.2, 0.8]]}`))
	}))
	defer srv.Close()

	r, err := classifier.NewRemote(srv.URL, time.Second)
	require.NoError(t, err)

	row := domain.FeatureVector{Age: 52, Gender: 2, Height: 165, Weight: 68.5, APHi: 130, APLo: 85, Cholesterol: 3, Gluc: 2, Alco: 1, Active: 1}
	probs, err := r.PredictProba(context.Background(), []domain.FeatureVector{row})
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{0.2, 0.8}}, probs)

	assert.Equal(t, domain.Columns[:], got.Columns)
	require.Len(t, got.Data, 1)
	require.Len(t, got.Data[0], 11)
	assert.Equal(t, json.Number("52"), got.Data[0][0])
	assert.Equal(t, json.Number("68.5"), got.Data[0][3])

	classes, err := r.Predict(context.Background(), []domain.FeatureVector{row})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, classes)
}

func TestRemote_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `boom`, "returned 500: boom"},
		{"bad json", http.StatusOK, `{"predictions":`, "parse response"},
		{"row mismatch", http.StatusOK, `{"predictions": [], "probabilities": []}`, "expected 1 rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			r, err := classifier.NewRemote(srv.URL, time.Second)
			require.NoError(t, err)
			_, err = r.PredictProba(context.Background(), []domain.FeatureVector{{}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRemote_EmptyURL(t *testing.T) {
	_, err := classifier.NewRemote("  ", time.Second)
	assert.Error(t, err)
}
