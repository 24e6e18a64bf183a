package handler_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/cardiolens/cardiolens-backend/internal/risk/classifier"
	"github.com/cardiolens/cardiolens-backend/internal/risk/handler"
	"github.com/cardiolens/cardiolens-backend/internal/risk/service"
	"github.com/cardiolens/cardiolens-backend/pkg/messaging"
	"github.com/cardiolens/cardiolens-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, c classifier.Classifier) http.Handler {
	t.Helper()
	log := testutil.TestLogger()
	h := handler.NewHandler(service.NewService(c, messaging.NopPublisher{}, log), log)
	return http.HandlerFunc(h.Predict)
}

func loadModel(t *testing.T) classifier.Classifier {
	t.Helper()
	c, err := classifier.LoadTreeEnsemble("../classifier/testdata/model.json")
	require.NoError(t, err)
	return c
}

func TestPredict_Success(t *testing.T) {
	h := setup(t, loadModel(t))

	req := testutil.NewHTTPRequest(http.MethodPost, "/predict", map[string]interface{}{
		"age": "60", "gender": "male", "height": "175", "weight": "90",
		"ap_hi": "160", "ap_lo": "100", "cholesterol": "260", "gluc": "140",
		"smoke": "yes", "alco": "no", "active": "no",
	})
	rr := testutil.ExecuteRequest(h, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	// sigmoid(1.1) = 0.75026...
	testutil.AssertJSONBody(t, rr, map[string]interface{}{"prediction": 1, "probability": 75.03})
}

func TestPredict_WellFormedBodiesStayInRange(t *testing.T) {
	h := setup(t, loadModel(t))

	bodies := []interface{}{
		map[string]interface{}{},
		map[string]interface{}{"ap_hi": 90},
		map[string]interface{}{"ap_hi": 200, "cholesterol": 300},
		map[string]interface{}{"age": 30, "gender": "female", "weight": 55.5},
		map[string]interface{}{"ap_hi": nil, "gluc": "99"},
	}
	for _, body := range bodies {
		rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPost, "/predict", body))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var got struct {
			Prediction  int     `json:"prediction"`
			Probability float64 `json:"probability"`
		}
		testutil.ParseJSONBody(t, rr, &got)
		assert.Contains(t, []int{0, 1}, got.Prediction)
		assert.GreaterOrEqual(t, got.Probability, 0.0)
		assert.LessOrEqual(t, got.Probability, 100.0)
	}
}

func TestPredict_ModelUnavailable(t *testing.T) {
	h := setup(t, &classifier.Unavailable{Backend: "tree", Cause: stderrors.New("missing artifact")})

	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPost, "/predict", map[string]interface{}{"age": 40}))

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	testutil.AssertErrorBody(t, rr, "Model is not loaded.")
	testutil.AssertBodyContains(t, rr, "MODEL_UNAVAILABLE")
}

func TestPredict_BadRequests(t *testing.T) {
	h := setup(t, loadModel(t))

	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{"invalid json", `{"age": `, "invalid JSON body"},
		{"empty body", "", "request body is empty"},
		{"array body", `[1, 2]`, "invalid JSON body"},
		{"non numeric", map[string]interface{}{"ap_hi": "one-twenty"}, `invalid value for "ap_hi": one-twenty (expected a whole number)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPost, "/predict", tt.body))
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			testutil.AssertErrorBody(t, rr, tt.message)
		})
	}
}
