package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cardiolens/cardiolens-backend/internal/risk/domain"
)

// Remote delegates scoring to an external HTTP model server.
type Remote struct {
	url        string
	httpClient *http.Client
}

// NewRemote creates a client for the scoring endpoint at url.
func NewRemote(url string, timeout time.Duration) (*Remote, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("remote: scoring url is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (r *Remote) Name() string { return "remote" }

type scoreRequest struct {
	Columns []string        `json:"columns"`
	Data    [][]interface{} `json:"data"`
}

type scoreResponse struct {
	Predictions   []int        `json:"predictions"`
	Probabilities [][2]float64 `json:"probabilities"`
}

func (r *Remote) Predict(ctx context.Context, rows []domain.FeatureVector) ([]int, error) {
	resp, err := r.score(ctx, rows)
	if err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

func (r *Remote) PredictProba(ctx context.Context, rows []domain.FeatureVector) ([][2]float64, error) {
	resp, err := r.score(ctx, rows)
	if err != nil {
		return nil, err
	}
	return resp.Probabilities, nil
}

func (r *Remote) score(ctx context.Context, rows []domain.FeatureVector) (*scoreResponse, error) {
	payload := scoreRequest{
		Columns: domain.Columns[:],
		Data:    make([][]interface{}, len(rows)),
	}
	for i, v := range rows {
		payload.Data[i] = v.Values()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("remote: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: scoring service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out scoreResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("remote: parse response: %w", err)
	}
	if len(out.Predictions) != len(rows) || len(out.Probabilities) != len(rows) {
		return nil, fmt.Errorf("remote: expected %d rows, got %d predictions and %d probabilities",
			len(rows), len(out.Predictions), len(out.Probabilities))
	}
	return &out, nil
}
