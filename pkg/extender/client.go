package extender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/api"
)

// InferenceClient calls the inference service's /predict endpoint.
type InferenceClient struct {
	baseURL string
	client  *http.Client
}

func NewInferenceClient(baseURL string, timeout time.Duration) *InferenceClient {
	return &InferenceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Predict posts the scoring request and decodes the per-node scores. Any
// transport or decoding failure is returned to the caller, which degrades to
// the local heuristic path.
func (c *InferenceClient) Predict(ctx context.Context, req *api.PredictRequest) (*api.PredictResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("predict call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("predict call returned %d: %s", resp.StatusCode, payload)
	}

	var prediction api.PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}
	return &prediction, nil
}

// Healthy reports whether the inference service answers its health endpoint.
func (c *InferenceClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
