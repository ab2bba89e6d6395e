// Package classifier provides the HTTP adapter for the sentiment sidecar.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatguard/domain"
)

// HTTPClient talks to the inference sidecar over JSON. The sidecar exposes
// a single /classify endpoint taking {"text": ...} and returning a list of
// label/score pairs.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Predictions []domain.Prediction `json:"predictions"`
	Error       string              `json:"error"`
}

// Classify sends one text to the sidecar. The caller owns the deadline via ctx.
func (c *HTTPClient) Classify(ctx context.Context, text string) ([]domain.Prediction, error) {
	buf, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("classifier status %d: %s", resp.StatusCode, string(b))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("classifier: %s", out.Error)
	}
	return out.Predictions, nil
}
