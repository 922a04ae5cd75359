package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single remote prediction
const DefaultTimeout = 2 * time.Second

// HTTPOracle asks a model server for predictions over JSON
type HTTPOracle struct {
	url        string
	httpClient *http.Client
}

type predictRequest struct {
	Features []float64 `json:"features"`
	Heading  int       `json:"heading"`
	Labels   []string  `json:"labels"`
}

type predictResponse struct {
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

// NewHTTPOracle creates an oracle that POSTs feature rows to url
func NewHTTPOracle(url string, timeout time.Duration) *HTTPOracle {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPOracle{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Predict sends f to the model server and returns its label
func (o *HTTPOracle) Predict(ctx context.Context, f Features) (string, error) {
	vector := f.Vector()
	data, err := json.Marshal(predictRequest{
		Features: vector[:NumFeatures-1],
		Heading:  f.Heading,
		Labels:   Labels(),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 400 {
		return "", fmt.Errorf("classifier response: %w", err)
	}
	if resp.StatusCode >= 400 {
		if out.Error != "" {
			return "", fmt.Errorf("classifier error: %s", out.Error)
		}
		return "", fmt.Errorf("classifier error: status %d", resp.StatusCode)
	}

	return out.Label, nil
}
