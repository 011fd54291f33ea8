// Package inference is the HTTP client for the external field-boundary
// delineation service.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single inference call. The external model may
// cold-start, so this is on the order of minutes, not seconds.
const DefaultTimeout = 5 * time.Minute

// Request is the payload sent to the delineation endpoint.
type Request struct {
	ImageData    string         `json:"imageData,omitempty"`
	BBox         [2][2]float64  `json:"bbox"` // [[south, west], [north, east]]
	ModelID      string         `json:"modelId,omitempty"`
	ModelVersion string         `json:"modelVersion,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// Metadata describes one inference run.
type Metadata struct {
	FieldCount     int     `json:"fieldCount"`
	ProcessingTime int     `json:"processingTime"` // milliseconds
	Confidence     float64 `json:"confidence"`
}

// Result is a successful delineation response.
type Result struct {
	Boundaries *geojson.FeatureCollection `json:"boundaries"`
	Metadata   Metadata                   `json:"metadata"`
}

// Client calls the delineation endpoint. Failures are classified so the
// caller can present timeouts, connection problems and remote errors
// distinctly; nothing is retried automatically.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	log      *zap.Logger
}

// New creates a client for the given endpoint URL. A non-positive
// timeout falls back to DefaultTimeout.
func New(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		http:     &http.Client{},
		log:      log,
	}
}

// Timeout returns the per-call wait budget.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Delineate submits a region for field-boundary inference and returns
// the resulting polygon collection plus run metadata.
func (c *Client) Delineate(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding inference request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building inference request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || (ctx.Err() == context.DeadlineExceeded) {
			c.log.Warn("inference call exceeded wait budget",
				zap.Duration("timeout", c.timeout))
			return nil, ErrTimeout
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRemoteError(resp.StatusCode, raw)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding inference response: %w", err)
	}
	if result.Boundaries == nil {
		return nil, fmt.Errorf("inference response has no boundaries")
	}

	c.log.Info("inference completed",
		zap.Int("fieldCount", result.Metadata.FieldCount),
		zap.Duration("elapsed", time.Since(start)))
	return &result, nil
}
