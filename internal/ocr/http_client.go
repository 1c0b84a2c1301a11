package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPClient talks to the tesseract sidecar over HTTP. The sidecar
// rasterizes the requested page and runs recognition; this side only
// ships bytes and applies the retry policy.
type HTTPClient struct {
	client *http.Client
	config *Config
	logger *logrus.Logger
}

// APIError is a non-2xx response from the sidecar.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ocr service error (status %d): %s", e.StatusCode, e.Detail)
}

// NewHTTPClient creates an OCR client for the configured sidecar.
func NewHTTPClient(cfg *Config, logger *logrus.Logger) *HTTPClient {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config: cfg,
		logger: logger,
	}
}

type recognizeRequest struct {
	Document string `json:"document"` // base64 page source
	Page     int    `json:"page"`
	Language string `json:"language"`
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// RecognizePage sends one page for recognition.
func (c *HTTPClient) RecognizePage(ctx context.Context, document []byte, page int) (string, error) {
	if len(document) == 0 {
		return "", fmt.Errorf("empty document passed to ocr")
	}

	req := recognizeRequest{
		Document: base64.StdEncoding.EncodeToString(document),
		Page:     page,
		Language: c.config.Language,
	}

	var resp recognizeResponse
	if err := c.post(ctx, "/ocr/recognize", req, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Healthy probes the sidecar health endpoint.
func (c *HTTPClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ocr service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Detail: "health check failed"}
	}
	return nil
}

// post sends a JSON request with retry and backoff on transport errors.
func (c *HTTPClient) post(ctx context.Context, path string, data, result interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal ocr request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("ocr request canceled: %w", ctx.Err())
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"path":    path,
			}).Debug("retrying ocr request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.config.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create ocr request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Detail: "recognition failed"}
			var detail struct {
				Detail string `json:"detail"`
			}
			if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
				apiErr.Detail = detail.Detail
			}
			// client errors are not retryable
			if resp.StatusCode < 500 {
				return apiErr
			}
			lastErr = apiErr
			continue
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode ocr response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("ocr request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}
