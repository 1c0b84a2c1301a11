package confidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPClient calls the classifier sidecar over HTTP.
type HTTPClient struct {
	client *http.Client
	config *Config
	logger *logrus.Logger
}

// NewHTTPClient creates a scorer for the configured sidecar.
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

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// Score submits the document text and returns per-field confidence values.
func (c *HTTPClient) Score(ctx context.Context, text string) (map[string]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text passed to confidence scorer")
	}
	runes := []rune(text)
	if len(runes) > c.config.MaxTextLen {
		text = string(runes[:c.config.MaxTextLen])
	}

	payload, err := json.Marshal(scoreRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal score request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("score request canceled: %w", ctx.Err())
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			c.logger.WithField("attempt", attempt+1).Debug("retrying confidence request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.config.BaseURL+"/classify", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create score request: %w", err)
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

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("confidence service error (status %d)", resp.StatusCode)
			if resp.StatusCode < 500 {
				return nil, lastErr
			}
			continue
		}

		var result scoreResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to decode score response: %w", err)
		}
		return result.Scores, nil
	}

	return nil, fmt.Errorf("score request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

// Healthy probes the sidecar health endpoint.
func (c *HTTPClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("confidence service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("confidence health check failed (status %d)", resp.StatusCode)
	}
	return nil
}
