// Package confidence integrates an external ML service that scores how
// confident the models are about each extracted field. Scores supplement
// the regex extraction; they never change the extracted values.
package confidence

import (
	"context"
	"time"
)

// Scorer returns per-field confidence scores in [0, 1] for a document text.
type Scorer interface {
	Score(ctx context.Context, text string) (map[string]float64, error)
	Healthy(ctx context.Context) error
}

// Config holds the scoring service settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// MaxTextLen bounds the text sent to the service; longer documents
	// are truncated because the model only reads the head anyway.
	MaxTextLen int
}

// DefaultConfig returns settings matching the local docker-compose setup.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8600",
		Timeout:    20 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Second,
		MaxTextLen: 4000,
	}
}

// Option configures a Config.
type Option func(*Config)

func WithBaseURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

func WithRetry(retries int, delay time.Duration) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.MaxRetries = retries
		}
		if delay > 0 {
			c.RetryDelay = delay
		}
	}
}

func WithMaxTextLen(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxTextLen = n
		}
	}
}

// NewConfig builds a Config from defaults plus options.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
