package ocr

import (
	"context"
	"time"
)

// Client recognizes text on scanned document pages. Implementations
// talk to an external OCR engine; the pipeline treats recognition as
// an opaque text source and survives any failure of it.
type Client interface {
	// RecognizePage runs OCR over one page of the document and returns
	// the recognized text. An empty string is a valid result for a
	// blank or unreadable page.
	RecognizePage(ctx context.Context, document []byte, page int) (string, error)

	// Healthy reports whether the OCR backend is reachable.
	Healthy(ctx context.Context) error
}

// Config holds OCR client settings.
type Config struct {
	BaseURL    string        // sidecar base URL
	Language   string        // tesseract language pack
	Timeout    time.Duration // per-request timeout
	MaxRetries int           // retry attempts on transport errors
	RetryDelay time.Duration // base delay between retries
}

// Option configures the OCR client.
type Option func(*Config)

// WithBaseURL sets the sidecar base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithLanguage sets the recognition language.
func WithLanguage(lang string) Option {
	return func(c *Config) {
		if lang != "" {
			c.Language = lang
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithRetry sets the retry policy.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		if delay > 0 {
			c.RetryDelay = delay
		}
	}
}

// DefaultConfig returns the defaults for a local tesseract sidecar.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8500",
		Language:   "rus",
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Second,
	}
}

// NewConfig applies options over the defaults.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
