package ocr

import (
	"context"
	"errors"
)

// ErrDisabled is returned by the noop client for every recognition call.
var ErrDisabled = errors.New("ocr is disabled")

// NoopClient is used when no sidecar is configured. Callers fall back
// to whatever text the parser already extracted.
type NoopClient struct{}

func NewNoopClient() *NoopClient { return &NoopClient{} }

func (*NoopClient) RecognizePage(_ context.Context, _ []byte, _ int) (string, error) {
	return "", ErrDisabled
}

func (*NoopClient) Healthy(_ context.Context) error { return nil }
