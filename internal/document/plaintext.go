package document

import (
	"context"
	"fmt"
	"os"
)

// PlainTextParser reads .txt files verbatim.
type PlainTextParser struct{}

func NewPlainTextParser() *PlainTextParser {
	return &PlainTextParser{}
}

func (p *PlainTextParser) Parse(_ context.Context, filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(content), nil
}

func (p *PlainTextParser) ParseBytes(_ context.Context, data []byte, _ string) (string, error) {
	return string(data), nil
}
