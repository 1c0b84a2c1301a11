package document

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/k-telecom/pdf-parser/internal/ocr"
)

// ErrUnsupportedType is returned for file extensions no parser handles.
var ErrUnsupportedType = errors.New("unsupported document type")

// Parser extracts plain text from a document so the field extractor can
// run over it.
type Parser interface {
	// Parse extracts text from a file on disk.
	Parse(ctx context.Context, filePath string) (string, error)

	// ParseBytes extracts text from in-memory document data. The
	// filename is only used to pick the format.
	ParseBytes(ctx context.Context, data []byte, filename string) (string, error)
}

// ContentType identifies a supported document format.
type ContentType string

const (
	PDF       ContentType = "pdf"
	Markdown  ContentType = "markdown"
	PlainText ContentType = "plaintext"
	Unknown   ContentType = "unknown"
)

// Factory creates parsers for a filename, sharing the OCR client across
// instances.
type Factory struct {
	ocrClient ocr.Client
	pdfOpts   []PDFOption
}

// NewFactory builds a parser factory. A nil OCR client disables the
// recognition fallback for scanned pages.
func NewFactory(ocrClient ocr.Client, pdfOpts ...PDFOption) *Factory {
	if ocrClient == nil {
		ocrClient = ocr.NewNoopClient()
	}
	return &Factory{ocrClient: ocrClient, pdfOpts: pdfOpts}
}

// ParserFor returns a parser for the given filename.
func (f *Factory) ParserFor(filename string) (Parser, error) {
	switch DetectContentType(filename) {
	case PDF:
		return NewPDFParser(f.ocrClient, f.pdfOpts...), nil
	case Markdown:
		return NewMarkdownParser(), nil
	case PlainText:
		return NewPlainTextParser(), nil
	default:
		return nil, ErrUnsupportedType
	}
}

// DetectContentType maps a file extension to a content type.
func DetectContentType(filename string) ContentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDF
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}
