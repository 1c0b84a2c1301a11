package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/k-telecom/pdf-parser/internal/ocr"
)

// DefaultMinPageTextLen is the character count below which a page is
// treated as scanned and handed to OCR. Real text-layer receipts carry
// far more than this per page.
const DefaultMinPageTextLen = 100

// PDFParser extracts text from PDF files page by page. Pages whose
// embedded text layer is too short are sent to the OCR sidecar instead.
type PDFParser struct {
	ocrClient      ocr.Client
	minPageTextLen int
	logger         *logrus.Logger
}

// PDFOption configures a PDFParser.
type PDFOption func(*PDFParser)

// WithMinPageTextLen overrides the scanned-page threshold.
func WithMinPageTextLen(n int) PDFOption {
	return func(p *PDFParser) {
		if n > 0 {
			p.minPageTextLen = n
		}
	}
}

// WithPDFLogger sets the parser logger.
func WithPDFLogger(logger *logrus.Logger) PDFOption {
	return func(p *PDFParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPDFParser creates a PDF parser with the given OCR fallback.
func NewPDFParser(ocrClient ocr.Client, opts ...PDFOption) *PDFParser {
	if ocrClient == nil {
		ocrClient = ocr.NewNoopClient()
	}
	p := &PDFParser{
		ocrClient:      ocrClient,
		minPageTextLen: DefaultMinPageTextLen,
		logger:         logrus.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts text from a PDF file on disk.
func (p *PDFParser) Parse(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf file: %w", err)
	}
	return p.ParseBytes(ctx, data, filePath)
}

// ParseBytes extracts text from in-memory PDF data.
func (p *PDFParser) ParseBytes(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf document")
	}

	// Reject broken files before spending time on extraction.
	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return "", fmt.Errorf("invalid pdf document: %w", err)
	}

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("pdf parsing canceled: %w", err)
		}

		text := p.pageText(reader, pageNum)
		if len([]rune(strings.TrimSpace(text))) < p.minPageTextLen {
			recognized, err := p.ocrClient.RecognizePage(ctx, data, pageNum)
			switch {
			case err == nil:
				text = recognized
			case err == ocr.ErrDisabled:
				// keep whatever the text layer had
			default:
				p.logger.WithFields(logrus.Fields{
					"file": filename,
					"page": pageNum,
				}).WithError(err).Warn("ocr fallback failed, using embedded text")
			}
		}

		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	result := strings.Join(pages, "\n\n")
	if result == "" {
		return "", fmt.Errorf("no text content found in pdf")
	}
	return result, nil
}

// pageText returns the embedded text layer of one page, or "" when the
// page has none or is malformed.
func (p *PDFParser) pageText(reader *ledongthuc.Reader, pageNum int) string {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
