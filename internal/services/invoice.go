package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/k-telecom/pdf-parser/internal/cache"
	"github.com/k-telecom/pdf-parser/internal/document"
	"github.com/k-telecom/pdf-parser/internal/extract"
)

// InvoiceService runs the document-to-record pipeline: parse the file,
// check the result cache, extract fields, cache the outcome.
type InvoiceService struct {
	parsers   *document.Factory
	extractor *extract.Extractor
	cache     cache.Cache
	cacheTTL  time.Duration
	timeout   time.Duration // per-document budget
	workers   int           // batch concurrency
	logger    *logrus.Logger
}

// InvoiceOption configures an InvoiceService.
type InvoiceOption func(*InvoiceService)

// WithCache enables result caching.
func WithCache(c cache.Cache, ttl time.Duration) InvoiceOption {
	return func(s *InvoiceService) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithTimeout sets the per-document processing budget.
func WithTimeout(timeout time.Duration) InvoiceOption {
	return func(s *InvoiceService) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithWorkers sets how many documents a batch processes concurrently.
func WithWorkers(n int) InvoiceOption {
	return func(s *InvoiceService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *logrus.Logger) InvoiceOption {
	return func(s *InvoiceService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewInvoiceService creates the extraction pipeline service.
func NewInvoiceService(parsers *document.Factory, extractor *extract.Extractor, opts ...InvoiceOption) *InvoiceService {
	srv := &InvoiceService{
		parsers:   parsers,
		extractor: extractor,
		cacheTTL:  24 * time.Hour,
		timeout:   time.Minute,
		workers:   4,
		logger:    logrus.New(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// ProcessBytes extracts fields from an in-memory document. Failures
// are reported inside the Outcome, never as a Go error, so batch
// callers can keep their result slices index-aligned.
func (s *InvoiceService) ProcessBytes(ctx context.Context, data []byte, filename string) extract.Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()

	parser, err := s.parsers.ParserFor(filename)
	if err != nil {
		s.logger.WithField("filename", filename).Warn("unsupported document type")
		return extract.Outcome{Failure: &extract.ErrorRecord{
			Error:   "unsupported document type",
			Details: fmt.Sprintf("cannot process %q, expected .pdf, .txt, .md or .markdown", filename),
		}}
	}

	text, err := parser.ParseBytes(ctx, data, filename)
	if err != nil {
		s.logger.WithField("filename", filename).WithError(err).Warn("document parsing failed")
		return extract.Outcome{Failure: &extract.ErrorRecord{
			Error:   "failed to extract text from document",
			Details: "the document may be empty, scanned at unreadable quality, or corrupted",
		}}
	}

	if outcome, ok := s.cachedOutcome(text); ok {
		s.logger.WithField("filename", filename).Debug("extraction result served from cache")
		return outcome
	}

	if ctx.Err() != nil {
		s.logger.WithField("filename", filename).Warn("document processing timed out")
		return extract.Outcome{Failure: &extract.ErrorRecord{
			Error:   "failed to process document",
			Details: "processing timed out",
		}}
	}

	outcome := s.extractor.Run(ctx, text)
	s.storeOutcome(text, outcome)

	s.logger.WithFields(logrus.Fields{
		"filename": filename,
		"ok":       outcome.OK(),
		"took_ms":  time.Since(start).Milliseconds(),
	}).Info("document processed")

	return outcome
}

// BatchDocument is one entry of a batch request.
type BatchDocument struct {
	Data     []byte
	Filename string
}

// ProcessBatch extracts fields from several documents concurrently.
// The result slice is index-aligned with the input; a failing document
// yields an error record at its position and never aborts the others.
// Entries with nil Data are not processed and keep the zero outcome.
func (s *InvoiceService) ProcessBatch(ctx context.Context, docs []BatchDocument) []extract.Outcome {
	results := make([]extract.Outcome, len(docs))
	if len(docs) == 0 {
		return results
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i := range docs {
		if docs[i].Data == nil {
			// placeholder left by a caller that rejected the entry up
			// front; its outcome stays zero and is never reported
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = s.ProcessBytes(ctx, docs[i].Data, docs[i].Filename)
		}(i)
	}

	wg.Wait()
	return results
}

// Extractor exposes the underlying extractor for pattern inspection
// and weight publication.
func (s *InvoiceService) Extractor() *extract.Extractor {
	return s.extractor
}

func (s *InvoiceService) cachedOutcome(text string) (extract.Outcome, bool) {
	if s.cache == nil {
		return extract.Outcome{}, false
	}

	raw, found, err := s.cache.Get(cache.ResultKey(text))
	if err != nil {
		s.logger.WithError(err).Warn("cache lookup failed")
		return extract.Outcome{}, false
	}
	if !found {
		return extract.Outcome{}, false
	}

	var record extract.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		s.logger.WithError(err).Warn("discarding undecodable cache entry")
		_ = s.cache.Delete(cache.ResultKey(text))
		return extract.Outcome{}, false
	}
	return extract.Outcome{Record: &record}, true
}

func (s *InvoiceService) storeOutcome(text string, outcome extract.Outcome) {
	// only successful extractions are worth caching; failures should
	// re-run in case the sidecars recover
	if s.cache == nil || !outcome.OK() {
		return
	}

	raw, err := json.Marshal(outcome.Record)
	if err != nil {
		s.logger.WithError(err).Warn("failed to serialize record for cache")
		return
	}
	if err := s.cache.Set(cache.ResultKey(text), string(raw), s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("cache store failed")
	}
}
