package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// ErrInsufficientText signals that a document yielded no usable text.
// The orchestrator converts it into the error record shape at the
// document boundary.
var ErrInsufficientText = errors.New("no usable text in document")

// ConfidenceScorer produces per-field probabilities from an external
// classifier. Implementations must degrade gracefully: a scorer error
// disables confidence merging for that document only.
type ConfidenceScorer interface {
	Score(ctx context.Context, text string) (map[string]float64, error)
}

// Extractor runs all field matchers over a document's text, ranks and
// normalizes the candidates and assembles the result record. A single
// extractor is safe for concurrent use: field definitions are
// read-only and the weight table is an atomically published snapshot.
type Extractor struct {
	fields          []FieldDef
	weights         atomic.Pointer[WeightTable]
	scorer          ConfidenceScorer
	weightedRanking bool
	minTextLen      int
	noiseFloor      float64
	logger          *logrus.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithWeightTable installs an initial weight table snapshot.
func WithWeightTable(t *WeightTable) Option {
	return func(e *Extractor) {
		if t != nil {
			e.weights.Store(t)
		}
	}
}

// WithConfidenceScorer attaches the external classifier. A nil scorer
// keeps the extractor in regex-only operation.
func WithConfidenceScorer(s ConfidenceScorer) Option {
	return func(e *Extractor) {
		e.scorer = s
	}
}

// WithWeightedRanking switches mandatory fields from cascade order to
// weight-based ranking. This is the trainable variant: with a fresh
// table all weights are 1.0 and ranking degenerates to rule order.
func WithWeightedRanking(enabled bool) Option {
	return func(e *Extractor) {
		e.weightedRanking = enabled
	}
}

// WithMinTextLength overrides the minimum usable text length.
func WithMinTextLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.minTextLen = n
		}
	}
}

// WithNoiseFloor overrides the minimum magnitude for the max-value
// total fallback.
func WithNoiseFloor(v float64) Option {
	return func(e *Extractor) {
		e.noiseFloor = v
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an extractor over the default field definitions.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		fields:     DefaultFields(),
		minTextLen: 10,
		noiseFloor: 1.0,
		logger:     logrus.New(),
	}
	e.weights.Store(NewWeightTable(e.fields))
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fields returns the field definitions. Read-only.
func (e *Extractor) Fields() []FieldDef {
	return e.fields
}

// WeightSnapshot returns the currently published weight table.
func (e *Extractor) WeightSnapshot() *WeightTable {
	return e.weights.Load()
}

// PublishWeights atomically replaces the weight table. In-flight
// extractions keep the snapshot they started with.
func (e *Extractor) PublishWeights(t *WeightTable) {
	if t != nil {
		e.weights.Store(t)
	}
}

// Extract converts raw document text into a record. Mandatory fields
// that no pattern matched carry the Unrecognized sentinel; optional
// fields are left empty. Returns ErrInsufficientText when the text is
// empty or below the minimum length.
func (e *Extractor) Extract(ctx context.Context, text string) (*Record, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < e.minTextLen {
		return nil, ErrInsufficientText
	}

	weights := e.weights.Load()
	record := newRecord()

	for _, def := range e.fields {
		policy := def.Policy
		if e.weightedRanking && def.Mandatory && policy != PolicyMaxValue {
			policy = PolicyWeighted
		}

		best := Rank(MatchField(text, def, weights), policy)
		if best == nil && def.Name == FieldTotal {
			// no labelled amount anywhere: fall back to the largest
			// decimal number above the noise floor
			if raw, ok := MaxDecimalFallback(text, e.noiseFloor); ok {
				best = &RawMatch{Value: raw, RuleIndex: -1}
			}
		}
		if best == nil {
			continue // mandatory slots already hold the sentinel
		}
		record.setField(def.Name, Normalize(def.Name, best.Value))
	}

	record.Extra = ExtractKeyValues(text)

	if e.scorer != nil {
		scores, err := e.scorer.Score(ctx, text)
		if err != nil {
			e.logger.WithError(err).Warn("confidence scoring unavailable, continuing with patterns only")
		} else if len(scores) > 0 {
			record.Confidence = scores
		}
	}

	return record, nil
}

// Run wraps Extract with the per-document failure semantics of a batch:
// every failure, including an unexpected panic, becomes an error record
// instead of propagating past the document boundary.
func (e *Extractor) Run(ctx context.Context, text string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("panic", r).Error("extraction panicked")
			out = Outcome{Failure: &ErrorRecord{
				Error:   "failed to process document",
				Details: fmt.Sprintf("internal error: %v", r),
			}}
		}
	}()

	record, err := e.Extract(ctx, text)
	if err != nil {
		if errors.Is(err, ErrInsufficientText) {
			return Outcome{Failure: &ErrorRecord{
				Error:   "failed to extract text from document",
				Details: "the document may be empty, scanned at unreadable quality, or corrupted",
			}}
		}
		return Outcome{Failure: &ErrorRecord{
			Error:   "failed to process document",
			Details: err.Error(),
		}}
	}
	return Outcome{Record: record}
}
