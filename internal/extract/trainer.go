package extract

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DefaultLearningRate is the fixed reward/penalty step applied to a
// rule weight per example.
const DefaultLearningRate = 0.01

// Example is one labelled training document: its raw text and the
// ground-truth field values.
type Example struct {
	Text   string            `json:"text"`
	Fields map[string]string `json:"fields"`
}

// EpochStats summarizes one training epoch.
type EpochStats struct {
	Epoch    int     `json:"epoch"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
}

// Trainer adjusts per-rule weights from labelled examples with a
// simple reward/penalty rule. This is online single-pass-per-example
// weight nudging, not gradient descent: it has no convergence
// guarantee and can oscillate. It changes ranking only; the pattern
// definitions themselves are never modified.
type Trainer struct {
	fields       []FieldDef
	learningRate float64
	logger       *logrus.Logger
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithLearningRate overrides the weight adjustment step.
func WithLearningRate(lr float64) TrainerOption {
	return func(t *Trainer) {
		if lr > 0 {
			t.learningRate = lr
		}
	}
}

// WithTrainerLogger sets the logger.
func WithTrainerLogger(logger *logrus.Logger) TrainerOption {
	return func(t *Trainer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTrainer creates a trainer over the default field definitions.
func NewTrainer(opts ...TrainerOption) *Trainer {
	t := &Trainer{
		fields:       DefaultFields(),
		learningRate: DefaultLearningRate,
		logger:       logrus.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train runs the reward/penalty pass over the examples for the given
// number of epochs. The base table is never mutated: training operates
// on a private clone and returns it with the version bumped, ready for
// atomic publication. Per-epoch stats are returned alongside.
func (t *Trainer) Train(base *WeightTable, examples []Example, epochs int) (*WeightTable, []EpochStats) {
	working := base.Clone()
	stats := make([]EpochStats, 0, epochs)

	// the prediction side uses weighted ranking against the working
	// table so weight changes feed back into later examples
	extractor := New(
		WithWeightedRanking(true),
		WithLogger(t.logger),
	)

	for epoch := 0; epoch < epochs; epoch++ {
		var loss float64
		correct, total := 0, 0
		extractor.PublishWeights(working)

		for _, ex := range examples {
			record, err := extractor.Extract(context.Background(), ex.Text)
			if err != nil {
				continue // unusable example text, nothing to learn from
			}

			for _, field := range MandatoryFields {
				actual, ok := ex.Fields[field]
				if !ok {
					continue
				}
				total++

				predicted := record.Field(field)
				if lenientEqual(predicted, actual) {
					correct++
					t.updateWeights(working, ex.Text, field, predicted, t.learningRate)
				} else {
					loss += 1.0
					t.updateWeights(working, ex.Text, field, predicted, -t.learningRate)
				}
			}
		}

		es := EpochStats{
			Epoch:   epoch + 1,
			Loss:    loss / (float64(total) + 1e-6),
			Correct: correct,
			Total:   total,
		}
		if total > 0 {
			es.Accuracy = float64(correct) / float64(total) * 100
		}
		stats = append(stats, es)

		t.logger.WithFields(logrus.Fields{
			"epoch":    es.Epoch,
			"loss":     es.Loss,
			"accuracy": es.Accuracy,
			"correct":  es.Correct,
			"total":    es.Total,
		}).Debug("training epoch finished")
	}

	working.Version = base.Version + 1
	return working, stats
}

// updateWeights shifts the weight of every rule whose raw matches
// contain the predicted value. On reward the step is positive, on
// penalty negative; the table clamps at the weight floor.
func (t *Trainer) updateWeights(table *WeightTable, text, field, predicted string, delta float64) {
	def, ok := t.fieldDef(field)
	if !ok || predicted == "" || predicted == Unrecognized {
		return
	}
	for _, m := range MatchField(text, def, table) {
		if Normalize(field, m.Value).String() == predicted {
			table.adjust(field, m.RuleIndex, delta)
		}
	}
}

func (t *Trainer) fieldDef(name string) (FieldDef, bool) {
	for _, def := range t.fields {
		if def.Name == name {
			return def, true
		}
	}
	return FieldDef{}, false
}
