package extract

import (
	"encoding/json"
	"fmt"
	"os"
)

// WeightFloor is the minimum a rule weight can be driven to. Weights
// are clamped here instead of zero so a demoted rule stays revivable.
const WeightFloor = 0.1

// WeightTable holds the per-rule weights for every field. A table is
// owned by exactly one party at a time: extraction reads a published
// snapshot, training mutates a private clone and publishes the result
// as a new version. The table itself performs no locking.
type WeightTable struct {
	Version int                  `json:"version"`
	Weights map[string][]float64 `json:"weights"`
}

// NewWeightTable builds a version-0 table with every rule at weight 1.0.
func NewWeightTable(fields []FieldDef) *WeightTable {
	t := &WeightTable{Weights: make(map[string][]float64, len(fields))}
	for _, f := range fields {
		ws := make([]float64, len(f.Rules))
		for i := range ws {
			ws[i] = 1.0
		}
		t.Weights[f.Name] = ws
	}
	return t
}

// Weight returns the weight for a rule, defaulting to 1.0 when the
// table has no entry for the field or index.
func (t *WeightTable) Weight(field string, ruleIndex int) float64 {
	if t == nil {
		return 1.0
	}
	ws, ok := t.Weights[field]
	if !ok || ruleIndex < 0 || ruleIndex >= len(ws) {
		return 1.0
	}
	return ws[ruleIndex]
}

// Clone returns a deep copy with the same version. Training works on
// the copy so readers of the original never observe partial updates.
func (t *WeightTable) Clone() *WeightTable {
	c := &WeightTable{Version: t.Version, Weights: make(map[string][]float64, len(t.Weights))}
	for field, ws := range t.Weights {
		c.Weights[field] = append([]float64(nil), ws...)
	}
	return c
}

// adjust shifts one rule weight by delta, clamped at the floor.
func (t *WeightTable) adjust(field string, ruleIndex int, delta float64) {
	ws, ok := t.Weights[field]
	if !ok || ruleIndex < 0 || ruleIndex >= len(ws) {
		return
	}
	w := ws[ruleIndex] + delta
	if w < WeightFloor {
		w = WeightFloor
	}
	ws[ruleIndex] = w
}

// SaveFile writes the table as indented JSON.
func (t *WeightTable) SaveFile(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal weight table: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write weight table: %w", err)
	}
	return nil
}

// LoadWeightTable reads a table previously written by SaveFile.
func LoadWeightTable(path string) (*WeightTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weight table: %w", err)
	}
	var t WeightTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse weight table: %w", err)
	}
	if t.Weights == nil {
		t.Weights = make(map[string][]float64)
	}
	return &t, nil
}
