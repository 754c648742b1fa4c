package progress

import "github.com/volatiletech/null/v8"

// Completion is the fractional completion and confidence of a single
// walkable or pathway. A null value means "not yet evaluated", which is
// distinct from 0.0. Replaced whole on every recompute, never mutated.
type Completion struct {
	Value      null.Float64 `json:"value"`
	Confidence null.Float64 `json:"confidence"`
}

func NewCompletion(value, confidence float64) Completion {
	return Completion{
		Value:      null.Float64From(value),
		Confidence: null.Float64From(confidence),
	}
}

// IsCompleted holds iff the value is set and exactly 1.0. No epsilon.
func (c Completion) IsCompleted() bool {
	return c.Value.Valid && c.Value.Float64 == 1.0
}

// Equal requires both fields to match exactly, including set-ness.
func (c Completion) Equal(other Completion) bool {
	return c.Value == other.Value && c.Confidence == other.Confidence
}
