package scoring

import (
	"fmt"
	"math"
)

// weightEpsilon is the tolerance on the weight sum.
const weightEpsilon = 0.001

// ScoreWeights defines the relative importance of each scoring component.
// Each weight lies in [0, 1] and all weights sum to 1.0 (±0.001 tolerance).
type ScoreWeights struct {
	Evidence     float64 `json:"evidence" yaml:"evidence"`
	Safety       float64 `json:"safety" yaml:"safety"`
	Cost         float64 `json:"cost" yaml:"cost"`
	Practicality float64 `json:"practicality" yaml:"practicality"`
}

// DefaultWeights returns the standard weight distribution.
func DefaultWeights() ScoreWeights {
	return ScoreWeights{
		Evidence:     0.35,
		Safety:       0.30,
		Cost:         0.20,
		Practicality: 0.15,
	}
}

// WeightError identifies which weight rule a ScoreWeights record violates.
type WeightError struct {
	Field  string
	Reason string
}

func (e *WeightError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

// Sum returns the total of all weights.
func (w ScoreWeights) Sum() float64 {
	return w.Evidence + w.Safety + w.Cost + w.Practicality
}

// Validate checks that every weight is in [0, 1] and that they sum to 1.0.
func (w ScoreWeights) Validate() error {
	for _, f := range w.fields() {
		if !(f.value >= 0 && f.value <= 1) {
			return &WeightError{Field: f.name, Reason: "must be between 0 and 1"}
		}
	}
	if math.Abs(w.Sum()-1.0) > weightEpsilon {
		return &WeightError{Reason: fmt.Sprintf("weight sum must equal 1.0 (got %.4f)", w.Sum())}
	}
	return nil
}

type namedWeight struct {
	name  string
	value float64
}

func (w ScoreWeights) fields() []namedWeight {
	return []namedWeight{
		{"evidence", w.Evidence},
		{"safety", w.Safety},
		{"cost", w.Cost},
		{"practicality", w.Practicality},
	}
}
