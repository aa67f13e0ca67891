package scoring

import (
	"errors"
	"log/slog"
)

// ComponentBreakdown is the audit trail for one component.
type ComponentBreakdown struct {
	Factors     []Factor `json:"factors"`
	Explanation string   `json:"explanation"`
}

// ScoreBreakdown explains how each component got its value.
type ScoreBreakdown struct {
	Evidence     ComponentBreakdown `json:"evidence"`
	Safety       ComponentBreakdown `json:"safety"`
	Cost         ComponentBreakdown `json:"cost"`
	Practicality ComponentBreakdown `json:"practicality"`
}

// ScoreResult captures the complete scoring output for a single product.
type ScoreResult struct {
	Total       float64         `json:"total"`
	Components  ScoreComponents `json:"components"`
	Weights     ScoreWeights    `json:"weights"`
	Breakdown   ScoreBreakdown  `json:"breakdown"`
	IsComplete  bool            `json:"is_complete"`
	MissingData []string        `json:"missing_data"`
}

// Scorer orchestrates the four component calculators and the weighted aggregator.
type Scorer struct {
	referenceCostPerMg float64
	logger             *slog.Logger
}

// NewScorer creates a Scorer. A non-positive reference cost selects the default.
func NewScorer(referenceCostPerMg float64, logger *slog.Logger) *Scorer {
	if !(referenceCostPerMg > 0) || !isFinite(referenceCostPerMg) {
		referenceCostPerMg = DefaultReferenceCostPerMg
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{referenceCostPerMg: referenceCostPerMg, logger: logger}
}

// Score computes the result for p with the default Scorer.
func Score(p Product, w ScoreWeights) ScoreResult {
	return NewScorer(DefaultReferenceCostPerMg, nil).Score(p, w)
}

// Score never fails: invalid weights and unexpected panics both produce the
// fallback result.
func (s *Scorer) Score(p Product, w ScoreWeights) (result ScoreResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("scoring panicked, using fallback", "product", p.ID, "panic", r)
			result = fallbackResult(w)
		}
	}()

	evidence := EvidenceScore(&p)
	safety := SafetyScore(&p)
	cost := CostScore(&p, s.referenceCostPerMg)
	practicality := PracticalityScore(&p)

	components := ScoreComponents{
		Evidence:     RoundTenth(clampScore(evidence.Score)),
		Safety:       RoundTenth(clampScore(safety.Score)),
		Cost:         RoundTenth(clampScore(cost.Score)),
		Practicality: RoundTenth(clampScore(practicality.Score)),
	}

	total, err := ApplyWeights(components, w)
	if err != nil {
		var werr *WeightError
		if errors.As(err, &werr) {
			s.logger.Warn("invalid score weights, using fallback", "product", p.ID, "error", err)
		}
		return fallbackResult(w)
	}

	missing := mergeMissing(evidence.Missing, safety.Missing, cost.Missing, practicality.Missing)
	result = ScoreResult{
		Total:      total,
		Components: components,
		Weights:    w,
		Breakdown: ScoreBreakdown{
			Evidence:     breakdownOf(evidence),
			Safety:       breakdownOf(safety),
			Cost:         breakdownOf(cost),
			Practicality: breakdownOf(practicality),
		},
		IsComplete:  len(missing) == 0,
		MissingData: missing,
	}
	s.logger.Debug("product scored", "product", p.ID, "total", total, "complete", result.IsComplete)
	return result
}

// fallbackResult is the all-50 response used whenever scoring cannot complete.
func fallbackResult(w ScoreWeights) ScoreResult {
	fb := ComponentBreakdown{
		Factors:     []Factor{{Name: MissingCalculationError, Value: fallbackScore, Weight: 1, Description: "計算中にエラーが発生したため暫定値を表示しています"}},
		Explanation: "計算エラーのため暫定値です",
	}
	return ScoreResult{
		Total: fallbackScore,
		Components: ScoreComponents{
			Evidence:     fallbackScore,
			Safety:       fallbackScore,
			Cost:         fallbackScore,
			Practicality: fallbackScore,
		},
		Weights:     w,
		Breakdown:   ScoreBreakdown{Evidence: fb, Safety: fb, Cost: fb, Practicality: fb},
		IsComplete:  false,
		MissingData: []string{MissingCalculationError},
	}
}

func breakdownOf(c ComponentScore) ComponentBreakdown {
	return ComponentBreakdown{Factors: c.Factors, Explanation: c.Explanation}
}

// mergeMissing concatenates the lists, keeping first-seen order and dropping duplicates.
func mergeMissing(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, l := range lists {
		for _, m := range l {
			if seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
