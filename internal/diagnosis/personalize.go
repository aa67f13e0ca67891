// Package diagnosis personalizes product scores against a user's health
// questionnaire and flags ingredients that conflict with the answers.
package diagnosis

import (
	"strings"

	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

// DiagnosisAnswers holds the questionnaire selections. Labels come from a
// fixed vocabulary; unrecognised labels are ignored.
type DiagnosisAnswers struct {
	Purpose      []string `json:"purpose"`
	Constitution []string `json:"constitution"`
	Lifestyle    []string `json:"lifestyle"`
}

// PersonalizedWeights is the derived weight set plus each weight's ratio to
// its default, for display only.
type PersonalizedWeights struct {
	Weights scoring.ScoreWeights `json:"weights"`
	Factors scoring.ScoreWeights `json:"personalized_factors"`
}

// Questionnaire vocabulary.
const (
	PurposeFatigue   = "疲労回復"
	PurposeBeauty    = "美容・肌"
	PurposeImmunity  = "免疫サポート"
	PurposeMuscle    = "筋力・運動"
	PurposeSleep     = "睡眠改善"
	PurposeWellness  = "健康維持"
	PurposeDiet      = "ダイエット"
	PurposeFocus     = "集中力・認知"
	PrioritySafety   = "安全性を最優先"
	PriorityEvidence = "科学的根拠を重視"
	PriorityCost     = "コスパを重視"
	PriorityEase     = "続けやすさを重視"
	Budget1000       = "予算: 月1000円以下"
	Budget3000       = "予算: 月3000円以下"
	Budget5000       = "予算: 月5000円以下"
	BudgetUnlimited  = "予算: 上限なし"
)

var purposeWeights = map[string]scoring.ScoreWeights{
	PurposeFatigue:  {Evidence: 0.35, Safety: 0.25, Cost: 0.20, Practicality: 0.20},
	PurposeBeauty:   {Evidence: 0.30, Safety: 0.30, Cost: 0.20, Practicality: 0.20},
	PurposeImmunity: {Evidence: 0.40, Safety: 0.30, Cost: 0.15, Practicality: 0.15},
	PurposeMuscle:   {Evidence: 0.40, Safety: 0.25, Cost: 0.20, Practicality: 0.15},
	PurposeSleep:    {Evidence: 0.35, Safety: 0.35, Cost: 0.15, Practicality: 0.15},
	PurposeWellness: {Evidence: 0.30, Safety: 0.30, Cost: 0.25, Practicality: 0.15},
	PurposeDiet:     {Evidence: 0.30, Safety: 0.35, Cost: 0.20, Practicality: 0.15},
	PurposeFocus:    {Evidence: 0.40, Safety: 0.30, Cost: 0.15, Practicality: 0.15},
}

// priorityWeights replace the purpose-derived weights wholesale.
var priorityWeights = map[string]scoring.ScoreWeights{
	PrioritySafety:   {Evidence: 0.25, Safety: 0.50, Cost: 0.15, Practicality: 0.10},
	PriorityEvidence: {Evidence: 0.50, Safety: 0.25, Cost: 0.15, Practicality: 0.10},
	PriorityCost:     {Evidence: 0.25, Safety: 0.20, Cost: 0.40, Practicality: 0.15},
	PriorityEase:     {Evidence: 0.25, Safety: 0.20, Cost: 0.20, Practicality: 0.35},
}

type budgetBracket struct {
	costWeight float64
	// maxMonthlyJPY is 0 for an unlimited budget.
	maxMonthlyJPY float64
}

var budgetBrackets = map[string]budgetBracket{
	Budget1000:      {costWeight: 0.40, maxMonthlyJPY: 1000},
	Budget3000:      {costWeight: 0.30, maxMonthlyJPY: 3000},
	Budget5000:      {costWeight: 0.20, maxMonthlyJPY: 5000},
	BudgetUnlimited: {costWeight: 0.10},
}

// CalculatePersonalizedWeights derives score weights from the answers.
// Purpose overrides are averaged, a priority statement replaces them, a budget
// bracket pins the cost weight, and the result is renormalized to sum to 1.
func CalculatePersonalizedWeights(answers DiagnosisAnswers) PersonalizedWeights {
	w := scoring.DefaultWeights()

	var matched []scoring.ScoreWeights
	for _, p := range answers.Purpose {
		if pw, ok := purposeWeights[label(p)]; ok {
			matched = append(matched, pw)
		}
	}
	if len(matched) > 0 {
		w = average(matched)
	}

	if pw, ok := firstMatch(answers.Lifestyle, priorityWeights); ok {
		w = pw
	}

	if b, ok := firstMatch(answers.Lifestyle, budgetBrackets); ok {
		w = pinCost(w, b.costWeight)
	}

	w = renormalize(w)
	def := scoring.DefaultWeights()
	return PersonalizedWeights{
		Weights: w,
		Factors: scoring.ScoreWeights{
			Evidence:     w.Evidence / def.Evidence,
			Safety:       w.Safety / def.Safety,
			Cost:         w.Cost / def.Cost,
			Practicality: w.Practicality / def.Practicality,
		},
	}
}

func average(ws []scoring.ScoreWeights) scoring.ScoreWeights {
	var out scoring.ScoreWeights
	for _, w := range ws {
		out.Evidence += w.Evidence
		out.Safety += w.Safety
		out.Cost += w.Cost
		out.Practicality += w.Practicality
	}
	n := float64(len(ws))
	out.Evidence /= n
	out.Safety /= n
	out.Cost /= n
	out.Practicality /= n
	return out
}

// pinCost sets the cost weight and spreads the remainder over the other three
// in their current proportions.
func pinCost(w scoring.ScoreWeights, cost float64) scoring.ScoreWeights {
	rest := w.Evidence + w.Safety + w.Practicality
	remaining := 1 - cost
	if rest <= 0 {
		share := remaining / 3
		return scoring.ScoreWeights{Evidence: share, Safety: share, Cost: cost, Practicality: share}
	}
	return scoring.ScoreWeights{
		Evidence:     w.Evidence / rest * remaining,
		Safety:       w.Safety / rest * remaining,
		Cost:         cost,
		Practicality: w.Practicality / rest * remaining,
	}
}

func renormalize(w scoring.ScoreWeights) scoring.ScoreWeights {
	sum := w.Sum()
	if !(sum > 0) {
		return scoring.DefaultWeights()
	}
	return scoring.ScoreWeights{
		Evidence:     w.Evidence / sum,
		Safety:       w.Safety / sum,
		Cost:         w.Cost / sum,
		Practicality: w.Practicality / sum,
	}
}

// firstMatch returns the table entry for the first answer present in it.
func firstMatch[T any](answers []string, table map[string]T) (T, bool) {
	for _, a := range answers {
		if v, ok := table[label(a)]; ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func label(s string) string {
	return strings.TrimSpace(s)
}

// budgetFor returns the first budget bracket in the lifestyle answers.
func budgetFor(answers DiagnosisAnswers) (budgetBracket, bool) {
	return firstMatch(answers.Lifestyle, budgetBrackets)
}
