package diagnosis

import (
	"log/slog"

	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

// Score penalties per danger alert severity.
var severityPenalty = map[Severity]float64{
	SeverityHigh:   30,
	SeverityMedium: 15,
	SeverityLow:    5,
}

// DiagnosisResult is the personalized outcome for one product and one
// questionnaire. TotalScore duplicates PersonalizedScore for older clients.
type DiagnosisResult struct {
	TotalScore          float64              `json:"total_score"`
	PersonalizedScore   float64              `json:"personalized_score"`
	BaseScore           scoring.ScoreResult  `json:"base_score"`
	PersonalizedFactors scoring.ScoreWeights `json:"personalized_factors"`
	CostPerDay          float64              `json:"cost_per_day"`
	DangerAlerts        []DangerAlert        `json:"danger_alerts"`
	Recommendations     []string             `json:"recommendations"`
	Warnings            []string             `json:"warnings"`
}

// Engine composes personalization, scoring and alert detection.
type Engine struct {
	scorer *scoring.Scorer
	logger *slog.Logger
}

// NewEngine creates an Engine scoring with s.
func NewEngine(s *scoring.Scorer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if s == nil {
		s = scoring.NewScorer(scoring.DefaultReferenceCostPerMg, logger)
	}
	return &Engine{scorer: s, logger: logger}
}

// DiagnosisScore runs a diagnosis with the default Engine.
func DiagnosisScore(p scoring.Product, answers DiagnosisAnswers) DiagnosisResult {
	return NewEngine(nil, nil).Diagnose(p, answers)
}

// Diagnose scores p with weights derived from answers and penalizes the total
// for each danger alert.
func (e *Engine) Diagnose(p scoring.Product, answers DiagnosisAnswers) DiagnosisResult {
	pw := CalculatePersonalizedWeights(answers)
	base := e.scorer.Score(p, pw.Weights)

	costPerDay, ok := scoring.CostPerDay(&p)
	if ok {
		costPerDay = scoring.RoundTenth(costPerDay)
	}

	alerts := DetectDangerAlerts(p, answers)
	personalized := ApplyPenalty(base.Total, alerts)

	if len(alerts) > 0 {
		e.logger.Debug("danger alerts raised", "product", p.ID, "count", len(alerts))
	}

	return DiagnosisResult{
		TotalScore:          personalized,
		PersonalizedScore:   personalized,
		BaseScore:           base,
		PersonalizedFactors: pw.Factors,
		CostPerDay:          costPerDay,
		DangerAlerts:        alerts,
		Recommendations:     BuildRecommendations(p, base, answers, costPerDay),
		Warnings:            BuildWarnings(p, base, answers, alerts, costPerDay),
	}
}

// ApplyPenalty subtracts the per-severity penalty of each alert, flooring at 0.
func ApplyPenalty(total float64, alerts []DangerAlert) float64 {
	for _, a := range alerts {
		total -= severityPenalty[a.Severity]
	}
	if total < 0 {
		return 0
	}
	return scoring.RoundTenth(total)
}

// CacheKey returns a content hash of (product, answers).
func CacheKey(p scoring.Product, answers DiagnosisAnswers) string {
	return scoring.HashKey("diagnosis", struct {
		Product scoring.Product  `json:"product"`
		Answers DiagnosisAnswers `json:"answers"`
	}{p, answers})
}
