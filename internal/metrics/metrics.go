// Package metrics holds the Prometheus collectors served on the metrics port.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Scores computed, labelled by whether every input was present.
	ScoresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "suppscore_scores_total",
		Help: "Total number of product scores computed",
	}, []string{"complete"})

	ScoreFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suppscore_score_fallbacks_total",
		Help: "Scores that returned the neutral fallback result",
	})

	ScoreValue = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "suppscore_score_value",
		Help:    "Distribution of total scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	DiagnosesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suppscore_diagnoses_total",
		Help: "Total number of personalized diagnoses computed",
	})

	DangerAlerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "suppscore_danger_alerts_total",
		Help: "Danger alerts raised, by severity",
	}, []string{"severity"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "suppscore_cache_lookups_total",
		Help: "Result cache lookups, by outcome",
	}, []string{"result"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "suppscore_request_duration_seconds",
		Help:    "Latency of scoring API handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

func Init() {
	prometheus.MustRegister(
		ScoresTotal,
		ScoreFallbacks,
		ScoreValue,
		DiagnosesTotal,
		DangerAlerts,
		CacheLookups,
		RequestDuration,
	)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ObserveScore records one freshly computed score.
func ObserveScore(total float64, complete, fallback bool) {
	ScoresTotal.WithLabelValues(boolLabel(complete)).Inc()
	ScoreValue.Observe(total)
	if fallback {
		ScoreFallbacks.Inc()
	}
}

func ObserveCache(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}
