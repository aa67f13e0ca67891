package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/MikeSquared-Agency/Suppscore/internal/cache"
	"github.com/MikeSquared-Agency/Suppscore/internal/catalog"
	"github.com/MikeSquared-Agency/Suppscore/internal/diagnosis"
	"github.com/MikeSquared-Agency/Suppscore/internal/hermes"
	"github.com/MikeSquared-Agency/Suppscore/internal/metrics"
	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

// productWriter is implemented by catalogs that accept new products.
type productWriter interface {
	CreateProduct(ctx context.Context, p *scoring.Product) error
}

// Service wraps the scoring engine with caching, metrics and event publishing.
type Service struct {
	scorer       *scoring.Scorer
	engine       *diagnosis.Engine
	products     catalog.Source
	writer       productWriter
	cache        cache.Cache
	hermes       hermes.Client
	weights      scoring.ScoreWeights
	compareLimit int
	logger       *slog.Logger
}

type ServiceOptions struct {
	Products           catalog.Source
	Cache              cache.Cache
	Hermes             hermes.Client
	Weights            scoring.ScoreWeights
	ReferenceCostPerMg float64
	CompareConcurrency int
}

func NewService(opts ServiceOptions, logger *slog.Logger) *Service {
	scorer := scoring.NewScorer(opts.ReferenceCostPerMg, logger)
	s := &Service{
		scorer:       scorer,
		engine:       diagnosis.NewEngine(scorer, logger),
		products:     opts.Products,
		cache:        opts.Cache,
		hermes:       opts.Hermes,
		weights:      opts.Weights,
		compareLimit: opts.CompareConcurrency,
		logger:       logger,
	}
	if s.products == nil {
		s.products = catalog.NewMemoryStore()
	}
	if w, ok := s.products.(productWriter); ok {
		s.writer = w
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.weights.Validate() != nil {
		s.weights = scoring.DefaultWeights()
	}
	if s.compareLimit <= 0 {
		s.compareLimit = 8
	}
	return s
}

func (s *Service) Score(ctx context.Context, p scoring.Product, w scoring.ScoreWeights) scoring.ScoreResult {
	key := scoring.CacheKey(p, w)
	var result scoring.ScoreResult
	if s.lookup(ctx, key, &result) {
		return result
	}

	result = s.scorer.Score(p, w)
	metrics.ObserveScore(result.Total, result.IsComplete, isFallback(result))
	s.store(ctx, key, p.ID, result)
	s.publish(hermes.SubjectScoreComputed(p.ID),
		hermes.NewScoreComputedEvent(p.ID, result.Total, result.IsComplete, result.MissingData))
	return result
}

func (s *Service) Diagnose(ctx context.Context, p scoring.Product, answers diagnosis.DiagnosisAnswers) diagnosis.DiagnosisResult {
	key := diagnosis.CacheKey(p, answers)
	var result diagnosis.DiagnosisResult
	if s.lookup(ctx, key, &result) {
		return result
	}

	result = s.engine.Diagnose(p, answers)
	metrics.DiagnosesTotal.Inc()
	metrics.ObserveScore(result.BaseScore.Total, result.BaseScore.IsComplete, isFallback(result.BaseScore))
	s.store(ctx, key, p.ID, result)

	s.publish(hermes.SubjectDiagnosisCompleted(p.ID), hermes.NewDiagnosisCompletedEvent(
		p.ID, result.BaseScore.Total, result.PersonalizedScore, len(result.DangerAlerts)))
	for _, a := range result.DangerAlerts {
		metrics.DangerAlerts.WithLabelValues(string(a.Severity)).Inc()
		s.publish(hermes.SubjectDangerAlert(p.ID),
			hermes.NewDangerAlertEvent(p.ID, a.Ingredient, string(a.Severity), a.Reason))
	}
	return result
}

func (s *Service) lookup(ctx context.Context, key string, out interface{}) bool {
	hit, err := s.cache.Get(ctx, key, out)
	if err != nil {
		s.logger.Warn("cache lookup failed", "error", err)
		return false
	}
	metrics.ObserveCache(hit)
	return hit
}

// store tags the entry with the product ID so a catalog update can drop it.
// Inline products without an ID stay untagged and only expire.
func (s *Service) store(ctx context.Context, key, productID string, v interface{}) {
	var tags []string
	if productID != "" {
		tags = append(tags, productID)
	}
	if err := s.cache.Set(ctx, key, v, tags...); err != nil {
		s.logger.Warn("cache store failed", "error", err)
	}
}

func (s *Service) publish(subject string, event interface{}) {
	if s.hermes == nil {
		return
	}
	if err := s.hermes.Publish(subject, event); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// SetupSubscriptions registers the catalog event handlers. It is a no-op
// when events are disabled.
func (s *Service) SetupSubscriptions() error {
	if s.hermes == nil {
		return nil
	}
	return s.hermes.Subscribe(hermes.SubjectProductUpdatedAll, s.HandleProductUpdated)
}

// HandleProductUpdated drops every cached score and diagnosis of the product
// named by a ProductUpdatedEvent.
func (s *Service) HandleProductUpdated(subject string, data []byte) {
	var evt hermes.ProductUpdatedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		s.logger.Warn("invalid product event", "subject", subject, "error", err)
		return
	}
	if evt.ProductID == "" {
		s.logger.Warn("product event without product id", "subject", subject)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := s.cache.Invalidate(ctx, evt.ProductID)
	if err != nil {
		s.logger.Warn("cache invalidation failed", "product_id", evt.ProductID, "error", err)
		return
	}
	s.logger.Info("cache invalidated", "product_id", evt.ProductID, "action", evt.Action, "entries", n)
}

func isFallback(r scoring.ScoreResult) bool {
	return slices.Contains(r.MissingData, scoring.MissingCalculationError)
}
