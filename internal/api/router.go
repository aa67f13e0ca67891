package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(svc *Service, adminToken string, requestsPerMinute int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	if requestsPerMinute > 0 {
		r.Use(RateLimitMiddleware(requestsPerMinute))
	}

	validate := validator.New()
	score := NewScoreHandler(svc, validate)
	products := NewProductsHandler(svc, validate)
	compare := NewCompareHandler(svc, validate)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RouteMetrics)

		r.Post("/score", score.Score)
		r.Post("/diagnosis", score.Diagnosis)
		r.Post("/weights/personalize", score.Personalize)
		r.Post("/compare", compare.Compare)

		r.Get("/products", products.List)
		r.Get("/products/{id}/score", products.Score)
		r.Post("/products/{id}/diagnosis", products.Diagnosis)
		r.Get("/products/{id}/export", products.Export)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Post("/products", products.Create)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
