package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Suppscore/internal/catalog"
	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

type CompareHandler struct {
	svc      *Service
	validate *validator.Validate
}

func NewCompareHandler(svc *Service, v *validator.Validate) *CompareHandler {
	return &CompareHandler{svc: svc, validate: v}
}

type CompareRequest struct {
	ProductIDs []string              `json:"product_ids" validate:"required,min=1,max=50,unique,dive,required"`
	Weights    *scoring.ScoreWeights `json:"weights,omitempty"`
}

type CompareRow struct {
	ProductID string              `json:"product_id"`
	Name      string              `json:"name"`
	Score     scoring.ScoreResult `json:"score"`
}

type CompareResponse struct {
	Rows   []CompareRow              `json:"rows"`
	Pareto []scoring.ParetoCandidate `json:"pareto"`
}

type missingProductError struct{ id string }

func (e *missingProductError) Error() string { return "product not found: " + e.id }

// Compare scores every requested product concurrently and returns the rows in
// request order together with the Pareto frontier.
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	weights, err := h.svc.resolveWeights(req.Weights)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := make([]CompareRow, len(req.ProductIDs))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(h.svc.compareLimit)
	for i, id := range req.ProductIDs {
		g.Go(func() error {
			p, err := h.svc.products.GetProduct(ctx, id)
			if errors.Is(err, catalog.ErrNotFound) {
				return &missingProductError{id: id}
			}
			if err != nil {
				return err
			}
			rows[i] = CompareRow{ProductID: p.ID, Name: p.Name, Score: h.svc.Score(ctx, *p, weights)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var missing *missingProductError
		if errors.As(err, &missing) {
			writeError(w, http.StatusNotFound, missing.Error())
			return
		}
		h.svc.logger.Error("compare failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to load products")
		return
	}

	candidates := make([]scoring.ParetoCandidate, len(rows))
	for i, row := range rows {
		candidates[i] = scoring.CandidateFrom(row.ProductID, row.Score)
	}
	writeJSON(w, http.StatusOK, CompareResponse{Rows: rows, Pareto: scoring.ComputeFrontier(candidates)})
}
