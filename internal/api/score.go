package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/Suppscore/internal/diagnosis"
	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

type ScoreHandler struct {
	svc      *Service
	validate *validator.Validate
}

func NewScoreHandler(svc *Service, v *validator.Validate) *ScoreHandler {
	return &ScoreHandler{svc: svc, validate: v}
}

type ScoreRequest struct {
	Product *scoring.Product      `json:"product" validate:"required"`
	Weights *scoring.ScoreWeights `json:"weights,omitempty"`
}

type DiagnosisRequest struct {
	Product *scoring.Product           `json:"product" validate:"required"`
	Answers diagnosis.DiagnosisAnswers `json:"answers"`
}

type PersonalizeRequest struct {
	Answers diagnosis.DiagnosisAnswers `json:"answers"`
}

// resolveWeights returns the service default when w is nil. Caller-supplied
// weights must pass validation.
func (s *Service) resolveWeights(w *scoring.ScoreWeights) (scoring.ScoreWeights, error) {
	if w == nil {
		return s.weights, nil
	}
	if err := w.Validate(); err != nil {
		return scoring.ScoreWeights{}, err
	}
	return *w, nil
}

func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	weights, err := h.svc.resolveWeights(req.Weights)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Score(r.Context(), *req.Product, weights))
}

func (h *ScoreHandler) Diagnosis(w http.ResponseWriter, r *http.Request) {
	var req DiagnosisRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Diagnose(r.Context(), *req.Product, req.Answers))
}

func (h *ScoreHandler) Personalize(w http.ResponseWriter, r *http.Request) {
	var req PersonalizeRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, diagnosis.CalculatePersonalizedWeights(req.Answers))
}
