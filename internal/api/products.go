package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/Suppscore/internal/catalog"
	"github.com/MikeSquared-Agency/Suppscore/internal/diagnosis"
	"github.com/MikeSquared-Agency/Suppscore/internal/export"
	"github.com/MikeSquared-Agency/Suppscore/internal/hermes"
	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type ProductsHandler struct {
	svc      *Service
	validate *validator.Validate
}

func NewProductsHandler(svc *Service, v *validator.Validate) *ProductsHandler {
	return &ProductsHandler{svc: svc, validate: v}
}

// loadProduct writes the error response itself and reports whether p is usable.
func (h *ProductsHandler) loadProduct(w http.ResponseWriter, r *http.Request) (*scoring.Product, bool) {
	id := chi.URLParam(r, "id")
	p, err := h.svc.products.GetProduct(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return nil, false
	}
	if err != nil {
		h.svc.logger.Error("failed to load product", "product_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "failed to load product")
		return nil, false
	}
	return p, true
}

func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.Filter{
		Brand:  q.Get("brand"),
		Search: q.Get("q"),
		Limit:  defaultListLimit,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	products, err := h.svc.products.ListProducts(r.Context(), filter)
	if err != nil {
		h.svc.logger.Error("failed to list products", "error", err)
		writeError(w, http.StatusBadGateway, "failed to list products")
		return
	}
	if products == nil {
		products = []*scoring.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductsHandler) Score(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProduct(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Score(r.Context(), *p, h.svc.weights))
}

type ProductDiagnosisRequest struct {
	Answers diagnosis.DiagnosisAnswers `json:"answers"`
}

func (h *ProductsHandler) Diagnosis(w http.ResponseWriter, r *http.Request) {
	var req ProductDiagnosisRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := h.loadProduct(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Diagnose(r.Context(), *p, req.Answers))
}

// Export renders the product's score, or its diagnosis when any of the
// purpose, constitution or lifestyle query parameters are present.
func (h *ProductsHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := h.loadProduct(w, r)
	if !ok {
		return
	}

	answers := diagnosis.DiagnosisAnswers{
		Purpose:      q["purpose"],
		Constitution: q["constitution"],
		Lifestyle:    q["lifestyle"],
	}
	var report export.Report
	report.Product = *p
	if len(answers.Purpose)+len(answers.Constitution)+len(answers.Lifestyle) > 0 {
		d := h.svc.Diagnose(r.Context(), *p, answers)
		report.Score = d.BaseScore
		report.Diagnosis = &d
		report.Rows = export.DiagnosisRows(*p, d)
	} else {
		report.Score = h.svc.Score(r.Context(), *p, h.svc.weights)
		report.Rows = export.ScoreRows(*p, report.Score)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, report); err != nil {
		h.svc.logger.Error("failed to render export", "product_id", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render export")
		return
	}
	if format == export.FormatCSV {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, p.ID))
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type CreateIngredientRequest struct {
	Name               string   `json:"name" validate:"required"`
	Category           string   `json:"category,omitempty"`
	EvidenceLevel      string   `json:"evidence_level,omitempty" validate:"omitempty,oneof=A B C a b c"`
	SafetyNotes        []string `json:"safety_notes,omitempty"`
	AmountMgPerServing *float64 `json:"amount_mg_per_serving,omitempty" validate:"omitempty,gte=0"`
}

type CreateProductRequest struct {
	Name                 string                    `json:"name" validate:"required,max=200"`
	Brand                string                    `json:"brand,omitempty" validate:"max=200"`
	Ingredients          []CreateIngredientRequest `json:"ingredients" validate:"dive"`
	PriceJPY             *float64                  `json:"price_jpy,omitempty" validate:"omitempty,gte=0"`
	ServingsPerContainer *float64                  `json:"servings_per_container,omitempty" validate:"omitempty,gt=0"`
	ServingsPerDay       *float64                  `json:"servings_per_day,omitempty" validate:"omitempty,gt=0"`
	Form                 string                    `json:"form,omitempty"`
	Warnings             []string                  `json:"warnings,omitempty"`
	ThirdPartyTested     bool                      `json:"third_party_tested"`
}

func (req CreateProductRequest) product() *scoring.Product {
	p := &scoring.Product{
		Name:                 req.Name,
		Brand:                req.Brand,
		PriceJPY:             req.PriceJPY,
		ServingsPerContainer: req.ServingsPerContainer,
		ServingsPerDay:       req.ServingsPerDay,
		Form:                 scoring.Form(req.Form),
		Warnings:             req.Warnings,
		ThirdPartyTested:     req.ThirdPartyTested,
	}
	for _, in := range req.Ingredients {
		p.Ingredients = append(p.Ingredients, scoring.Ingredient{
			Name:               in.Name,
			Category:           in.Category,
			EvidenceLevel:      scoring.EvidenceLevel(in.EvidenceLevel),
			SafetyNotes:        in.SafetyNotes,
			AmountMgPerServing: in.AmountMgPerServing,
		})
	}
	return p
}

func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.svc.writer == nil {
		writeError(w, http.StatusNotImplemented, "product catalog is read-only")
		return
	}
	var req CreateProductRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := req.product()
	if err := h.svc.writer.CreateProduct(r.Context(), p); err != nil {
		h.svc.logger.Error("failed to create product", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	h.svc.logger.Info("product created", "product_id", p.ID, "name", p.Name)
	h.svc.publish(hermes.SubjectProductUpdated(p.ID), hermes.NewProductUpdatedEvent(p.ID, "created"))
	writeJSON(w, http.StatusCreated, p)
}
