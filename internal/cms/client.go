// Package cms reads supplement products from the headless content service.
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Suppscore/internal/catalog"
	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// productResponse is the CMS document shape. Ingredient fields come back
// flattened under "contents".
type productResponse struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Brand                string   `json:"brand"`
	PriceJPY             *float64 `json:"price"`
	ServingsPerContainer *float64 `json:"servingsPerContainer"`
	ServingsPerDay       *float64 `json:"servingsPerDay"`
	Form                 string   `json:"form"`
	Warnings             []string `json:"warnings"`
	ThirdPartyTested     bool     `json:"thirdPartyTested"`
	Contents             []struct {
		Name          string   `json:"name"`
		Category      string   `json:"category"`
		EvidenceLevel string   `json:"evidenceLevel"`
		SafetyNotes   []string `json:"safetyNotes"`
		AmountMg      *float64 `json:"amountMgPerServing"`
	} `json:"contents"`
}

type listResponse struct {
	Contents []productResponse `json:"contents"`
}

func (r productResponse) toProduct() *scoring.Product {
	p := &scoring.Product{
		ID:                   r.ID,
		Name:                 r.Name,
		Brand:                r.Brand,
		PriceJPY:             r.PriceJPY,
		ServingsPerContainer: r.ServingsPerContainer,
		ServingsPerDay:       r.ServingsPerDay,
		Form:                 scoring.Form(r.Form),
		Warnings:             r.Warnings,
		ThirdPartyTested:     r.ThirdPartyTested,
	}
	for _, c := range r.Contents {
		p.Ingredients = append(p.Ingredients, scoring.Ingredient{
			Name:               c.Name,
			Category:           c.Category,
			EvidenceLevel:      scoring.EvidenceLevel(c.EvidenceLevel),
			SafetyNotes:        c.SafetyNotes,
			AmountMgPerServing: c.AmountMg,
		})
	}
	return p
}

func (c *HTTPClient) GetProduct(ctx context.Context, id string) (*scoring.Product, error) {
	var raw productResponse
	if err := c.get(ctx, "/api/v1/supplements/"+url.PathEscape(id), &raw); err != nil {
		return nil, err
	}
	return raw.toProduct(), nil
}

func (c *HTTPClient) ListProducts(ctx context.Context, filter catalog.Filter) ([]*scoring.Product, error) {
	q := url.Values{}
	if filter.Brand != "" {
		q.Set("filters", "brand[equals]"+filter.Brand)
	}
	if filter.Search != "" {
		q.Set("q", filter.Search)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	path := "/api/v1/supplements"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var raw listResponse
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	products := make([]*scoring.Product, 0, len(raw.Contents))
	for _, r := range raw.Contents {
		products = append(products, r.toProduct())
	}
	return products, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return catalog.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("cms: %d %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
