package cms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MikeSquared-Agency/Suppscore/internal/catalog"
	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

const productJSON = `{
	"id": "p1",
	"name": "ビタミンC 1000",
	"price": 3000,
	"servingsPerContainer": 60,
	"servingsPerDay": 2,
	"form": "capsule",
	"thirdPartyTested": true,
	"contents": [{"name": "ビタミンC", "evidenceLevel": "A", "amountMgPerServing": 1000}]
}`

func TestGetProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/v1/supplements/p1":
			_, _ = w.Write([]byte(productJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "key")

	p, err := c.GetProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Name != "ビタミンC 1000" || p.Form != scoring.FormCapsule || !p.ThirdPartyTested {
		t.Errorf("unexpected product: %+v", p)
	}
	if len(p.Ingredients) != 1 || p.Ingredients[0].EvidenceLevel != scoring.EvidenceA {
		t.Fatalf("unexpected ingredients: %+v", p.Ingredients)
	}
	if p.Ingredients[0].AmountMgPerServing == nil || *p.Ingredients[0].AmountMgPerServing != 1000 {
		t.Error("expected amount 1000")
	}

	if _, err := c.GetProduct(context.Background(), "nope"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListProductsQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q") + "|" + r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"contents": [` + productJSON + `]}`))
	}))
	defer srv.Close()

	products, err := NewHTTPClient(srv.URL, "").ListProducts(context.Background(), catalog.Filter{Search: "ビタミン", Limit: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if gotQuery != "ビタミン|5" {
		t.Errorf("unexpected query: %s", gotQuery)
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL, "").GetProduct(context.Background(), "p1"); err == nil {
		t.Error("expected error on 500")
	}
}
