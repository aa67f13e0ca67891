package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Suppscore/internal/catalog"
	"github.com/MikeSquared-Agency/Suppscore/internal/diagnosis"
	"github.com/MikeSquared-Agency/Suppscore/internal/hermes"
	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

// Mocks
type mockHermes struct {
	mock.Mock
	mu       sync.Mutex
	handlers map[string]func(string, []byte)
}

func (m *mockHermes) Publish(subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Called(subject, data).Error(0)
}
func (m *mockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = make(map[string]func(string, []byte))
	}
	m.handlers[subject] = handler
	return nil
}
func (m *mockHermes) Close() {}

// mapCache is an in-memory cache.Cache that round-trips through JSON like Redis does.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	tags map[string][]string
	sets int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte), tags: make(map[string][]string)}
}

func (c *mapCache) Get(_ context.Context, key string, out interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}
func (c *mapCache) Set(_ context.Context, key string, v interface{}, tags ...string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = b
	for _, tag := range tags {
		c.tags[tag] = append(c.tags[tag], key)
	}
	c.sets++
	c.mu.Unlock()
	return nil
}
func (c *mapCache) Invalidate(_ context.Context, tag string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, key := range c.tags[tag] {
		if _, ok := c.data[key]; ok {
			delete(c.data, key)
			n++
		}
	}
	delete(c.tags, tag)
	return n, nil
}
func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
func (c *mapCache) Close() error { return nil }

// readOnlySource is a catalog.Source without CreateProduct.
type readOnlySource struct{ err error }

func (s readOnlySource) GetProduct(_ context.Context, _ string) (*scoring.Product, error) {
	return nil, s.err
}
func (s readOnlySource) ListProducts(_ context.Context, _ catalog.Filter) ([]*scoring.Product, error) {
	return nil, s.err
}

func float64Ptr(v float64) *float64 { return &v }

func vitaminC() scoring.Product {
	return scoring.Product{
		ID:                   "vitc",
		Name:                 "ビタミンC 1000",
		PriceJPY:             float64Ptr(3000),
		ServingsPerContainer: float64Ptr(60),
		ServingsPerDay:       float64Ptr(2),
		Form:                 scoring.FormCapsule,
		Ingredients: []scoring.Ingredient{
			{Name: "ビタミンC", EvidenceLevel: scoring.EvidenceA, AmountMgPerServing: float64Ptr(1000)},
		},
	}
}

func preWorkout() scoring.Product {
	return scoring.Product{
		ID:                   "pre",
		Name:                 "Pre Workout",
		PriceJPY:             float64Ptr(4000),
		ServingsPerContainer: float64Ptr(30),
		ServingsPerDay:       float64Ptr(1),
		Form:                 scoring.FormPowder,
		Ingredients: []scoring.Ingredient{
			{Name: "Caffeine", EvidenceLevel: scoring.EvidenceB, AmountMgPerServing: float64Ptr(200)},
			{Name: "Yohimbine", EvidenceLevel: scoring.EvidenceC, AmountMgPerServing: float64Ptr(5)},
		},
	}
}

type testEnv struct {
	router http.Handler
	svc    *Service
	hermes *mockHermes
	cache  *mapCache
	store  *catalog.MemoryStore
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &mockHermes{}
	h.On("Publish", mock.Anything, mock.Anything).Return(nil)
	c := newMapCache()
	store := catalog.NewMemoryStore(vitaminC(), preWorkout())

	svc := NewService(ServiceOptions{
		Products: store,
		Cache:    c,
		Hermes:   h,
		Weights:  scoring.DefaultWeights(),
	}, logger)
	return &testEnv{router: NewRouter(svc, "test-token", 0, logger), svc: svc, hermes: h, cache: c, store: store}
}

func (e *testEnv) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestScoreEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	body, _ := json.Marshal(ScoreRequest{Product: ptr(vitaminC())})
	w := env.do("POST", "/api/v1/score", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result scoring.ScoreResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, 81.4, result.Total)
	assert.True(t, result.IsComplete)
	env.hermes.AssertCalled(t, "Publish", "supplement.score.vitc.computed", mock.Anything)
}

func TestScoreEndpointServesFromCache(t *testing.T) {
	env := setupTestRouter(t)
	body, _ := json.Marshal(ScoreRequest{Product: ptr(vitaminC())})

	first := env.do("POST", "/api/v1/score", string(body))
	second := env.do("POST", "/api/v1/score", string(body))
	require.Equal(t, http.StatusOK, second.Code)

	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, env.cache.sets)
	env.hermes.AssertNumberOfCalls(t, "Publish", 1)
}

func TestScoreEndpointValidation(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"product":`},
		{"missing product", `{}`},
		{"weights out of range", `{"product":{"name":"x"},"weights":{"evidence":1.2,"safety":0,"cost":0,"practicality":0}}`},
		{"weights sum", `{"product":{"name":"x"},"weights":{"evidence":0.5,"safety":0.5,"cost":0.5,"practicality":0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/api/v1/score", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestScoreEndpointIncompleteProduct(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/v1/score", `{"product":{"name":"不明"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result scoring.ScoreResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.False(t, result.IsComplete)
	assert.Contains(t, result.MissingData, scoring.MissingIngredients)
	assert.Contains(t, result.MissingData, scoring.MissingPrice)
}

func TestDiagnosisEndpointPublishesAlerts(t *testing.T) {
	env := setupTestRouter(t)

	body, _ := json.Marshal(DiagnosisRequest{
		Product: ptr(preWorkout()),
		Answers: diagnosis.DiagnosisAnswers{Constitution: []string{diagnosis.ConstitutionHypertension}},
	})
	w := env.do("POST", "/api/v1/diagnosis", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result diagnosis.DiagnosisResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	require.Len(t, result.DangerAlerts, 2)
	assert.Less(t, result.PersonalizedScore, result.BaseScore.Total)

	env.hermes.AssertCalled(t, "Publish", "supplement.diagnosis.pre.completed", mock.Anything)
	alertCalls := 0
	for _, c := range env.hermes.Calls {
		if c.Arguments.String(0) == "supplement.alert.pre.danger" {
			alertCalls++
		}
	}
	assert.Equal(t, 2, alertCalls)
}

func TestPersonalizeEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/v1/weights/personalize", `{"answers":{"lifestyle":["安全性を最優先"]}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var pw diagnosis.PersonalizedWeights
	require.NoError(t, json.NewDecoder(w.Body).Decode(&pw))
	assert.InDelta(t, 0.50, pw.Weights.Safety, 1e-9)
	assert.NoError(t, pw.Weights.Validate())
}

func TestListProducts(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/v1/products?q=vitamin", "")
	require.Equal(t, http.StatusOK, w.Code)
	var products []scoring.Product
	require.NoError(t, json.NewDecoder(w.Body).Decode(&products))
	assert.Empty(t, products)

	w = env.do("GET", "/api/v1/products?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&products))
	assert.Len(t, products, 1)

	w = env.do("GET", "/api/v1/products?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductScore(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/v1/products/vitc/score", "")
	require.Equal(t, http.StatusOK, w.Code)
	var result scoring.ScoreResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, 81.4, result.Total)

	w = env.do("GET", "/api/v1/products/missing/score", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductDiagnosis(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/v1/products/vitc/diagnosis", `{"answers":{"purpose":["美容・肌"]}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result diagnosis.DiagnosisResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Empty(t, result.DangerAlerts)
	assert.Equal(t, result.BaseScore.Total, result.PersonalizedScore)
}

func TestExportCSV(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/v1/products/vitc/export?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "product_id", records[0][0])
	assert.Equal(t, "81.4", records[1][3])
}

func TestExportDiagnosisJSON(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/v1/products/pre/export?purpose="+url.QueryEscape(diagnosis.PurposeMuscle), "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&doc))
	assert.Contains(t, doc, "diagnosis")

	w = env.do("GET", "/api/v1/products/pre/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompare(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/v1/compare", `{"product_ids":["pre","vitc"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CompareResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "pre", resp.Rows[0].ProductID)
	assert.Equal(t, "vitc", resp.Rows[1].ProductID)
	assert.NotEmpty(t, resp.Pareto)
	for _, c := range resp.Pareto {
		assert.Contains(t, []string{"pre", "vitc"}, c.ProductID)
	}
}

func TestCompareErrors(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty ids", `{"product_ids":[]}`, http.StatusBadRequest},
		{"duplicate ids", `{"product_ids":["vitc","vitc"]}`, http.StatusBadRequest},
		{"blank id", `{"product_ids":[""]}`, http.StatusBadRequest},
		{"unknown id", `{"product_ids":["vitc","nope"]}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/api/v1/compare", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	ids := make([]string, 51)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + strings.Repeat("x", i)
	}
	body, _ := json.Marshal(CompareRequest{ProductIDs: ids})
	assert.Equal(t, http.StatusBadRequest, env.do("POST", "/api/v1/compare", string(body)).Code)
}

func TestCreateProductRequiresAdminToken(t *testing.T) {
	env := setupTestRouter(t)

	body := `{"name":"亜鉛","ingredients":[{"name":"亜鉛","evidence_level":"B","amount_mg_per_serving":15}]}`
	w := env.do("POST", "/api/v1/products", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/v1/products", body, "Authorization", "Bearer test-token")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p scoring.Product
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	require.NotEmpty(t, p.ID)

	stored, err := env.store.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "亜鉛", stored.Name)
	env.hermes.AssertCalled(t, "Publish", hermes.SubjectProductUpdated(p.ID), mock.Anything)
}

func TestProductUpdatedDropsCachedResults(t *testing.T) {
	env := setupTestRouter(t)
	require.NoError(t, env.svc.SetupSubscriptions())
	handler := env.hermes.handlers[hermes.SubjectProductUpdatedAll]
	require.NotNil(t, handler)

	require.Equal(t, http.StatusOK, env.do("GET", "/api/v1/products/vitc/score", "").Code)
	require.Equal(t, http.StatusOK, env.do("POST", "/api/v1/products/vitc/diagnosis", `{"answers":{"purpose":["美容・肌"]}}`).Code)
	require.Equal(t, http.StatusOK, env.do("GET", "/api/v1/products/pre/score", "").Code)
	require.Equal(t, 3, env.cache.len())

	handler(hermes.SubjectProductUpdated("vitc"), []byte("{not json"))
	assert.Equal(t, 3, env.cache.len(), "malformed events are ignored")
	handler(hermes.SubjectProductUpdated(""), []byte(`{"action":"updated"}`))
	assert.Equal(t, 3, env.cache.len(), "events without a product id are ignored")

	data, err := json.Marshal(hermes.NewProductUpdatedEvent("vitc", "updated"))
	require.NoError(t, err)
	handler(hermes.SubjectProductUpdated("vitc"), data)
	assert.Equal(t, 1, env.cache.len(), "only the other product's score survives")

	sets := env.cache.sets
	require.Equal(t, http.StatusOK, env.do("GET", "/api/v1/products/vitc/score", "").Code)
	assert.Equal(t, sets+1, env.cache.sets, "score is recomputed after invalidation")
}

func TestSetupSubscriptionsWithoutEvents(t *testing.T) {
	svc := NewService(ServiceOptions{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, svc.SetupSubscriptions())
}

func TestCreateProductValidation(t *testing.T) {
	env := setupTestRouter(t)

	tests := []string{
		`{"brand":"no name"}`,
		`{"name":"x","ingredients":[{"evidence_level":"A"}]}`,
		`{"name":"x","ingredients":[{"name":"y","evidence_level":"Z"}]}`,
		`{"name":"x","servings_per_day":-1}`,
	}
	for _, body := range tests {
		w := env.do("POST", "/api/v1/products", body, "Authorization", "Bearer test-token")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestReadOnlyCatalog(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(ServiceOptions{Products: readOnlySource{err: errors.New("cms down")}}, logger)
	router := NewRouter(svc, "", 0, logger)

	req := httptest.NewRequest("POST", "/api/v1/products", bytes.NewBufferString(`{"name":"x"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/products/abc/score", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPublishFailureIsNotSurfaced(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &mockHermes{}
	h.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats down"))
	svc := NewService(ServiceOptions{Products: catalog.NewMemoryStore(vitaminC()), Hermes: h}, logger)

	req := httptest.NewRequest("GET", "/api/v1/products/vitc/score", nil)
	w := httptest.NewRecorder()
	NewRouter(svc, "", 0, logger).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := NewMetricsRouter()
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func ptr[T any](v T) *T { return &v }
