// Package catalog supplies the products the scoring engine consumes.
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

// ErrNotFound is returned when a product does not exist in the source.
var ErrNotFound = errors.New("product not found")

// Source reads products for scoring.
type Source interface {
	GetProduct(ctx context.Context, id string) (*scoring.Product, error)
	ListProducts(ctx context.Context, filter Filter) ([]*scoring.Product, error)
}

// Store is a Source that also accepts new products.
type Store interface {
	Source
	CreateProduct(ctx context.Context, p *scoring.Product) error
	Close() error
}

type Filter struct {
	Brand  string
	Search string
	Limit  int
	Offset int
}

// MemoryStore is an in-process Store used for fixtures and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]scoring.Product
}

func NewMemoryStore(products ...scoring.Product) *MemoryStore {
	m := &MemoryStore{products: make(map[string]scoring.Product)}
	for _, p := range products {
		_ = m.CreateProduct(context.Background(), &p)
	}
	return m
}

func (m *MemoryStore) CreateProduct(_ context.Context, p *scoring.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.mu.Lock()
	m.products[p.ID] = *p
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id string) (*scoring.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListProducts(_ context.Context, filter Filter) ([]*scoring.Product, error) {
	m.mu.RLock()
	var out []*scoring.Product
	for _, p := range m.products {
		if filter.Brand != "" && p.Brand != filter.Brand {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter), nil
}

func (m *MemoryStore) Close() error { return nil }

func paginate(products []*scoring.Product, filter Filter) []*scoring.Product {
	if filter.Offset > 0 {
		if filter.Offset >= len(products) {
			return nil
		}
		products = products[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(products) {
		products = products[:filter.Limit]
	}
	return products
}
