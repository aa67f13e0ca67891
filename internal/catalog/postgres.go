package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

// PostgresStore keeps products in the supplement_products table. Ingredients
// and warnings are stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS supplement_products (
	product_id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name                   TEXT NOT NULL,
	brand                  TEXT,
	ingredients            JSONB NOT NULL DEFAULT '[]',
	price_jpy              DOUBLE PRECISION,
	servings_per_container DOUBLE PRECISION,
	servings_per_day       DOUBLE PRECISION,
	form                   TEXT,
	warnings               JSONB NOT NULL DEFAULT '[]',
	third_party_tested     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS supplement_products_brand_idx ON supplement_products (brand);`

// Migrate creates the products table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const productColumns = `product_id, name, brand, ingredients, price_jpy,
	servings_per_container, servings_per_day, form, warnings, third_party_tested`

func (s *PostgresStore) CreateProduct(ctx context.Context, p *scoring.Product) error {
	ingredientsJSON, err := json.Marshal(p.Ingredients)
	if err != nil {
		return fmt.Errorf("encode ingredients: %w", err)
	}
	warningsJSON, err := json.Marshal(p.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	var id uuid.UUID
	err = s.pool.QueryRow(ctx, `
		INSERT INTO supplement_products (name, brand, ingredients, price_jpy,
			servings_per_container, servings_per_day, form, warnings, third_party_tested)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING product_id`,
		p.Name, p.Brand, ingredientsJSON, p.PriceJPY,
		p.ServingsPerContainer, p.ServingsPerDay, string(p.Form), warningsJSON, p.ThirdPartyTested,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = id.String()
	return nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*scoring.Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM supplement_products WHERE product_id = $1`, pid)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, filter Filter) ([]*scoring.Product, error) {
	query := `SELECT ` + productColumns + ` FROM supplement_products WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Brand != "" {
		n++
		query += fmt.Sprintf(" AND brand = $%d", n)
		args = append(args, filter.Brand)
	}
	if filter.Search != "" {
		n++
		query += fmt.Sprintf(" AND name ILIKE $%d", n)
		args = append(args, "%"+filter.Search+"%")
	}
	query += " ORDER BY name"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*scoring.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (*scoring.Product, error) {
	p := &scoring.Product{}
	var id uuid.UUID
	var brand, form *string
	var ingredientsJSON, warningsJSON []byte
	err := row.Scan(
		&id, &p.Name, &brand, &ingredientsJSON, &p.PriceJPY,
		&p.ServingsPerContainer, &p.ServingsPerDay, &form, &warningsJSON, &p.ThirdPartyTested,
	)
	if err != nil {
		return nil, err
	}
	p.ID = id.String()
	if brand != nil {
		p.Brand = *brand
	}
	if form != nil {
		p.Form = scoring.Form(*form)
	}
	if ingredientsJSON != nil {
		if err := json.Unmarshal(ingredientsJSON, &p.Ingredients); err != nil {
			return nil, fmt.Errorf("decode ingredients: %w", err)
		}
	}
	if warningsJSON != nil {
		if err := json.Unmarshal(warningsJSON, &p.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
	}
	return p, nil
}
