package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

type fixtureFile struct {
	Products []scoring.Product `yaml:"products"`
}

// LoadFixtures reads a YAML product list of the form `products: [...]`.
func LoadFixtures(path string) ([]scoring.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, p := range f.Products {
		if p.Name == "" {
			return nil, fmt.Errorf("fixture %d: name is required", i)
		}
	}
	return f.Products, nil
}
