// Package seed loads a product catalog from YAML into an empty store.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"storefront/internal/repositories"
	"storefront/internal/services"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Catalog is the layout of a seed file.
type Catalog struct {
	Products []Product `yaml:"products"`
}

// Product is one catalog entry.
type Product struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Brand       string   `yaml:"brand"`
	Category    string   `yaml:"category"`
	Price       float64  `yaml:"price"`
	Stock       int      `yaml:"stock"`
	Images      []string `yaml:"images"`
}

// Parse decodes a catalog. Unknown keys are rejected so typos do not go unnoticed.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var catalog Catalog
	if err := dec.Decode(&catalog); err != nil {
		if err == io.EOF {
			return &catalog, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &catalog, nil
}

// LoadFile reads and parses the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Seeder fills an empty catalog.
type Seeder struct {
	repo     repositories.ProductRepository
	products *services.ProductService
	logger   *zap.Logger
}

// NewSeeder creates a new Seeder.
func NewSeeder(repo repositories.ProductRepository, products *services.ProductService, logger *zap.Logger) *Seeder {
	return &Seeder{repo: repo, products: products, logger: logger}
}

// Seed creates every catalog product owned by ownerID, unless the store already holds products.
// Entries go through the same validation as products created over the API.
// It returns the number of products created.
func (s *Seeder) Seed(ctx context.Context, ownerID string, catalog *Catalog) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		s.logger.Info("catalog already populated, skipping seed", zap.Int64("products", count))
		return 0, nil
	}

	created := 0
	for _, p := range catalog.Products {
		product, err := s.products.CreateProduct(ctx, ownerID, services.ProductInput{
			Name:        p.Name,
			Description: p.Description,
			Brand:       p.Brand,
			Category:    p.Category,
			Price:       p.Price,
			Stock:       p.Stock,
			Images:      p.Images,
		})
		if err != nil {
			return created, fmt.Errorf("failed to seed product %q: %w", p.Name, err)
		}
		s.logger.Debug("seeded product", zap.String("name", product.Name), zap.String("product_id", product.ID))
		created++
	}
	s.logger.Info("catalog seeded", zap.Int("products", created))
	return created, nil
}
