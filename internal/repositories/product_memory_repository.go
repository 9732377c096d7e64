package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// List returns the products matching query, sorted and paged, plus the total number of matches.
func (r *MemoryProductRepository) List(ctx context.Context, query models.ProductQuery) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(query.Search)
	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if query.Category != "" && p.Category != query.Category {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}
	sortProducts(matched, query.Sort)

	total := int64(len(matched))
	start := query.Offset()
	if start >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := len(matched)
	if query.Limit > 0 && start+query.Limit < end {
		end = start + query.Limit
	}
	return matched[start:end], total, nil
}

// Top returns the highest-rated products.
func (r *MemoryProductRepository) Top(ctx context.Context, limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, cloneProduct(p))
	}
	sortProducts(productList, models.SortRating)
	if limit > 0 && len(productList) > limit {
		productList = productList[:limit]
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, apperr.NotFound("product with ID %s not found", id)
	}
	product = cloneProduct(product)
	return &product, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Update replaces an existing product.
func (r *MemoryProductRepository) Update(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return apperr.NotFound("product with ID %s not found for update", product.ID)
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return apperr.NotFound("product with ID %s not found for deletion", id)
	}
	delete(r.products, id)
	return nil
}

// Count returns the number of products.
func (r *MemoryProductRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

func cloneProduct(p models.Product) models.Product {
	p.Images = append([]string{}, p.Images...)
	p.Reviews = append([]models.Review{}, p.Reviews...)
	return p
}

// sortProducts orders products in place. Ties fall back to ID so pages are stable.
func sortProducts(products []models.Product, order models.ProductSort) {
	less := func(a, b models.Product) bool { return b.CreatedAt.Before(a.CreatedAt) }
	switch order {
	case models.SortOldest:
		less = func(a, b models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case models.SortPriceAsc:
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case models.SortPriceDesc:
		less = func(a, b models.Product) bool { return a.Price > b.Price }
	case models.SortNameAsc:
		less = func(a, b models.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case models.SortNameDesc:
		less = func(a, b models.Product) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	case models.SortRating:
		less = func(a, b models.Product) bool { return a.Rating > b.Rating }
	}
	sort.SliceStable(products, func(i, j int) bool {
		if less(products[i], products[j]) {
			return true
		}
		if less(products[j], products[i]) {
			return false
		}
		return products[i].ID < products[j].ID
	})
}
