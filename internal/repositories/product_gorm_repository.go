package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

var gormProductOrder = map[models.ProductSort]string{
	models.SortNewest:    "created_at DESC, id",
	models.SortOldest:    "created_at ASC, id",
	models.SortPriceAsc:  "price ASC, id",
	models.SortPriceDesc: "price DESC, id",
	models.SortNameAsc:   "LOWER(name) ASC, id",
	models.SortNameDesc:  "LOWER(name) DESC, id",
	models.SortRating:    "rating DESC, id",
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List retrieves one page of products matching query.
func (r *GORMProductRepository) List(ctx context.Context, query models.ProductQuery) ([]models.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{})
	if query.Search != "" {
		tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(query.Search))+"%")
	}
	if query.Category != "" {
		tx = tx.Where("category = ?", query.Category)
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	order, ok := gormProductOrder[query.Sort]
	if !ok {
		order = gormProductOrder[models.SortNewest]
	}
	tx = tx.Order(order).Offset(query.Offset())
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}

	products := []models.Product{}
	if err := tx.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Top retrieves the highest-rated products.
func (r *GORMProductRepository) Top(ctx context.Context, limit int) ([]models.Product, error) {
	products := []models.Product{}
	if err := r.db.WithContext(ctx).Order(gormProductOrder[models.SortRating]).Limit(limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	// Save inserts when no row matches, so existence is checked first.
	if err := r.exists(ctx, product.ID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *GORMProductRepository) exists(ctx context.Context, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up product %s: %w", id, err)
	}
	if count == 0 {
		return apperr.NotFound("product with ID %s not found for update", id)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product with ID %s not found for deletion", id)
	}
	return nil
}

// Count returns the number of products.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
