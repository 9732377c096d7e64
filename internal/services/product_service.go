package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 8
	MaxPageSize     = 100
	DefaultTopLimit = 3
)

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
}

// ProductUpdate carries the fields of a partial product update. Nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Brand       *string   `json:"brand"`
	Category    *string   `json:"category"`
	Price       *float64  `json:"price"`
	Stock       *int      `json:"stock"`
	Images      *[]string `json:"images"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, userRepo repositories.UserRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// ListProducts returns one page of the catalog.
// Page defaults to 1, limit to DefaultPageSize (capped at MaxPageSize) and sort to newest first.
func (s *ProductService) ListProducts(ctx context.Context, query models.ProductQuery) (*models.ProductPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = DefaultPageSize
	}
	if query.Limit > MaxPageSize {
		query.Limit = MaxPageSize
	}
	if query.Sort == "" {
		query.Sort = models.SortNewest
	}
	if !query.Sort.Valid() {
		return nil, apperr.Validation("unknown sort order '%s'", query.Sort)
	}
	query.Search = strings.TrimSpace(query.Search)

	products, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
	return &models.ProductPage{
		Products:   products,
		Page:       query.Page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// TopProducts returns the highest-rated products.
func (s *ProductService) TopProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	products, err := s.repo.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product owned by the acting admin.
func (s *ProductService) CreateProduct(ctx context.Context, ownerID string, input ProductInput) (*models.Product, error) {
	now := time.Now()
	product := &models.Product{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Brand:       strings.TrimSpace(input.Brand),
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price,
		Stock:       input.Stock,
		Images:      input.Images,
		Reviews:     []models.Review{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("owner_id", ownerID))
	return product, nil
}

// UpdateProduct applies the supplied fields to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		product.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		product.Description = strings.TrimSpace(*update.Description)
	}
	if update.Brand != nil {
		product.Brand = strings.TrimSpace(*update.Brand)
	}
	if update.Category != nil {
		product.Category = strings.TrimSpace(*update.Category)
	}
	if update.Price != nil {
		product.Price = *update.Price
	}
	if update.Stock != nil {
		product.Stock = *update.Stock
	}
	if update.Images != nil {
		product.Images = *update.Images
		if product.Images == nil {
			product.Images = []string{}
		}
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// AddReview appends userID's review to a product and recomputes its rating.
// A user reviews a product at most once.
func (s *ProductService) AddReview(ctx context.Context, productID, userID string, rating int, comment string) (*models.Product, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, apperr.Validation("comment is required")
	}

	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.ReviewedBy(userID) {
		return nil, apperr.Validation("product already reviewed")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer %s: %w", userID, err)
	}

	product.Reviews = append(product.Reviews, models.Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      user.Name,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	})
	product.RecalculateRating()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save review for product %s: %w", productID, err)
	}
	return product, nil
}

func validateProduct(p *models.Product) error {
	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Description == "" {
		missing = append(missing, "description")
	}
	if p.Brand == "" {
		missing = append(missing, "brand")
	}
	if p.Category == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	if p.Price < 0 {
		return apperr.Validation("price must not be negative")
	}
	// Order totals are computed in cents.
	if price := decimal.NewFromFloat(p.Price); !price.Equal(price.Round(2)) {
		return apperr.Validation("price must have at most two decimal places")
	}
	if p.Stock < 0 {
		return apperr.Validation("stock must not be negative")
	}
	return nil
}
