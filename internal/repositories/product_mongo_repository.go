package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductRepository stores products, with their reviews embedded, in a MongoDB collection.
type MongoProductRepository struct {
	coll *mongo.Collection
}

// NewMongoProductRepository creates a new instance of MongoProductRepository.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{coll: db.Collection(ProductsCollection)}
}

var mongoProductSort = map[models.ProductSort]bson.D{
	models.SortNewest:    newestFirst,
	models.SortOldest:    {{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
	models.SortPriceAsc:  {{Key: "price", Value: 1}, {Key: "_id", Value: 1}},
	models.SortPriceDesc: {{Key: "price", Value: -1}, {Key: "_id", Value: 1}},
	models.SortNameAsc:   {{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
	models.SortNameDesc:  {{Key: "name", Value: -1}, {Key: "_id", Value: 1}},
	models.SortRating:    {{Key: "rating", Value: -1}, {Key: "_id", Value: 1}},
}

// caseInsensitive makes name sorts ignore case.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// List returns one page of products matching query.
func (r *MongoProductRepository) List(ctx context.Context, query models.ProductQuery) ([]models.Product, int64, error) {
	filter := bson.M{}
	if query.Search != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(query.Search), "$options": "i"}
	}
	if query.Category != "" {
		filter["category"] = query.Category
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	sort, ok := mongoProductSort[query.Sort]
	if !ok {
		sort = newestFirst
	}
	opts := options.Find().SetSort(sort).SetSkip(int64(query.Offset()))
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}
	if query.Sort == models.SortNameAsc || query.Sort == models.SortNameDesc {
		opts.SetCollation(caseInsensitive)
	}

	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Top returns the highest-rated products.
func (r *MongoProductRepository) Top(ctx context.Context, limit int) ([]models.Product, error) {
	products, err := r.find(ctx, bson.M{}, options.Find().SetSort(mongoProductSort[models.SortRating]).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Product, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a product by its ID.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("product with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product.
func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update replaces the stored document of an existing product.
func (r *MongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, byID(product.ID), product)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("product with ID %s not found for update", product.ID)
	}
	return nil
}

// Delete removes a product by its ID.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("product with ID %s not found for deletion", id)
	}
	return nil
}

// Count returns the number of products.
func (r *MongoProductRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
