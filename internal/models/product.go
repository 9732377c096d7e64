package models

import "time"

// Review is a user's rating of a product. Reviews are embedded in their product and never edited.
type Review struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"userId" bson:"userId"`
	Name      string    `json:"name" bson:"name"` // reviewer name at the time of review
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Product represents a product in the store.
type Product struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `json:"userId" bson:"userId" gorm:"type:varchar(36)"` // admin who created it
	Name        string    `json:"name" bson:"name" gorm:"index"`
	Description string    `json:"description" bson:"description"`
	Brand       string    `json:"brand" bson:"brand"`
	Category    string    `json:"category" bson:"category" gorm:"index"`
	Price       float64   `json:"price" bson:"price"`
	Stock       int       `json:"stock" bson:"stock"`
	Images      []string  `json:"images" bson:"images" gorm:"serializer:json;type:text"`
	Reviews     []Review  `json:"reviews" bson:"reviews" gorm:"serializer:json;type:text"`
	Rating      float64   `json:"rating" bson:"rating"`
	NumReviews  int       `json:"numReviews" bson:"numReviews"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// RecalculateRating recomputes Rating and NumReviews from Reviews.
func (p *Product) RecalculateRating() {
	p.NumReviews = len(p.Reviews)
	if p.NumReviews == 0 {
		p.Rating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(p.NumReviews)
}

// ReviewedBy reports whether userID already reviewed the product.
func (p *Product) ReviewedBy(userID string) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// ProductSort is an ordering accepted by product listings.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortOldest    ProductSort = "oldest"
	SortPriceAsc  ProductSort = "price-asc"
	SortPriceDesc ProductSort = "price-desc"
	SortNameAsc   ProductSort = "name-asc"
	SortNameDesc  ProductSort = "name-desc"
	SortRating    ProductSort = "rating"
)

// Valid reports whether s is a known ordering.
func (s ProductSort) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortRating:
		return true
	}
	return false
}

// ProductQuery filters and pages a product listing.
type ProductQuery struct {
	Search   string
	Category string
	Sort     ProductSort
	Page     int // 1-based
	Limit    int
}

// Offset is the number of products skipped before the requested page.
func (q ProductQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	Total      int64     `json:"total"`
}
