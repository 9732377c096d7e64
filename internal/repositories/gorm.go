package repositories

import (
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// NewGORMSet builds the repositories of a GORM database.
func NewGORMSet(db *gorm.DB) *Set {
	return &Set{
		Products: NewGORMProductRepository(db),
		Orders:   NewGORMOrderRepository(db),
		Users:    NewGORMUserRepository(db),
	}
}

// MigrateGORM creates or updates the tables of every model.
func MigrateGORM(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.User{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
