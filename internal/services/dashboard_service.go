package services

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

// RecentOrderCount is the number of orders listed on the dashboard.
const RecentOrderCount = 5

// DashboardService computes the admin dashboard figures.
type DashboardService struct {
	repos *repositories.Set
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repos *repositories.Set) *DashboardService {
	return &DashboardService{repos: repos}
}

// Stats recomputes the dashboard from the stores. Revenue counts paid orders only.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	orders, err := s.repos.Orders.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	productCount, err := s.repos.Products.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	userCount, err := s.repos.Users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	revenue := decimal.Zero
	pending := 0
	for _, o := range orders {
		if o.IsPaid {
			revenue = revenue.Add(decimal.NewFromFloat(o.TotalPrice))
		}
		if o.Status == models.StatusPending {
			pending++
		}
	}

	recent := orders
	if len(recent) > RecentOrderCount {
		recent = recent[:RecentOrderCount]
	}
	if recent == nil {
		recent = []models.Order{}
	}

	return &models.DashboardStats{
		TotalRevenue:  revenue.Round(2).InexactFloat64(),
		OrderCount:    len(orders),
		ProductCount:  productCount,
		UserCount:     userCount,
		PendingOrders: pending,
		RecentOrders:  recent,
	}, nil
}
