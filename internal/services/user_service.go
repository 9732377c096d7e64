package services

import (
	"context"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

// UserUpdate carries the fields an admin may change on any account. Nil fields are left unchanged.
type UserUpdate struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

// UserService handles administrative user management.
type UserService struct {
	repo   repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateUser changes name, email, role or active flag of a user.
func (s *UserService) UpdateUser(ctx context.Context, id string, update UserUpdate) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyIdentity(ctx, s.repo, user, update.Name, update.Email); err != nil {
		return nil, err
	}
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, apperr.Validation("invalid role: %s", *update.Role)
		}
		user.Role = *update.Role
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	s.logger.Info("user updated", zap.String("user_id", id), zap.String("role", string(user.Role)), zap.Bool("active", user.IsActive))
	return user, nil
}

// DeleteUser removes a user. Admins cannot delete their own account.
func (s *UserService) DeleteUser(ctx context.Context, actor Actor, id string) error {
	if actor.UserID == id {
		return apperr.Validation("cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("by", actor.UserID))
	return nil
}
