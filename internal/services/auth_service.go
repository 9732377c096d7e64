package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Password length bounds. bcrypt only accepts up to 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// AuthResult is returned by registration and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ProfileUpdate carries the fields a user may change on their own account.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration // Duration for which JWT is valid
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register creates an active standard user and returns a token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, name, email, password, models.RoleStandard)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.authResult(user)
}

// Login authenticates a user by email and password.
// Unknown emails and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("account is deactivated")
	}
	return s.authResult(user)
}

// GenerateToken signs an HS256 token for user.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     now.Add(s.tokenTTL).Unix(), // Token expiration time
		"iat":     now.Unix(),                 // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug("token validation failed", zap.Error(err))
		return nil, apperr.Unauthorized("invalid token: %v", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, apperr.Unauthorized("invalid token")
}

// GetProfile returns the user with the given ID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile changes the name and/or email of the user's own account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := applyIdentity(ctx, s.userRepo, user, update.Name, update.Email); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile of user %s: %w", userID, err)
	}
	return user, nil
}

// UpdatePassword replaces the password after checking the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, current, next string) error {
	if err := checkPassword(next); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return apperr.Unauthorized("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password of user %s: %w", userID, err)
	}
	s.logger.Info("password updated", zap.String("user_id", userID))
	return nil
}

// EnsureAdmin creates an admin account with the given credentials unless the email is already taken.
// It reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}
	if len(password) > MaxPasswordLength {
		return false, apperr.Validation("admin password must be at most %d bytes", MaxPasswordLength)
	}
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return false, fmt.Errorf("failed to look up admin %s: %w", email, err)
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	user, err := s.createUser(ctx, strings.TrimSpace(name), email, password, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", user.ID), zap.String("email", email))
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperr.Conflict("email '%s' already registered", email)
	} else if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Password:  string(hashedPassword),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

func (s *AuthService) authResult(user *models.User) (*AuthResult, error) {
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperr.Validation("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return apperr.Validation("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// applyIdentity sets a new name and/or email on user. Emails stay unique across accounts.
func applyIdentity(ctx context.Context, repo repositories.UserRepository, user *models.User, name, email *string) error {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return apperr.Validation("name must not be empty")
		}
		user.Name = trimmed
	}
	if email != nil {
		normalized := normalizeEmail(*email)
		if normalized == "" {
			return apperr.Validation("email must not be empty")
		}
		if normalized != user.Email {
			other, err := repo.GetByEmail(ctx, normalized)
			if err == nil && other.ID != user.ID {
				return apperr.Conflict("email '%s' already registered", normalized)
			}
			if err != nil && !errors.Is(err, apperr.ErrNotFound) {
				return fmt.Errorf("failed to check email: %w", err)
			}
		}
		user.Email = normalized
	}
	return nil
}
