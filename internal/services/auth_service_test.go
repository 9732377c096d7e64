package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test_jwt_secret"

func newAuthService() (*services.AuthService, *repositories.MemoryUserRepository) {
	repo := repositories.NewMemoryUserRepository()
	return services.NewAuthService(repo, testJWTSecret, time.Hour, zap.NewNop()), repo
}

func TestAuthService_Register(t *testing.T) {
	authService, repo := newAuthService()
	ctx := context.Background()

	result, err := authService.Register(ctx, "Alice", "  Alice@Example.COM ", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, models.RoleStandard, result.User.Role)
	assert.True(t, result.User.IsActive)

	stored, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.Password)

	t.Run("duplicate email ignores case", func(t *testing.T) {
		_, err := authService.Register(ctx, "Other", "ALICE@example.com", "password123")
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := authService.Register(ctx, "Bob", "bob@example.com", "12345")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("password longer than bcrypt accepts", func(t *testing.T) {
		_, err := authService.Register(ctx, "Bob", "bob@example.com", strings.Repeat("a", services.MaxPasswordLength+1))
		assert.ErrorIs(t, err, apperr.ErrValidation)

		_, err = authService.Register(ctx, "Bob", "bob@example.com", strings.Repeat("a", services.MaxPasswordLength))
		assert.NoError(t, err)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := authService.Register(ctx, " ", "carol@example.com", "password123")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestAuthService_Register_StoreFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour, zap.NewNop())
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(nil, apperr.NotFound("user with email test@example.com not found")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(errors.New("database error")).Once()

	_, err := authService.Register(ctx, "Test", "test@example.com", "password123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register user")
	assert.Equal(t, 500, apperr.Status(err))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	authService, repo := newAuthService()
	ctx := context.Background()

	registered, err := authService.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	result, err := authService.Login(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)

	claims, err := authService.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims["user_id"])
	assert.Equal(t, "alice@example.com", claims["email"])
	assert.Equal(t, "standard", claims["role"])

	_, err = authService.Login(ctx, "alice@example.com", "wrongpassword")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = authService.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	user, err := repo.GetByID(ctx, registered.User.ID)
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, repo.Update(ctx, user))

	_, err = authService.Login(ctx, "alice@example.com", "password123")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService, _ := newAuthService()
	user := &models.User{ID: "u-1", Email: "u@example.com", Role: models.RoleAdmin}

	token, err := authService.GenerateToken(user)
	require.NoError(t, err)
	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["role"])

	t.Run("wrong secret", func(t *testing.T) {
		other := services.NewAuthService(repositories.NewMemoryUserRepository(), "another_secret", time.Hour, zap.NewNop())
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": "u-1",
			"exp":     time.Now().Add(-time.Hour).Unix(),
			"iat":     time.Now().Add(-2 * time.Hour).Unix(),
		})
		signed, err := expired.SignedString([]byte(testJWTSecret))
		require.NoError(t, err)
		_, err = authService.ValidateToken(signed)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := authService.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	authService, _ := newAuthService()
	ctx := context.Background()

	alice, err := authService.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	_, err = authService.Register(ctx, "Bob", "bob@example.com", "password123")
	require.NoError(t, err)

	name := "Alice Liddell"
	email := "Liddell@Example.com"
	updated, err := authService.UpdateProfile(ctx, alice.User.ID, services.ProfileUpdate{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Name)
	assert.Equal(t, "liddell@example.com", updated.Email)

	taken := "BOB@example.com"
	_, err = authService.UpdateProfile(ctx, alice.User.ID, services.ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	blank := " "
	_, err = authService.UpdateProfile(ctx, alice.User.ID, services.ProfileUpdate{Name: &blank})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	profile, err := authService.GetProfile(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "liddell@example.com", profile.Email)
}

func TestAuthService_UpdatePassword(t *testing.T) {
	authService, _ := newAuthService()
	ctx := context.Background()

	alice, err := authService.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	err = authService.UpdatePassword(ctx, alice.User.ID, "wrong", "newpassword")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	err = authService.UpdatePassword(ctx, alice.User.ID, "password123", "123")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = authService.UpdatePassword(ctx, alice.User.ID, "password123", strings.Repeat("x", services.MaxPasswordLength+1))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, authService.UpdatePassword(ctx, alice.User.ID, "password123", "newpassword"))

	_, err = authService.Login(ctx, "alice@example.com", "password123")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = authService.Login(ctx, "alice@example.com", "newpassword")
	assert.NoError(t, err)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	authService, repo := newAuthService()
	ctx := context.Background()

	created, err := authService.EnsureAdmin(ctx, "", "Admin@Example.com", "adminpass")
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Administrator", admin.Name)

	created, err = authService.EnsureAdmin(ctx, "Admin", "admin@example.com", "adminpass")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = authService.EnsureAdmin(ctx, "Admin", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = authService.EnsureAdmin(ctx, "Root", "root@example.com", strings.Repeat("r", services.MaxPasswordLength+1))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.False(t, created)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
