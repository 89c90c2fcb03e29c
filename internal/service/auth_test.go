package service

import (
	"context"
	"testing"
	"time"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/arvidk/taskdeck/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newTestJWTManager() *security.JWTManager {
	return security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 7*24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		mockUserRepo.On("EmailExists", ctx, "new@example.com").Return(false, nil)
		mockUserRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		user, err := svc.Register(ctx, domain.UserCreate{
			Email:    "new@example.com",
			Name:     "New User",
			Password: "secret-password",
		})
		assert.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, "Available", user.Availability)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-password")))

		mockUserRepo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		mockUserRepo.On("EmailExists", ctx, "taken@example.com").Return(true, nil)

		_, err := svc.Register(ctx, domain.UserCreate{
			Email:    "taken@example.com",
			Name:     "Dup",
			Password: "secret-password",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
		mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.DefaultCost)

	t.Run("success", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		mockUserRepo.On("GetByEmail", ctx, "user@example.com").Return(&domain.User{
			Email:        "user@example.com",
			PasswordHash: string(hash),
		}, nil)

		tokens, err := svc.Login(ctx, domain.UserLogin{Email: "user@example.com", Password: "secret-password"})
		assert.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		mockUserRepo.On("GetByEmail", ctx, "user@example.com").Return(&domain.User{
			Email:        "user@example.com",
			PasswordHash: string(hash),
		}, nil)

		_, err := svc.Login(ctx, domain.UserLogin{Email: "user@example.com", Password: "wrong"})
		assert.Error(t, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		mockUserRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

		_, err := svc.Login(ctx, domain.UserLogin{Email: "ghost@example.com", Password: "whatever"})
		assert.Error(t, err)
	})
}
