package service_test

import (
	"context"
	"testing"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	tokens := security.NewTokenManager("test-secret", time.Hour, 24*time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	profile := &domain.Profile{
		ID:           uuid.New(),
		Email:        "owner@example.com",
		FullName:     "Olive Owner",
		PasswordHash: string(hash),
		Role:         domain.ProfileRoleUser,
	}

	t.Run("Login issues both tokens", func(t *testing.T) {
		profiles := new(MockProfileRepo)
		profiles.On("GetByEmail", ctx, "owner@example.com").Return(profile, nil)
		svc := service.NewAuthService(profiles, tokens)

		res, err := svc.Login(ctx, " owner@example.com ", "hunter22")
		require.NoError(t, err)

		claims, err := tokens.ValidateTokenType(res.AccessToken, security.TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, claims.UserID)
		_, err = tokens.ValidateTokenType(res.RefreshToken, security.TokenTypeRefresh)
		assert.NoError(t, err)
	})

	t.Run("Wrong password", func(t *testing.T) {
		profiles := new(MockProfileRepo)
		profiles.On("GetByEmail", ctx, "owner@example.com").Return(profile, nil)
		svc := service.NewAuthService(profiles, tokens)

		_, err := svc.Login(ctx, "owner@example.com", "nope")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("Unknown e-mail", func(t *testing.T) {
		profiles := new(MockProfileRepo)
		profiles.On("GetByEmail", ctx, mock.Anything).Return(nil, domain.ErrNotFound)
		svc := service.NewAuthService(profiles, tokens)

		_, err := svc.Login(ctx, "ghost@example.com", "hunter22")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Refresh picks up a new role", func(t *testing.T) {
		promoted := *profile
		promoted.Role = domain.ProfileRoleAdmin
		profiles := new(MockProfileRepo)
		profiles.On("GetByID", ctx, profile.ID).Return(&promoted, nil)
		svc := service.NewAuthService(profiles, tokens)

		refresh, err := tokens.GenerateRefreshToken(profile.ID, profile.Email, string(profile.Role))
		require.NoError(t, err)

		res, err := svc.RefreshToken(ctx, refresh)
		require.NoError(t, err)
		claims, err := tokens.ValidateToken(res.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin())
	})

	t.Run("Access token is not a refresh token", func(t *testing.T) {
		svc := service.NewAuthService(new(MockProfileRepo), tokens)
		access, err := tokens.GenerateAccessToken(profile.ID, profile.Email, string(profile.Role))
		require.NoError(t, err)

		_, err = svc.RefreshToken(ctx, access)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
