package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/security"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type authService struct {
	profileRepo repository.ProfileRepository
	tokens      security.TokenManager
}

func NewAuthService(profileRepo repository.ProfileRepository, tokens security.TokenManager) AuthService {
	return &authService{profileRepo: profileRepo, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrInvalidCredentials)
		}
		return nil, err
	}
	if profile.PasswordHash == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrInvalidCredentials)
	}
	return s.issue(profile)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.tokens.ValidateTokenType(refreshToken, security.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	// Reload so a role change takes effect on the next refresh.
	profile, err := s.profileRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", domain.ErrUnauthorized)
		}
		return nil, err
	}
	return s.issue(profile)
}

func (s *authService) issue(profile *domain.Profile) (*AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(profile.ID, profile.Email, string(profile.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(profile.ID, profile.Email, string(profile.Role))
	if err != nil {
		return nil, err
	}
	return &AuthTokens{AccessToken: access, RefreshToken: refresh, Profile: profile}, nil
}
