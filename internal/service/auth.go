package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foundation-backend/internal/config"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/security"
)

// dummyHash is compared when the email is unknown so both paths cost one bcrypt check.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z1VHKpYv4SnrVN4xNn3cZ3Uu"

type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
}

type authService struct {
	admins map[string]config.AdminAccount
	tokens security.TokenManager
}

func NewAuthService(admins []config.AdminAccount, tokens security.TokenManager) AuthService {
	byEmail := make(map[string]config.AdminAccount, len(admins))
	for _, a := range admins {
		byEmail[strings.ToLower(strings.TrimSpace(a.Email))] = a
	}
	return &authService{admins: byEmail, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	logger.EnterMethod("authService.Login", "email", email)

	account, ok := s.admins[strings.ToLower(strings.TrimSpace(email))]
	hash := dummyHash
	if ok {
		hash = account.PasswordHash
	}
	if err := security.CheckPassword(hash, password); err != nil || !ok {
		logger.Warn("Admin login rejected", "email", email)
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, security.ErrInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(account.Email, account.Name, []string{security.RoleAdmin})
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "email", email)
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	logger.ExitMethod("authService.Login", "email", account.Email)
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Email:       account.Email,
		Name:        account.Name,
	}, nil
}
