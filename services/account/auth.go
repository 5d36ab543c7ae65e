package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tradocs/database/repository"
	"tradocs/models"
	"tradocs/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// VerifyPasswordComplexity requires at least 8 characters with a letter and a digit.
func VerifyPasswordComplexity(pw string) error {
	if len(pw) < 8 {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters long"}
	}
	if !hasLetter.MatchString(pw) {
		return &ValidationError{Field: "password", Message: "must include at least one letter"}
	}
	if !hasDigit.MatchString(pw) {
		return &ValidationError{Field: "password", Message: "must include at least one number"}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer profile and signs it in.
func (s *DefaultAccountService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if fullName == "" {
		return nil, &ValidationError{Field: "fullName", Message: "is required"}
	}
	if err := VerifyPasswordComplexity(req.Password); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		utils.GetLogger().Error("Register: failed to check for existing profile", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.GetLogger().Error("Register: failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}

	now := time.Now()
	profile := &models.Profile{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         models.RoleCustomer,
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		if affiliate, err := s.Repo.GetByAffiliateCode(ctx, strings.ToUpper(code)); err == nil {
			profile.ReferredBy = affiliate.AffiliateCode
		} else {
			utils.GetLogger().Info("Register: ignoring unknown referral code", zap.String("code", code))
		}
	}

	token, err := s.issueToken(profile)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		utils.GetLogger().Error("Register: failed to create profile", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}
	s.primeCache(ctx, profile)

	return authResponse(profile, token), nil
}

// Login verifies credentials and replaces the active session token.
func (s *DefaultAccountService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	profile, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(profile)
	if err != nil {
		return nil, err
	}
	profile.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, profile); err != nil {
		utils.GetLogger().Error("Login: failed to store token hash", zap.String("userID", profile.ID), zap.Error(err))
		return nil, fmt.Errorf("login failed, please try again")
	}
	s.primeCache(ctx, profile)

	return authResponse(profile, token), nil
}

// Logout invalidates the active token.
func (s *DefaultAccountService) Logout(ctx context.Context, userID string) error {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return err
	}
	profile.TokenHash = ""
	profile.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, profile); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return s.revokeSession(ctx, userID)
}

// revokeSession evicts the cached token hash. The middleware trusts a cache
// hit without reading the profile, so a failed eviction is reported.
func (s *DefaultAccountService) revokeSession(ctx context.Context, userID string) error {
	if s.AuthCache == nil {
		return nil
	}
	if err := s.AuthCache.Delete(ctx, userID); err != nil {
		utils.GetLogger().Error("failed to evict auth cache", zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSessionRevocation, err)
	}
	return nil
}

// issueToken signs a token for profile and records its hash on the profile.
func (s *DefaultAccountService) issueToken(profile *models.Profile) (string, error) {
	token, err := utils.GenerateToken(profile.ID, profile.Email, profile.Role, s.TokenTTL)
	if err != nil {
		utils.GetLogger().Error("failed to generate auth token", zap.String("userID", profile.ID), zap.Error(err))
		return "", fmt.Errorf("failed to issue token")
	}
	profile.TokenHash = utils.HashToken(token)
	return token, nil
}

func (s *DefaultAccountService) primeCache(ctx context.Context, profile *models.Profile) {
	if s.AuthCache == nil {
		return
	}
	if err := s.AuthCache.Set(ctx, profile.ID, profile.TokenHash); err != nil {
		utils.GetLogger().Warn("failed to prime auth cache", zap.String("userID", profile.ID), zap.Error(err))
	}
}

func authResponse(p *models.Profile, token string) *AuthResponse {
	return &AuthResponse{ID: p.ID, Token: token, Email: p.Email, FullName: p.FullName, Role: p.Role}
}
