package account

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradocs/database/repository"
	"tradocs/models"
	"tradocs/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	affiliateCodeLength   = 8
	affiliateCodeAttempts = 5
	affiliateAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

func (s *DefaultAccountService) getProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func (s *DefaultAccountService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.getProfile(ctx, userID)
}

// UpdateProfile applies the non-nil fields of req.
func (s *DefaultAccountService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.Profile, error) {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, &ValidationError{Field: "fullName", Message: "cannot be empty"}
		}
		profile.FullName = name
	}
	if req.Phone != nil {
		profile.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.FCMToken != nil {
		profile.FCMToken = strings.TrimSpace(*req.FCMToken)
	}
	profile.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

func (s *DefaultAccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}
	if err := VerifyPasswordComplexity(newPassword); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	profile.PasswordHash = string(hashed)
	profile.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, profile); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	utils.GetLogger().Info("Password changed", zap.String("userID", userID))
	return nil
}

// EnableAffiliate assigns an affiliate code once. Calling it again returns the existing profile.
func (s *DefaultAccountService) EnableAffiliate(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.AffiliateCode != "" {
		return profile, nil
	}

	for attempt := 0; attempt < affiliateCodeAttempts; attempt++ {
		code, err := GenerateAffiliateCode()
		if err != nil {
			return nil, err
		}
		profile.AffiliateCode = code
		profile.UpdatedAt = time.Now()
		err = s.Repo.Update(ctx, profile)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to save affiliate code: %w", err)
		}
	}
	return nil, fmt.Errorf("could not allocate a unique affiliate code")
}

// GenerateAffiliateCode returns an uppercase code without ambiguous characters.
func GenerateAffiliateCode() (string, error) {
	buf := make([]byte, affiliateCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate affiliate code: %w", err)
	}
	for i, b := range buf {
		buf[i] = affiliateAlphabet[int(b)%len(affiliateAlphabet)]
	}
	return string(buf), nil
}

func (s *DefaultAccountService) ListProfiles(ctx context.Context, role string) ([]models.Profile, error) {
	if role != "" && !models.IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	return s.Repo.List(ctx, role)
}

func (s *DefaultAccountService) SetRole(ctx context.Context, actorID, profileID, role string) (*models.Profile, error) {
	if !models.IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	if actorID == profileID {
		return nil, ErrSelfModification
	}
	profile, err := s.getProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.Role == role {
		// a previous attempt may have saved the role but failed to evict the session
		if profile.TokenHash == "" {
			if err := s.revokeSession(ctx, profileID); err != nil {
				return nil, err
			}
		}
		return profile, nil
	}
	profile.Role = role
	// the old token carries the old role
	profile.TokenHash = ""
	profile.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if err := s.revokeSession(ctx, profileID); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("Role changed", zap.String("actor", actorID), zap.String("profileID", profileID), zap.String("role", role))
	return profile, nil
}

func (s *DefaultAccountService) DeleteProfile(ctx context.Context, actorID, profileID string) error {
	if actorID == profileID {
		return ErrSelfModification
	}
	if _, err := s.getProfile(ctx, profileID); err != nil {
		return err
	}
	// evict first so a cache failure leaves the profile in place for a retry
	if err := s.revokeSession(ctx, profileID); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, profileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	// a request between the eviction and the delete can repopulate the cache
	if err := s.revokeSession(ctx, profileID); err != nil {
		return err
	}
	utils.GetLogger().Info("Profile deleted", zap.String("actor", actorID), zap.String("profileID", profileID))
	return nil
}

func (s *DefaultAccountService) CountByRole(ctx context.Context) (map[string]int64, error) {
	return s.Repo.CountByRole(ctx)
}
