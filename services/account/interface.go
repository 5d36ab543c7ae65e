package account

import (
	"context"
	"time"

	profileRepo "tradocs/database/repository/profile"
	"tradocs/models"
	"tradocs/utils"
)

type AccountService interface {
	// Authentication
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Logout(ctx context.Context, userID string) error

	// Self service
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.Profile, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	EnableAffiliate(ctx context.Context, userID string) (*models.Profile, error)

	// Admin
	ListProfiles(ctx context.Context, role string) ([]models.Profile, error)
	SetRole(ctx context.Context, actorID, profileID, role string) (*models.Profile, error)
	DeleteProfile(ctx context.Context, actorID, profileID string) error
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// DefaultAccountService is the production implementation.
type DefaultAccountService struct {
	Repo      profileRepo.ProfileRepository
	AuthCache utils.AuthCache
	TokenTTL  time.Duration
}

func NewAccountService(repo profileRepo.ProfileRepository, cache utils.AuthCache, tokenTTL time.Duration) *DefaultAccountService {
	if tokenTTL <= 0 {
		tokenTTL = 72 * time.Hour
	}
	return &DefaultAccountService{Repo: repo, AuthCache: cache, TokenTTL: tokenTTL}
}

type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	FullName     string `json:"fullName" binding:"required"`
	Phone        string `json:"phone"`
	ReferralCode string `json:"referralCode"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	FCMToken *string `json:"fcmToken"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID       string `json:"id"`
	Token    string `json:"token"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}
