package profileRepo

import (
	"context"

	"tradocs/models"
)

// ProfileRepository defines methods for profile data access.
type ProfileRepository interface {
	// Create inserts a new profile. Duplicate emails return repository.ErrDuplicate.
	Create(ctx context.Context, profile *models.Profile) error
	// GetByID retrieves a profile by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	// GetByEmail retrieves a profile by its email address.
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	// GetByAffiliateCode retrieves the affiliate owning code.
	GetByAffiliateCode(ctx context.Context, code string) (*models.Profile, error)
	// Update overwrites an existing profile.
	Update(ctx context.Context, profile *models.Profile) error
	// Delete removes a profile by its ID.
	Delete(ctx context.Context, id string) error
	// List returns profiles, optionally restricted to one role.
	List(ctx context.Context, role string) ([]models.Profile, error)
	// CountReferrals counts customers referred by an affiliate code.
	CountReferrals(ctx context.Context, code string) (int, error)
	// CountByRole returns the number of profiles per role.
	CountByRole(ctx context.Context) (map[string]int64, error)
}
