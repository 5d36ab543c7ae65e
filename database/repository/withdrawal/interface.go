package withdrawalRepo

import (
	"context"

	"tradocs/models"
)

// WithdrawalFilter narrows withdrawal listings.
type WithdrawalFilter struct {
	AffiliateID string
	Statuses    []string
}

func (f WithdrawalFilter) Matches(w models.WithdrawalRequest) bool {
	if f.AffiliateID != "" && w.AffiliateID != f.AffiliateID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if s == w.Status {
			return true
		}
	}
	return false
}

// WithdrawalRepository defines data access for affiliate payout requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id string) (*models.WithdrawalRequest, error)
	Update(ctx context.Context, w *models.WithdrawalRequest) error
	// List returns matching requests, newest first.
	List(ctx context.Context, filter WithdrawalFilter) ([]models.WithdrawalRequest, error)
}
