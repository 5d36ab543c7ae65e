package paymentRepo

import (
	"context"
	"time"

	"tradocs/models"
)

// PaymentFilter narrows payment listings. From/To apply to the payment's effective time.
type PaymentFilter struct {
	UserID      string
	Statuses    []string
	AffiliateID string
	// DocumentIDs matches payments covering any of the ids.
	DocumentIDs []string
	From        time.Time
	To          time.Time
}

// Matches mirrors the Mongo query for in-memory implementations.
func (f PaymentFilter) Matches(p models.Payment) bool {
	if f.UserID != "" && p.UserID != f.UserID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if s == p.Status {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.AffiliateID != "" && p.AffiliateID != f.AffiliateID {
		return false
	}
	if len(f.DocumentIDs) > 0 && !overlaps(f.DocumentIDs, p.DocumentIDs) {
		return false
	}
	t := p.EffectiveTime()
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Before(f.To) {
		return false
	}
	return true
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// PaymentRepository defines data access for checkout payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	Update(ctx context.Context, p *models.Payment) error
	// List returns matching payments, newest first.
	List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error)
	// ListStalePending returns pending payments created before cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Payment, error)
}
