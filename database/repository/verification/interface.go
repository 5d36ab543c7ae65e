package verificationRepo

import (
	"context"
	"time"

	"tradocs/models"
)

// VerificationFilter narrows the documents_to_be_verified listing.
type VerificationFilter struct {
	UserID          string
	Statuses        []string
	AuthenticatorID string
	ReviewedFrom    time.Time
	ReviewedTo      time.Time
}

// Matches mirrors the Mongo query for in-memory implementations.
func (f VerificationFilter) Matches(v models.Verification) bool {
	if f.UserID != "" && v.UserID != f.UserID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if s == v.Status {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.AuthenticatorID != "" && v.AuthenticatorID != f.AuthenticatorID {
		return false
	}
	if !f.ReviewedFrom.IsZero() || !f.ReviewedTo.IsZero() {
		if v.ReviewedAt == nil {
			return false
		}
		if !f.ReviewedFrom.IsZero() && v.ReviewedAt.Before(f.ReviewedFrom) {
			return false
		}
		if !f.ReviewedTo.IsZero() && !v.ReviewedAt.Before(f.ReviewedTo) {
			return false
		}
	}
	return true
}

// VerificationRepository defines data access for documents awaiting authentication.
type VerificationRepository interface {
	Create(ctx context.Context, v *models.Verification) error
	GetByID(ctx context.Context, id string) (*models.Verification, error)
	Update(ctx context.Context, v *models.Verification) error
	// List returns matching rows, oldest first.
	List(ctx context.Context, filter VerificationFilter) ([]models.Verification, error)
	// DeleteByDocumentID removes every row linked to a document.
	DeleteByDocumentID(ctx context.Context, documentID string) (int64, error)
}
