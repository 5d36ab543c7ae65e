package translatedRepo

import (
	"context"

	"tradocs/models"
)

// TranslatedRepository defines data access for delivered translations.
type TranslatedRepository interface {
	Create(ctx context.Context, t *models.TranslatedDocument) error
	GetByID(ctx context.Context, id string) (*models.TranslatedDocument, error)
	// ListByUser returns a user's translations; an empty userID returns all of them.
	ListByUser(ctx context.Context, userID string) ([]models.TranslatedDocument, error)
	DeleteByDocumentID(ctx context.Context, documentID string) (int64, error)
}
