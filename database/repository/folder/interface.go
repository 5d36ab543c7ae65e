package folderRepo

import (
	"context"

	"tradocs/models"
)

// FolderRepository defines data access for customer document folders.
type FolderRepository interface {
	Create(ctx context.Context, f *models.Folder) error
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	Update(ctx context.Context, f *models.Folder) error
	Delete(ctx context.Context, id string) error
	// ListByUser returns a user's folders sorted by name.
	ListByUser(ctx context.Context, userID string) ([]models.Folder, error)
}
