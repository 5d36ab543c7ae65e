package documentRepo

import (
	"context"
	"strings"
	"time"

	"tradocs/models"
)

// DocumentFilter narrows document listings. Zero values are ignored.
type DocumentFilter struct {
	UserID   string
	FolderID *string // nil: any folder, "": root only
	Statuses []string
	IDs      []string
	From     time.Time
	To       time.Time
	Search   string
	Limit    int64
}

// Matches reports whether d satisfies the filter. It mirrors the Mongo query
// built by toBSON and is used by in-memory implementations.
func (f DocumentFilter) Matches(d models.Document) bool {
	if f.UserID != "" && d.UserID != f.UserID {
		return false
	}
	if f.FolderID != nil && d.FolderID != *f.FolderID {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, d.Status) {
		return false
	}
	if len(f.IDs) > 0 && !contains(f.IDs, d.ID) {
		return false
	}
	if !f.From.IsZero() && d.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !d.CreatedAt.Before(f.To) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(d.Filename), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// DocumentRepository defines methods for document data access.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
	// List returns documents matching filter, newest first.
	List(ctx context.Context, filter DocumentFilter) ([]models.Document, error)
	// ListStaleDrafts returns unpaid drafts created before cutoff.
	ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]models.Document, error)
	// MoveFolderToRoot detaches every document of a user's folder and returns how many moved.
	MoveFolderToRoot(ctx context.Context, userID, folderID string) (int64, error)
}
