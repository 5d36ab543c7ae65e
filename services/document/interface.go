package document

import (
	"context"
	"io"

	documentRepo "tradocs/database/repository/document"
	folderRepo "tradocs/database/repository/folder"
	translatedRepo "tradocs/database/repository/translated"
	verificationRepo "tradocs/database/repository/verification"
	"tradocs/models"
	"tradocs/services/daterange"
	"tradocs/services/status"
	"tradocs/services/storage"
)

type DocumentService interface {
	// Customer documents
	Upload(ctx context.Context, userID string, file io.Reader, meta UploadMeta) (*models.Document, error)
	List(ctx context.Context, actor Actor, q ListQuery) ([]status.Reconciled, error)
	Get(ctx context.Context, actor Actor, id string) (*status.Reconciled, error)
	Delete(ctx context.Context, actor Actor, id string) error
	DownloadURL(ctx context.Context, actor Actor, id string, translated bool) (string, error)
	MoveDocument(ctx context.Context, userID, docID, folderID string) (*models.Document, error)

	// Payment hooks
	MarkPaid(ctx context.Context, docIDs []string, paymentID string) error
	CancelForPayment(ctx context.Context, docIDs []string, paymentID string) error

	// Staff workflow
	UpdateStatus(ctx context.Context, actorID, id, newStatus string) (*models.Document, error)
	SubmitTranslation(ctx context.Context, staffID, docID string, file io.Reader, filename string) (*status.Reconciled, error)
	CompleteFromVerification(ctx context.Context, v models.Verification) (*models.Document, error)

	// Folders
	CreateFolder(ctx context.Context, userID, name, parentID string) (*models.Folder, error)
	UpdateFolder(ctx context.Context, userID, id string, req FolderUpdate) (*models.Folder, error)
	DeleteFolder(ctx context.Context, userID, id string) error
	ListFolders(ctx context.Context, userID string) ([]models.Folder, error)
}

// Notifier is the part of the notification service documents need.
type Notifier interface {
	Notify(ctx context.Context, userID, typ, title, message string, data map[string]string) (*models.Notification, error)
	NotifyRole(ctx context.Context, role, typ, title, message string, data map[string]string) error
}

// DefaultDocumentService is the production implementation.
type DefaultDocumentService struct {
	Docs          documentRepo.DocumentRepository
	Verifications verificationRepo.VerificationRepository
	Translations  translatedRepo.TranslatedRepository
	Folders       folderRepo.FolderRepository
	Storage       storage.StorageService
	Notifier      Notifier
	Pricing       Pricing
}

// Actor is the authenticated caller. Staff may act on any customer's documents.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsStaff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleAuthenticator || a.Role == models.RoleFinance
}

func (a Actor) canAccess(doc *models.Document) bool {
	return a.IsStaff() || doc.UserID == a.UserID
}

// UploadMeta describes an uploaded file.
type UploadMeta struct {
	Filename        string
	ContentType     string
	SizeBytes       int64
	Pages           int    `form:"pages" binding:"required,min=1"`
	SourceLanguage  string `form:"sourceLanguage" binding:"required"`
	TargetLanguage  string `form:"targetLanguage" binding:"required"`
	TranslationType string `form:"translationType" binding:"required,oneof=certified standard"`
	FolderID        string `form:"folderId"`
}

// ListQuery filters document listings. Statuses are display statuses.
type ListQuery struct {
	UserID   string
	FolderID *string
	Statuses []status.DisplayStatus
	Range    daterange.Range
	Search   string
}

// FolderUpdate renames and/or moves a folder. Nil fields are left alone.
type FolderUpdate struct {
	Name     *string `json:"name"`
	ParentID *string `json:"parentId"`
}
