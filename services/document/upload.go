package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tradocs/database/repository"
	"tradocs/models"
	"tradocs/services/storage"
	"tradocs/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxFilenameLength = 255

func validateUpload(meta UploadMeta) error {
	name := strings.TrimSpace(meta.Filename)
	if name == "" {
		return &ValidationError{Field: "file", Message: "a file is required"}
	}
	if len(name) > maxFilenameLength {
		return &ValidationError{Field: "file", Message: "filename is too long"}
	}
	if meta.Pages < 1 {
		return &ValidationError{Field: "pages", Message: "must be at least 1"}
	}
	src, dst := strings.TrimSpace(meta.SourceLanguage), strings.TrimSpace(meta.TargetLanguage)
	if src == "" || dst == "" {
		return &ValidationError{Field: "language", Message: "source and target languages are required"}
	}
	if strings.EqualFold(src, dst) {
		return &ValidationError{Field: "targetLanguage", Message: "must differ from the source language"}
	}
	if meta.TranslationType != models.TranslationCertified && meta.TranslationType != models.TranslationStandard {
		return &ValidationError{Field: "translationType", Message: "must be certified or standard"}
	}
	return nil
}

// Upload stores the file and creates a draft document priced from its page count.
func (s *DefaultDocumentService) Upload(ctx context.Context, userID string, file io.Reader, meta UploadMeta) (*models.Document, error) {
	if err := validateUpload(meta); err != nil {
		return nil, err
	}
	if meta.FolderID != "" {
		if _, err := s.ownedFolder(ctx, userID, meta.FolderID); err != nil {
			return nil, err
		}
	}

	filename := strings.TrimSpace(meta.Filename)
	key, err := s.Storage.Upload(ctx, file, storage.DocumentsFolder(userID), filename)
	if err != nil {
		utils.GetLogger().Error("Upload: storage failed", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	now := time.Now()
	doc := &models.Document{
		ID:              uuid.New().String(),
		UserID:          userID,
		FolderID:        meta.FolderID,
		Filename:        filename,
		StorageKey:      key,
		ContentType:     meta.ContentType,
		SizeBytes:       meta.SizeBytes,
		Pages:           meta.Pages,
		SourceLanguage:  strings.TrimSpace(meta.SourceLanguage),
		TargetLanguage:  strings.TrimSpace(meta.TargetLanguage),
		TranslationType: meta.TranslationType,
		Status:          models.DocumentStatusDraft,
		TotalCost:       s.Pricing.Cost(meta.Pages, meta.TranslationType),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Docs.Create(ctx, doc); err != nil {
		if delErr := s.Storage.Delete(ctx, key); delErr != nil {
			utils.GetLogger().Warn("Upload: orphaned storage object", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	s.notify(ctx, userID, models.NotificationDocumentUploaded, "Document uploaded",
		fmt.Sprintf("%s was uploaded. Complete payment to start the translation.", filename),
		map[string]string{"documentId": doc.ID})
	return doc, nil
}

// Delete removes a draft and its stored file.
func (s *DefaultDocumentService) Delete(ctx context.Context, actor Actor, id string) error {
	doc, err := s.accessible(ctx, actor, id)
	if err != nil {
		return err
	}
	if !doc.IsDraft() {
		return ErrNotDraft
	}
	if err := s.Docs.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", translate(err))
	}
	if doc.StorageKey != "" {
		if err := s.Storage.Delete(ctx, doc.StorageKey); err != nil {
			utils.GetLogger().Warn("Delete: failed to remove stored file", zap.String("key", doc.StorageKey), zap.Error(err))
		}
	}
	return nil
}

// MoveDocument files a document into folderID; an empty folderID is the root.
func (s *DefaultDocumentService) MoveDocument(ctx context.Context, userID, docID, folderID string) (*models.Document, error) {
	doc, err := s.accessible(ctx, Actor{UserID: userID}, docID)
	if err != nil {
		return nil, err
	}
	if folderID != "" {
		if _, err := s.ownedFolder(ctx, userID, folderID); err != nil {
			return nil, err
		}
	}
	doc.FolderID = folderID
	if err := s.Docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to move document: %w", err)
	}
	return doc, nil
}

func (s *DefaultDocumentService) accessible(ctx context.Context, actor Actor, id string) (*models.Document, error) {
	doc, err := s.Docs.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !actor.canAccess(doc) {
		// do not reveal that the document exists
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *DefaultDocumentService) notify(ctx context.Context, userID, typ, title, message string, data map[string]string) {
	if s.Notifier == nil {
		return
	}
	if _, err := s.Notifier.Notify(ctx, userID, typ, title, message, data); err != nil {
		utils.GetLogger().Warn("failed to notify", zap.String("userID", userID), zap.String("type", typ), zap.Error(err))
	}
}

func translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
