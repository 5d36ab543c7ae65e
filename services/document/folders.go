package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tradocs/database/repository"
	"tradocs/models"
	"tradocs/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxFolderNameLength = 100

func validFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "is required"}
	}
	if len(name) > maxFolderNameLength {
		return "", &ValidationError{Field: "name", Message: "is too long"}
	}
	return name, nil
}

func (s *DefaultDocumentService) ownedFolder(ctx context.Context, userID, id string) (*models.Folder, error) {
	f, err := s.Folders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}
	if f.UserID != userID {
		return nil, ErrFolderNotFound
	}
	return f, nil
}

func (s *DefaultDocumentService) CreateFolder(ctx context.Context, userID, name, parentID string) (*models.Folder, error) {
	name, err := validFolderName(name)
	if err != nil {
		return nil, err
	}
	if parentID != "" {
		if _, err := s.ownedFolder(ctx, userID, parentID); err != nil {
			return nil, err
		}
	}
	f := &models.Folder{ID: uuid.New().String(), UserID: userID, Name: name, ParentID: parentID}
	if err := s.Folders.Create(ctx, f); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrFolderExists
		}
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return f, nil
}

// UpdateFolder renames and/or re-parents a folder.
func (s *DefaultDocumentService) UpdateFolder(ctx context.Context, userID, id string, req FolderUpdate) (*models.Folder, error) {
	f, err := s.ownedFolder(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name, err := validFolderName(*req.Name)
		if err != nil {
			return nil, err
		}
		f.Name = name
	}
	if req.ParentID != nil && *req.ParentID != f.ParentID {
		if err := s.checkParent(ctx, userID, f.ID, *req.ParentID); err != nil {
			return nil, err
		}
		f.ParentID = *req.ParentID
	}
	if err := s.Folders.Update(ctx, f); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrFolderExists
		}
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}
	return f, nil
}

// checkParent rejects parents that are the folder itself or one of its descendants.
func (s *DefaultDocumentService) checkParent(ctx context.Context, userID, folderID, parentID string) error {
	if parentID == "" {
		return nil
	}
	folders, err := s.Folders.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load folders: %w", err)
	}
	parents := make(map[string]string, len(folders))
	for _, f := range folders {
		parents[f.ID] = f.ParentID
	}
	if _, ok := parents[parentID]; !ok {
		return ErrFolderNotFound
	}
	for cur, hops := parentID, 0; cur != ""; cur, hops = parents[cur], hops+1 {
		if cur == folderID || hops > len(folders) {
			return ErrFolderCycle
		}
	}
	return nil
}

// DeleteFolder moves the folder's documents to the root and its subfolders up one level.
func (s *DefaultDocumentService) DeleteFolder(ctx context.Context, userID, id string) error {
	f, err := s.ownedFolder(ctx, userID, id)
	if err != nil {
		return err
	}
	moved, err := s.Docs.MoveFolderToRoot(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to move documents out of folder: %w", err)
	}

	folders, err := s.Folders.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load folders: %w", err)
	}
	for i := range folders {
		child := &folders[i]
		if child.ParentID != id {
			continue
		}
		child.ParentID = f.ParentID
		if err := s.Folders.Update(ctx, child); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				child.Name = child.Name + " (" + f.Name + ")"
				err = s.Folders.Update(ctx, child)
			}
			if err != nil {
				return fmt.Errorf("failed to re-parent folder %s: %w", child.ID, err)
			}
		}
	}

	if err := s.Folders.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	utils.GetLogger().Info("Folder deleted", zap.String("folderID", id), zap.Int64("documentsMoved", moved))
	return nil
}

func (s *DefaultDocumentService) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	return s.Folders.ListByUser(ctx, userID)
}
