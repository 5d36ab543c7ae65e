package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentRepo "tradocs/database/repository/document"
	verificationRepo "tradocs/database/repository/verification"
	"tradocs/models"
	"tradocs/services/status"
)

const downloadURLTTL = 15 * time.Minute

// List returns reconciled documents. Customers only ever see their own;
// staff see everyone's unless q.UserID narrows it.
func (s *DefaultDocumentService) List(ctx context.Context, actor Actor, q ListQuery) ([]status.Reconciled, error) {
	userID := q.UserID
	if !actor.IsStaff() {
		userID = actor.UserID
	}

	filter := documentRepo.DocumentFilter{
		UserID:   userID,
		FolderID: q.FolderID,
		From:     q.Range.Start,
		To:       q.Range.End,
		Search:   strings.TrimSpace(q.Search),
	}
	docs, err := s.Docs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return []status.Reconciled{}, nil
	}

	idx, err := s.sideIndex(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows := make([]status.Reconciled, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, idx.Reconcile(d))
	}
	return status.Filter(rows, q.Statuses...), nil
}

// sideIndex loads the verification and translation rows for userID, or all of them when empty.
func (s *DefaultDocumentService) sideIndex(ctx context.Context, userID string) (*status.Index, error) {
	verifs, err := s.Verifications.List(ctx, verificationRepo.VerificationFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load verifications: %w", err)
	}
	trans, err := s.Translations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}
	return status.NewIndex(verifs, trans), nil
}

func (s *DefaultDocumentService) reconcileOne(ctx context.Context, doc models.Document) (*status.Reconciled, error) {
	idx, err := s.sideIndex(ctx, doc.UserID)
	if err != nil {
		return nil, err
	}
	r := idx.Reconcile(doc)
	return &r, nil
}

func (s *DefaultDocumentService) Get(ctx context.Context, actor Actor, id string) (*status.Reconciled, error) {
	doc, err := s.accessible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.reconcileOne(ctx, *doc)
}

// DownloadURL signs a link to the original or, when translated is set, the delivered translation.
func (s *DefaultDocumentService) DownloadURL(ctx context.Context, actor Actor, id string, translated bool) (string, error) {
	doc, err := s.accessible(ctx, actor, id)
	if err != nil {
		return "", err
	}
	key := doc.StorageKey
	if translated {
		r, err := s.reconcileOne(ctx, *doc)
		if err != nil {
			return "", err
		}
		key = r.TranslatedFileKey
		// staff may fetch a file still under review
		if key == "" && actor.IsStaff() && r.Verification != nil {
			key = r.Verification.TranslatedFileKey
		}
		if key == "" {
			return "", ErrNoTranslation
		}
	}
	if key == "" {
		return "", ErrNotFound
	}
	url, err := s.Storage.SignedURL(ctx, key, downloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign download url: %w", err)
	}
	return url, nil
}
