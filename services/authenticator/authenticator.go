package authenticator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradocs/database/repository"
	documentRepo "tradocs/database/repository/document"
	translatedRepo "tradocs/database/repository/translated"
	verificationRepo "tradocs/database/repository/verification"
	"tradocs/models"
	"tradocs/services/daterange"
	"tradocs/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("verification not found")
	ErrNotPending     = errors.New("verification has already been reviewed")
	ErrReasonRequired = errors.New("a rejection reason is required")
	ErrInvalidStatus  = errors.New("invalid verification status")
)

type AuthenticatorService interface {
	ListQueue(ctx context.Context, status string) ([]QueueItem, error)
	Approve(ctx context.Context, authenticatorID, verificationID string) (*models.Verification, error)
	Reject(ctx context.Context, authenticatorID, verificationID, reason string) (*models.Verification, error)
	Stats(ctx context.Context, authenticatorID string, r daterange.Range) (*ReviewStats, error)
}

// DocumentCompleter closes the document behind an approved verification.
type DocumentCompleter interface {
	CompleteFromVerification(ctx context.Context, v models.Verification) (*models.Document, error)
}

// Notifier is the part of the notification service reviews need.
type Notifier interface {
	Notify(ctx context.Context, userID, typ, title, message string, data map[string]string) (*models.Notification, error)
	NotifyRole(ctx context.Context, role, typ, title, message string, data map[string]string) error
}

type DefaultAuthenticatorService struct {
	Verifications verificationRepo.VerificationRepository
	Translations  translatedRepo.TranslatedRepository
	Docs          documentRepo.DocumentRepository
	Documents     DocumentCompleter
	Notifier      Notifier
}

// QueueItem is a verification row with the document it refers to, when known.
type QueueItem struct {
	models.Verification
	Document *models.Document `json:"document,omitempty"`
}

// ReviewStats summarises an authenticator's reviews over a period.
type ReviewStats struct {
	Approved             int     `json:"approved"`
	Rejected             int     `json:"rejected"`
	Reviewed             int     `json:"reviewed"`
	PendingQueue         int     `json:"pendingQueue"`
	AverageTurnaroundHrs float64 `json:"averageTurnaroundHours"`
}

// ListQueue lists verification rows oldest first. An empty status means pending.
func (s *DefaultAuthenticatorService) ListQueue(ctx context.Context, status string) ([]QueueItem, error) {
	if status == "" {
		status = models.VerificationPending
	}
	if status != models.VerificationPending && status != models.VerificationApproved && status != models.VerificationRejected {
		return nil, ErrInvalidStatus
	}
	rows, err := s.Verifications.List(ctx, verificationRepo.VerificationFilter{Statuses: []string{status}})
	if err != nil {
		return nil, fmt.Errorf("failed to list verification queue: %w", err)
	}

	var ids []string
	for _, v := range rows {
		if v.DocumentID != "" {
			ids = append(ids, v.DocumentID)
		}
	}
	docsByID := map[string]models.Document{}
	if len(ids) > 0 && s.Docs != nil {
		docs, err := s.Docs.List(ctx, documentRepo.DocumentFilter{IDs: ids})
		if err != nil {
			return nil, fmt.Errorf("failed to load queued documents: %w", err)
		}
		for _, d := range docs {
			docsByID[d.ID] = d
		}
	}

	items := make([]QueueItem, 0, len(rows))
	for _, v := range rows {
		item := QueueItem{Verification: v}
		if d, ok := docsByID[v.DocumentID]; ok {
			item.Document = &d
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *DefaultAuthenticatorService) pending(ctx context.Context, id string) (*models.Verification, error) {
	v, err := s.Verifications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if v.Status != models.VerificationPending {
		return nil, ErrNotPending
	}
	return v, nil
}

// Approve accepts a pending translation and delivers it to the customer.
func (s *DefaultAuthenticatorService) Approve(ctx context.Context, authenticatorID, verificationID string) (*models.Verification, error) {
	v, err := s.pending(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	originalID := v.DocumentID
	if s.Documents != nil {
		doc, err := s.Documents.CompleteFromVerification(ctx, *v)
		if err != nil {
			return nil, fmt.Errorf("failed to complete document: %w", err)
		}
		if doc != nil {
			originalID = doc.ID
		} else {
			utils.GetLogger().Warn("Approve: no document matches verification",
				zap.String("verificationID", v.ID), zap.String("userID", v.UserID), zap.String("filename", v.Filename))
		}
	}

	now := time.Now()
	translated := &models.TranslatedDocument{
		ID:                 uuid.New().String(),
		OriginalDocumentID: originalID,
		UserID:             v.UserID,
		Filename:           v.Filename,
		TranslatedFileKey:  v.TranslatedFileKey,
		IsAuthenticated:    true,
		AuthenticatedBy:    authenticatorID,
		AuthenticatedAt:    &now,
		CreatedAt:          now,
	}
	if err := s.Translations.Create(ctx, translated); err != nil {
		return nil, fmt.Errorf("failed to record authenticated translation: %w", err)
	}

	v.Status = models.VerificationApproved
	v.AuthenticatorID = authenticatorID
	v.ReviewedAt = &now
	if v.DocumentID == "" {
		v.DocumentID = originalID
	}
	if err := s.Verifications.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to approve verification: %w", err)
	}

	utils.GetLogger().Info("Verification approved", zap.String("verificationID", v.ID), zap.String("authenticator", authenticatorID))
	s.notify(ctx, v.UserID, models.NotificationTranslationReady, "Certified translation ready",
		fmt.Sprintf("The certified translation of %s has been approved and is ready to download.", v.Filename),
		map[string]string{"documentId": originalID, "verificationId": v.ID})
	return v, nil
}

// Reject sends a pending translation back with a reason.
func (s *DefaultAuthenticatorService) Reject(ctx context.Context, authenticatorID, verificationID, reason string) (*models.Verification, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	v, err := s.pending(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	v.Status = models.VerificationRejected
	v.AuthenticatorID = authenticatorID
	v.RejectionReason = reason
	v.ReviewedAt = &now
	if err := s.Verifications.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to reject verification: %w", err)
	}

	utils.GetLogger().Info("Verification rejected", zap.String("verificationID", v.ID), zap.String("authenticator", authenticatorID))
	data := map[string]string{"documentId": v.DocumentID, "verificationId": v.ID}
	s.notify(ctx, v.UserID, models.NotificationTranslationRejected, "Translation needs revision",
		fmt.Sprintf("The translation of %s was sent back for revision: %s", v.Filename, reason), data)
	if s.Notifier != nil {
		if err := s.Notifier.NotifyRole(ctx, models.RoleAdmin, models.NotificationTranslationRejected, "Translation rejected",
			fmt.Sprintf("%s was rejected: %s", v.Filename, reason), data); err != nil {
			utils.GetLogger().Warn("Reject: failed to notify admins", zap.Error(err))
		}
	}
	return v, nil
}

// Stats counts the reviews authenticatorID completed inside r. An empty id covers everyone.
func (s *DefaultAuthenticatorService) Stats(ctx context.Context, authenticatorID string, r daterange.Range) (*ReviewStats, error) {
	reviewed, err := s.Verifications.List(ctx, verificationRepo.VerificationFilter{
		AuthenticatorID: authenticatorID,
		Statuses:        []string{models.VerificationApproved, models.VerificationRejected},
		ReviewedFrom:    r.Start,
		ReviewedTo:      r.End,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	queue, err := s.Verifications.List(ctx, verificationRepo.VerificationFilter{Statuses: []string{models.VerificationPending}})
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	stats := &ReviewStats{PendingQueue: len(queue)}
	var turnaround time.Duration
	for _, v := range reviewed {
		switch v.Status {
		case models.VerificationApproved:
			stats.Approved++
		case models.VerificationRejected:
			stats.Rejected++
		}
		if v.ReviewedAt != nil {
			turnaround += v.ReviewedAt.Sub(v.CreatedAt)
		}
	}
	stats.Reviewed = stats.Approved + stats.Rejected
	if stats.Reviewed > 0 {
		stats.AverageTurnaroundHrs = turnaround.Hours() / float64(stats.Reviewed)
	}
	return stats, nil
}

func (s *DefaultAuthenticatorService) notify(ctx context.Context, userID, typ, title, message string, data map[string]string) {
	if s.Notifier == nil {
		return
	}
	if _, err := s.Notifier.Notify(ctx, userID, typ, title, message, data); err != nil {
		utils.GetLogger().Warn("failed to notify", zap.String("userID", userID), zap.Error(err))
	}
}
