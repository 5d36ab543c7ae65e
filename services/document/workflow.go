package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	documentRepo "tradocs/database/repository/document"
	verificationRepo "tradocs/database/repository/verification"
	"tradocs/models"
	"tradocs/services/status"
	"tradocs/services/storage"
	"tradocs/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// allowedTransitions lists the staff-driven moves. Cancellation is handled separately.
var allowedTransitions = map[string][]string{
	models.DocumentStatusPending:    {models.DocumentStatusProcessing},
	models.DocumentStatusProcessing: {models.DocumentStatusCompleted},
}

// CanTransition reports whether a document may move from one status to another.
func CanTransition(from, to string) bool {
	if to == models.DocumentStatusCancelled {
		return from != models.DocumentStatusCompleted && from != models.DocumentStatusCancelled
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// MarkPaid moves the documents of a confirmed payment from draft to pending.
// Documents already attached to the same payment are left alone.
func (s *DefaultDocumentService) MarkPaid(ctx context.Context, docIDs []string, paymentID string) error {
	docs, err := s.Docs.List(ctx, documentRepo.DocumentFilter{IDs: docIDs})
	if err != nil {
		return fmt.Errorf("failed to load paid documents: %w", err)
	}
	var errs []error
	for i := range docs {
		doc := &docs[i]
		if doc.PaymentID == paymentID && doc.Status != models.DocumentStatusDraft {
			continue
		}
		if doc.PaymentID != "" && doc.PaymentID != paymentID {
			utils.GetLogger().Warn("MarkPaid: document already paid by another payment",
				zap.String("documentID", doc.ID), zap.String("paymentID", doc.PaymentID), zap.String("newPaymentID", paymentID))
			continue
		}
		doc.PaymentID = paymentID
		if doc.Status == models.DocumentStatusDraft {
			doc.Status = models.DocumentStatusPending
		}
		if err := s.Docs.Update(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("document %s: %w", doc.ID, err))
		}
	}
	return errors.Join(errs...)
}

// CancelForPayment cancels unfinished documents of a refunded payment.
func (s *DefaultDocumentService) CancelForPayment(ctx context.Context, docIDs []string, paymentID string) error {
	docs, err := s.Docs.List(ctx, documentRepo.DocumentFilter{IDs: docIDs})
	if err != nil {
		return fmt.Errorf("failed to load refunded documents: %w", err)
	}
	var errs []error
	for i := range docs {
		doc := &docs[i]
		if doc.PaymentID != paymentID || !CanTransition(doc.Status, models.DocumentStatusCancelled) {
			continue
		}
		doc.Status = models.DocumentStatusCancelled
		if err := s.Docs.Update(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("document %s: %w", doc.ID, err))
		}
	}
	return errors.Join(errs...)
}

// UpdateStatus applies a staff status change and tells the owner.
func (s *DefaultDocumentService) UpdateStatus(ctx context.Context, actorID, id, newStatus string) (*models.Document, error) {
	doc, err := s.Docs.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if newStatus != models.DocumentStatusCancelled && doc.PaymentID == "" {
		return nil, ErrNotPaid
	}
	if !CanTransition(doc.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, doc.Status, newStatus)
	}
	old := doc.Status
	doc.Status = newStatus
	if err := s.Docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	utils.GetLogger().Info("Document status changed",
		zap.String("documentID", id), zap.String("from", old), zap.String("to", newStatus), zap.String("actor", actorID))

	s.notify(ctx, doc.UserID, models.NotificationStatusChanged, "Document status updated",
		fmt.Sprintf("%s is now %s.", doc.Filename, newStatus),
		map[string]string{"documentId": doc.ID, "status": newStatus})
	return doc, nil
}

// SubmitTranslation stores a finished translation. Certified work goes to the
// authenticators' queue; standard work is delivered straight away.
func (s *DefaultDocumentService) SubmitTranslation(ctx context.Context, staffID, docID string, file io.Reader, filename string) (*status.Reconciled, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, &ValidationError{Field: "file", Message: "a translated file is required"}
	}
	doc, err := s.Docs.GetByID(ctx, docID)
	if err != nil {
		return nil, translate(err)
	}
	if doc.PaymentID == "" {
		return nil, ErrNotPaid
	}
	if doc.Status != models.DocumentStatusPending && doc.Status != models.DocumentStatusProcessing {
		return nil, fmt.Errorf("%w: cannot deliver a %s document", ErrInvalidTransition, doc.Status)
	}

	if doc.TranslationType == models.TranslationCertified {
		pending, err := s.Verifications.List(ctx, verificationRepo.VerificationFilter{
			UserID:   doc.UserID,
			Statuses: []string{models.VerificationPending},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check verification queue: %w", err)
		}
		for _, v := range pending {
			if v.DocumentID == doc.ID {
				return nil, ErrVerificationPending
			}
		}
	}

	key, err := s.Storage.Upload(ctx, file, storage.TranslationsFolder(doc.UserID), filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store translation: %w", err)
	}

	now := time.Now()
	if doc.TranslationType == models.TranslationCertified {
		v := &models.Verification{
			ID:                uuid.New().String(),
			DocumentID:        doc.ID,
			UserID:            doc.UserID,
			Filename:          doc.Filename,
			TranslatedFileKey: key,
			Status:            models.VerificationPending,
			CreatedAt:         now,
		}
		if err := s.Verifications.Create(ctx, v); err != nil {
			return nil, fmt.Errorf("failed to queue verification: %w", err)
		}
		doc.Status = models.DocumentStatusProcessing
		if err := s.Docs.Update(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to update document: %w", err)
		}
		if s.Notifier != nil {
			if err := s.Notifier.NotifyRole(ctx, models.RoleAuthenticator, models.NotificationVerificationRequired,
				"Translation awaiting verification",
				fmt.Sprintf("%s is ready for review.", doc.Filename),
				map[string]string{"documentId": doc.ID, "verificationId": v.ID}); err != nil {
				utils.GetLogger().Warn("SubmitTranslation: failed to notify authenticators", zap.Error(err))
			}
		}
	} else {
		t := &models.TranslatedDocument{
			ID:                 uuid.New().String(),
			OriginalDocumentID: doc.ID,
			UserID:             doc.UserID,
			Filename:           doc.Filename,
			TranslatedFileKey:  key,
			CreatedAt:          now,
		}
		if err := s.Translations.Create(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to record translation: %w", err)
		}
		doc.Status = models.DocumentStatusCompleted
		if err := s.Docs.Update(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to update document: %w", err)
		}
		s.notify(ctx, doc.UserID, models.NotificationTranslationReady, "Translation ready",
			fmt.Sprintf("The translation of %s is ready to download.", doc.Filename),
			map[string]string{"documentId": doc.ID})
	}

	utils.GetLogger().Info("Translation submitted",
		zap.String("documentID", doc.ID), zap.String("type", doc.TranslationType), zap.String("staff", staffID))
	return s.reconcileOne(ctx, *doc)
}

// CompleteFromVerification marks the document behind an approved verification
// completed. Rows without a document id are resolved by owner and filename.
// It returns nil when no document can be resolved.
func (s *DefaultDocumentService) CompleteFromVerification(ctx context.Context, v models.Verification) (*models.Document, error) {
	doc, err := s.resolve(ctx, v.DocumentID, v.UserID, v.Filename)
	if err != nil || doc == nil {
		return nil, err
	}
	if doc.Status == models.DocumentStatusCompleted || doc.Status == models.DocumentStatusCancelled {
		return doc, nil
	}
	doc.Status = models.DocumentStatusCompleted
	if err := s.Docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to complete document: %w", err)
	}
	return doc, nil
}

// resolve finds a document by id, falling back to the newest paid document with a matching owner and filename.
func (s *DefaultDocumentService) resolve(ctx context.Context, docID, userID, filename string) (*models.Document, error) {
	if docID != "" {
		doc, err := s.Docs.GetByID(ctx, docID)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(translate(err), ErrNotFound) {
			return nil, err
		}
	}
	docs, err := s.Docs.List(ctx, documentRepo.DocumentFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	want := status.NormalizeFilename(filename)
	for i := range docs {
		if docs[i].PaymentID != "" && status.NormalizeFilename(docs[i].Filename) == want {
			return &docs[i], nil
		}
	}
	return nil, nil
}
