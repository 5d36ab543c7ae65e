package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	documentRepo "tradocs/database/repository/document"
	notificationRepo "tradocs/database/repository/notification"
	paymentRepo "tradocs/database/repository/payment"
	"tradocs/models"
	"tradocs/services/storage"
	"tradocs/utils"

	"go.uber.org/zap"
)

type CleanupService interface {
	PurgeStaleDrafts(ctx context.Context, now time.Time) (int, error)
	PurgeOldNotifications(ctx context.Context, now time.Time) (int64, error)
	ExpireStalePayments(ctx context.Context, now time.Time) (int, error)
	RunAll(ctx context.Context, now time.Time) (Result, error)
}

type DefaultCleanupService struct {
	Docs                  documentRepo.DocumentRepository
	Payments              paymentRepo.PaymentRepository
	Notifications         notificationRepo.NotificationRepository
	Storage               storage.StorageService
	DraftRetention        time.Duration
	NotificationRetention time.Duration
}

// NewCleanupService takes retention periods in days.
func NewCleanupService(
	docs documentRepo.DocumentRepository,
	payments paymentRepo.PaymentRepository,
	notifications notificationRepo.NotificationRepository,
	store storage.StorageService,
	draftDays, notificationDays int,
) *DefaultCleanupService {
	return &DefaultCleanupService{
		Docs:                  docs,
		Payments:              payments,
		Notifications:         notifications,
		Storage:               store,
		DraftRetention:        time.Duration(draftDays) * 24 * time.Hour,
		NotificationRetention: time.Duration(notificationDays) * 24 * time.Hour,
	}
}

// Result counts what a cleanup run removed or expired.
type Result struct {
	Drafts        int   `json:"drafts"`
	Notifications int64 `json:"notifications"`
	Payments      int   `json:"payments"`
}

// PurgeStaleDrafts deletes unpaid drafts older than the retention period with
// their files. Drafts in a checkout that can still complete are kept.
func (s *DefaultCleanupService) PurgeStaleDrafts(ctx context.Context, now time.Time) (int, error) {
	if s.DraftRetention <= 0 {
		return 0, nil
	}
	drafts, err := s.Docs.ListStaleDrafts(ctx, now.Add(-s.DraftRetention))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale drafts: %w", err)
	}
	inCheckout, err := s.openCheckoutDocs(ctx, drafts, now)
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, d := range drafts {
		if inCheckout[d.ID] {
			continue
		}
		if d.StorageKey != "" && s.Storage != nil {
			if err := s.Storage.Delete(ctx, d.StorageKey); err != nil {
				utils.GetLogger().Warn("PurgeStaleDrafts: failed to delete file",
					zap.String("documentID", d.ID), zap.String("key", d.StorageKey), zap.Error(err))
			}
		}
		if err := s.Docs.Delete(ctx, d.ID); err != nil {
			errs = append(errs, fmt.Errorf("document %s: %w", d.ID, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (s *DefaultCleanupService) openCheckoutDocs(ctx context.Context, drafts []models.Document, now time.Time) (map[string]bool, error) {
	out := map[string]bool{}
	if s.Payments == nil || len(drafts) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(drafts))
	for _, d := range drafts {
		ids = append(ids, d.ID)
	}
	pending, err := s.Payments.List(ctx, paymentRepo.PaymentFilter{
		DocumentIDs: ids,
		Statuses:    []string{models.PaymentPending},
		From:        now.Add(-models.CheckoutTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check open checkouts: %w", err)
	}
	for i := range pending {
		if !pending[i].IsOpenCheckout(now) {
			continue
		}
		for _, id := range pending[i].DocumentIDs {
			out[id] = true
		}
	}
	return out, nil
}

// PurgeOldNotifications deletes read notifications older than the retention period.
func (s *DefaultCleanupService) PurgeOldNotifications(ctx context.Context, now time.Time) (int64, error) {
	if s.NotificationRetention <= 0 {
		return 0, nil
	}
	n, err := s.Notifications.DeleteReadBefore(ctx, now.Add(-s.NotificationRetention))
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return n, nil
}

// ExpireStalePayments fails checkouts left pending for longer than models.CheckoutTTL.
func (s *DefaultCleanupService) ExpireStalePayments(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.Payments.ListStalePending(ctx, now.Add(-models.CheckoutTTL))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale payments: %w", err)
	}
	expired := 0
	var errs []error
	for i := range stale {
		p := &stale[i]
		p.Status = models.PaymentFailed
		p.FailureReason = "checkout not completed within 24 hours"
		if err := s.Payments.Update(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("payment %s: %w", p.ID, err))
			continue
		}
		expired++
	}
	return expired, errors.Join(errs...)
}

// RunAll runs every job, continuing past failures.
func (s *DefaultCleanupService) RunAll(ctx context.Context, now time.Time) (Result, error) {
	var (
		res  Result
		errs []error
		err  error
	)
	if res.Drafts, err = s.PurgeStaleDrafts(ctx, now); err != nil {
		errs = append(errs, err)
	}
	if res.Notifications, err = s.PurgeOldNotifications(ctx, now); err != nil {
		errs = append(errs, err)
	}
	if res.Payments, err = s.ExpireStalePayments(ctx, now); err != nil {
		errs = append(errs, err)
	}
	utils.GetLogger().Info("Cleanup finished",
		zap.Int("drafts", res.Drafts), zap.Int64("notifications", res.Notifications), zap.Int("payments", res.Payments))
	return res, errors.Join(errs...)
}
