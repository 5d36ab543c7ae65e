package affiliate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradocs/database/repository"
	withdrawalRepo "tradocs/database/repository/withdrawal"
	"tradocs/models"
	"tradocs/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var transitions = map[string][]string{
	models.WithdrawalPending:  {models.WithdrawalApproved, models.WithdrawalRejected, models.WithdrawalCancelled},
	models.WithdrawalApproved: {models.WithdrawalPaid, models.WithdrawalRejected},
}

func canMove(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RequestWithdrawal reserves part of the available balance for payout.
func (s *DefaultAffiliateService) RequestWithdrawal(ctx context.Context, affiliateID string, req WithdrawalInput) (*models.WithdrawalRequest, error) {
	amount := req.Amount.Round(2)
	if !amount.IsPositive() || amount.LessThan(s.MinWithdrawal) {
		return nil, fmt.Errorf("%w of %s", ErrBelowMinimum, s.MinWithdrawal.StringFixed(2))
	}
	balance, err := s.Balance(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	open, err := s.Withdrawals.List(ctx, withdrawalRepo.WithdrawalFilter{
		AffiliateID: affiliateID,
		Statuses:    []string{models.WithdrawalPending},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check open requests: %w", err)
	}
	if len(open) > 0 {
		return nil, ErrOpenRequest
	}
	if amount.GreaterThan(balance.Available) {
		return nil, fmt.Errorf("%w (%s available)", ErrInsufficientBalance, balance.Available.StringFixed(2))
	}

	w := &models.WithdrawalRequest{
		ID:            uuid.New().String(),
		AffiliateID:   affiliateID,
		Amount:        amount,
		Method:        strings.TrimSpace(req.Method),
		PayoutDetails: strings.TrimSpace(req.PayoutDetails),
		Status:        models.WithdrawalPending,
		RequestedAt:   time.Now(),
	}
	if err := s.Withdrawals.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	utils.GetLogger().Info("Withdrawal requested", zap.String("affiliateID", affiliateID), zap.String("amount", amount.StringFixed(2)))
	return w, nil
}

func (s *DefaultAffiliateService) CancelRequest(ctx context.Context, affiliateID, id string) (*models.WithdrawalRequest, error) {
	w, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.AffiliateID != affiliateID {
		return nil, ErrNotFound
	}
	return s.move(ctx, w, models.WithdrawalCancelled, affiliateID, "")
}

func (s *DefaultAffiliateService) ListMine(ctx context.Context, affiliateID string) ([]models.WithdrawalRequest, error) {
	return s.Withdrawals.List(ctx, withdrawalRepo.WithdrawalFilter{AffiliateID: affiliateID})
}

func (s *DefaultAffiliateService) ListRequests(ctx context.Context, filter withdrawalRepo.WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	return s.Withdrawals.List(ctx, filter)
}

func (s *DefaultAffiliateService) Approve(ctx context.Context, actorID, id, notes string) (*models.WithdrawalRequest, error) {
	w, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, w, models.WithdrawalApproved, actorID, notes)
}

func (s *DefaultAffiliateService) Reject(ctx context.Context, actorID, id, reason string) (*models.WithdrawalRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	w, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, w, models.WithdrawalRejected, actorID, reason)
}

func (s *DefaultAffiliateService) MarkPaid(ctx context.Context, actorID, id, notes string) (*models.WithdrawalRequest, error) {
	w, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, w, models.WithdrawalPaid, actorID, notes)
}

func (s *DefaultAffiliateService) get(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	w, err := s.Withdrawals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *DefaultAffiliateService) move(ctx context.Context, w *models.WithdrawalRequest, to, actorID, notes string) (*models.WithdrawalRequest, error) {
	if !canMove(w.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, w.Status, to)
	}
	now := time.Now()
	w.Status = to
	w.ProcessedBy = actorID
	w.ProcessedAt = &now
	if notes = strings.TrimSpace(notes); notes != "" {
		w.AdminNotes = notes
	}
	if err := s.Withdrawals.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	utils.GetLogger().Info("Withdrawal request updated",
		zap.String("withdrawalID", w.ID), zap.String("status", to), zap.String("actor", actorID))

	if to != models.WithdrawalCancelled && s.Notifier != nil {
		msg := fmt.Sprintf("Your withdrawal request for %s is now %s.", w.Amount.StringFixed(2), to)
		if to == models.WithdrawalRejected {
			msg += " Reason: " + w.AdminNotes
		}
		if _, err := s.Notifier.Notify(ctx, w.AffiliateID, models.NotificationWithdrawalUpdated, "Withdrawal update", msg,
			map[string]string{"withdrawalId": w.ID, "status": to}); err != nil {
			utils.GetLogger().Warn("failed to notify affiliate", zap.String("affiliateID", w.AffiliateID), zap.Error(err))
		}
	}
	return w, nil
}
