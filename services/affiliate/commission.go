package affiliate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tradocs/database/repository"
	paymentRepo "tradocs/database/repository/payment"
	withdrawalRepo "tradocs/database/repository/withdrawal"
	"tradocs/models"
	"tradocs/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Commission is amount times rate, rounded half away from zero to cents.
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

// Attribute credits the affiliate named on the payment, or the one who referred
// the customer. Unknown codes and self-referrals earn nothing.
func (s *DefaultAffiliateService) Attribute(ctx context.Context, p *models.Payment) error {
	code := strings.ToUpper(strings.TrimSpace(p.AffiliateCode))
	if code == "" {
		customer, err := s.Profiles.GetByID(ctx, p.UserID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to load customer: %w", err)
		}
		if customer != nil {
			code = customer.ReferredBy
		}
	}
	p.AffiliateID = ""
	p.AffiliateCode = ""
	p.Commission = decimal.Zero
	if code == "" {
		return nil
	}

	aff, err := s.Profiles.GetByAffiliateCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.GetLogger().Info("Attribute: unknown affiliate code", zap.String("code", code), zap.String("paymentID", p.ID))
			return nil
		}
		return fmt.Errorf("failed to load affiliate: %w", err)
	}
	if aff.ID == p.UserID {
		return nil
	}
	p.AffiliateID = aff.ID
	p.AffiliateCode = code
	p.Commission = Commission(p.Amount, s.CommissionRate)
	return nil
}

// Balance totals commissions on completed payments against withdrawals.
// Pending and approved requests are reserved until they are paid or rejected.
func (s *DefaultAffiliateService) Balance(ctx context.Context, affiliateID string) (*models.AffiliateBalance, error) {
	aff, err := s.Profiles.GetByID(ctx, affiliateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotAffiliate
		}
		return nil, err
	}
	if aff.AffiliateCode == "" {
		return nil, ErrNotAffiliate
	}

	payments, err := s.Payments.List(ctx, paymentRepo.PaymentFilter{
		AffiliateID: affiliateID,
		Statuses:    []string{models.PaymentCompleted},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load commissions: %w", err)
	}
	withdrawals, err := s.Withdrawals.List(ctx, withdrawalRepo.WithdrawalFilter{AffiliateID: affiliateID})
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawals: %w", err)
	}
	referrals, err := s.Profiles.CountReferrals(ctx, aff.AffiliateCode)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	b := &models.AffiliateBalance{
		AffiliateID: affiliateID,
		Code:        aff.AffiliateCode,
		Earned:      decimal.Zero,
		PaidOut:     decimal.Zero,
		Reserved:    decimal.Zero,
		Referrals:   referrals,
	}
	for _, p := range payments {
		b.Earned = b.Earned.Add(p.Commission)
	}
	for _, w := range withdrawals {
		switch w.Status {
		case models.WithdrawalPaid:
			b.PaidOut = b.PaidOut.Add(w.Amount)
		case models.WithdrawalPending, models.WithdrawalApproved:
			b.Reserved = b.Reserved.Add(w.Amount)
		}
	}
	b.Available = b.Earned.Sub(b.PaidOut).Sub(b.Reserved)
	return b, nil
}
