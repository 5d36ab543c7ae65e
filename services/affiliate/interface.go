package affiliate

import (
	"context"
	"errors"
	"fmt"

	paymentRepo "tradocs/database/repository/payment"
	profileRepo "tradocs/database/repository/profile"
	withdrawalRepo "tradocs/database/repository/withdrawal"
	"tradocs/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotAffiliate        = errors.New("affiliate program is not enabled for this account")
	ErrNotFound            = errors.New("withdrawal request not found")
	ErrBelowMinimum        = errors.New("amount is below the minimum withdrawal")
	ErrInsufficientBalance = errors.New("amount exceeds the available balance")
	ErrOpenRequest         = errors.New("a withdrawal request is already pending")
	ErrInvalidTransition   = errors.New("invalid withdrawal status change")
	ErrReasonRequired      = errors.New("a reason is required")
)

type AffiliateService interface {
	// Attribute fills the affiliate fields of a completed payment.
	Attribute(ctx context.Context, p *models.Payment) error
	Balance(ctx context.Context, affiliateID string) (*models.AffiliateBalance, error)

	RequestWithdrawal(ctx context.Context, affiliateID string, req WithdrawalInput) (*models.WithdrawalRequest, error)
	CancelRequest(ctx context.Context, affiliateID, id string) (*models.WithdrawalRequest, error)
	ListMine(ctx context.Context, affiliateID string) ([]models.WithdrawalRequest, error)

	ListRequests(ctx context.Context, filter withdrawalRepo.WithdrawalFilter) ([]models.WithdrawalRequest, error)
	Approve(ctx context.Context, actorID, id, notes string) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, actorID, id, reason string) (*models.WithdrawalRequest, error)
	MarkPaid(ctx context.Context, actorID, id, notes string) (*models.WithdrawalRequest, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID, typ, title, message string, data map[string]string) (*models.Notification, error)
}

type DefaultAffiliateService struct {
	Profiles       profileRepo.ProfileRepository
	Payments       paymentRepo.PaymentRepository
	Withdrawals    withdrawalRepo.WithdrawalRepository
	Notifier       Notifier
	CommissionRate decimal.Decimal
	MinWithdrawal  decimal.Decimal
}

// NewAffiliateService parses the configured rate and minimum, e.g. "0.10" and "20.00".
func NewAffiliateService(
	profiles profileRepo.ProfileRepository,
	payments paymentRepo.PaymentRepository,
	withdrawals withdrawalRepo.WithdrawalRepository,
	notifier Notifier,
	rate, minimum string,
) (*DefaultAffiliateService, error) {
	r, err := decimal.NewFromString(rate)
	if err != nil || r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid affiliate commission rate %q", rate)
	}
	m, err := decimal.NewFromString(minimum)
	if err != nil || m.IsNegative() {
		return nil, fmt.Errorf("invalid minimum withdrawal %q", minimum)
	}
	return &DefaultAffiliateService{
		Profiles:       profiles,
		Payments:       payments,
		Withdrawals:    withdrawals,
		Notifier:       notifier,
		CommissionRate: r,
		MinWithdrawal:  m,
	}, nil
}

// WithdrawalInput is the affiliate's payout request body.
type WithdrawalInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" binding:"required,oneof=bank_transfer paypal"`
	PayoutDetails string          `json:"payoutDetails" binding:"required,max=500"`
}
