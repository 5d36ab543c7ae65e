package payment

import (
	"context"
	"errors"

	documentRepo "tradocs/database/repository/document"
	paymentRepo "tradocs/database/repository/payment"
	profileRepo "tradocs/database/repository/profile"
	"tradocs/models"
)

var (
	ErrNotFound         = errors.New("payment not found")
	ErrNoDocuments      = errors.New("no documents selected")
	ErrNotDraft         = errors.New("only draft documents can be paid for")
	ErrCheckoutOpen     = errors.New("a checkout for this document is already in progress")
	ErrNotRefundable    = errors.New("only completed payments can be refunded")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMissingSecret    = errors.New("webhook secret is not configured")
)

type PaymentService interface {
	CreateCheckout(ctx context.Context, userID string, docIDs []string, affiliateCode string) (*CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Refund(ctx context.Context, actorID, paymentID string) (*models.Payment, error)
	ListPayments(ctx context.Context, filter paymentRepo.PaymentFilter) ([]models.Payment, error)
	ListUserPayments(ctx context.Context, userID string) ([]models.Payment, error)
}

// DocumentHooks moves documents along when their payment changes.
type DocumentHooks interface {
	MarkPaid(ctx context.Context, docIDs []string, paymentID string) error
	CancelForPayment(ctx context.Context, docIDs []string, paymentID string) error
}

// CommissionCalculator attributes a completed payment to an affiliate,
// filling AffiliateID, AffiliateCode and Commission.
type CommissionCalculator interface {
	Attribute(ctx context.Context, p *models.Payment) error
}

type Notifier interface {
	Notify(ctx context.Context, userID, typ, title, message string, data map[string]string) (*models.Notification, error)
}

// Settings carries the Stripe and checkout configuration.
type Settings struct {
	SecretKey         string
	WebhookSecretTest string
	WebhookSecretLive string
	SuccessURL        string
	CancelURL         string
	Currency          string
}

type DefaultPaymentService struct {
	Payments   paymentRepo.PaymentRepository
	Docs       documentRepo.DocumentRepository
	Profiles   profileRepo.ProfileRepository
	Documents  DocumentHooks
	Affiliates CommissionCalculator
	Notifier   Notifier
	Gateway    Gateway
	Settings   Settings
}

// CheckoutResult is returned to the client to redirect to Stripe.
type CheckoutResult struct {
	PaymentID string `json:"paymentId"`
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}
