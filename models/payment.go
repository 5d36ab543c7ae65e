package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// CheckoutTTL is how long a checkout may stay pending. Stripe sessions are
// opened with a matching expiry and cleanup fails anything older.
const CheckoutTTL = 24 * time.Hour

// Payment is one checkout session covering one or more documents.
type Payment struct {
	ID                    string          `bson:"id" json:"id"`
	UserID                string          `bson:"userId" json:"userId"`
	DocumentIDs           []string        `bson:"documentIds" json:"documentIds"`
	StripeSessionID       string          `bson:"stripeSessionId" json:"stripeSessionId"`
	StripePaymentIntentID string          `bson:"stripePaymentIntentId,omitempty" json:"stripePaymentIntentId,omitempty"`
	Amount                decimal.Decimal `bson:"amount" json:"amount"`
	Currency              string          `bson:"currency" json:"currency"`
	Status                string          `bson:"status" json:"status"`
	AffiliateCode         string          `bson:"affiliateCode,omitempty" json:"affiliateCode,omitempty"`
	AffiliateID           string          `bson:"affiliateId,omitempty" json:"affiliateId,omitempty"`
	Commission            decimal.Decimal `bson:"commission" json:"commission"`
	Livemode              bool            `bson:"livemode" json:"livemode"`
	FailureReason         string          `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	CreatedAt             time.Time       `bson:"createdAt" json:"createdAt"`
	PaidAt                *time.Time      `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	RefundedAt            *time.Time      `bson:"refundedAt,omitempty" json:"refundedAt,omitempty"`

	// ConflictingDocumentIDs lists documents that another payment had already
	// covered when this one completed. A non-empty list needs finance review.
	ConflictingDocumentIDs []string `bson:"conflictingDocumentIds,omitempty" json:"conflictingDocumentIds,omitempty"`
}

// IsOpenCheckout reports whether the payment is a pending checkout that can still complete.
func (p *Payment) IsOpenCheckout(now time.Time) bool {
	return p.Status == PaymentPending && now.Sub(p.CreatedAt) < CheckoutTTL
}

// EffectiveTime is when the payment counts for reporting: paid time when set, else creation.
func (p *Payment) EffectiveTime() time.Time {
	if p.PaidAt != nil {
		return *p.PaidAt
	}
	return p.CreatedAt
}
