package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalPending   = "pending"
	WithdrawalApproved  = "approved"
	WithdrawalRejected  = "rejected"
	WithdrawalPaid      = "paid"
	WithdrawalCancelled = "cancelled"
)

// WithdrawalRequest is an affiliate's request to be paid out their commission balance.
type WithdrawalRequest struct {
	ID            string          `bson:"id" json:"id"`
	AffiliateID   string          `bson:"affiliateId" json:"affiliateId"`
	Amount        decimal.Decimal `bson:"amount" json:"amount"`
	Method        string          `bson:"method" json:"method"`
	PayoutDetails string          `bson:"payoutDetails" json:"payoutDetails"`
	Status        string          `bson:"status" json:"status"`
	AdminNotes    string          `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	ProcessedBy   string          `bson:"processedBy,omitempty" json:"processedBy,omitempty"`
	RequestedAt   time.Time       `bson:"requestedAt" json:"requestedAt"`
	ProcessedAt   *time.Time      `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
}

// AffiliateBalance summarises an affiliate's commission position.
type AffiliateBalance struct {
	AffiliateID string          `json:"affiliateId"`
	Code        string          `json:"code"`
	Earned      decimal.Decimal `json:"earned"`
	PaidOut     decimal.Decimal `json:"paidOut"`
	Reserved    decimal.Decimal `json:"reserved"`
	Available   decimal.Decimal `json:"available"`
	Referrals   int             `json:"referrals"`
}
