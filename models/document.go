package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DocumentStatusDraft      = "draft"
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusCancelled  = "cancelled"
)

const (
	TranslationCertified = "certified"
	TranslationStandard  = "standard"
)

// Document is a file uploaded by a customer for translation.
// A document without a PaymentID is a draft.
type Document struct {
	ID              string          `bson:"id" json:"id"`
	UserID          string          `bson:"userId" json:"userId"`
	FolderID        string          `bson:"folderId" json:"folderId,omitempty"`
	Filename        string          `bson:"filename" json:"filename"`
	StorageKey      string          `bson:"storageKey" json:"-"`
	ContentType     string          `bson:"contentType" json:"contentType"`
	SizeBytes       int64           `bson:"sizeBytes" json:"sizeBytes"`
	Pages           int             `bson:"pages" json:"pages"`
	SourceLanguage  string          `bson:"sourceLanguage" json:"sourceLanguage"`
	TargetLanguage  string          `bson:"targetLanguage" json:"targetLanguage"`
	TranslationType string          `bson:"translationType" json:"translationType"`
	Status          string          `bson:"status" json:"status"`
	PaymentID       string          `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	TotalCost       decimal.Decimal `bson:"totalCost" json:"totalCost"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// IsDraft reports whether the document is not yet backed by a confirmed payment.
func (d *Document) IsDraft() bool {
	return d.PaymentID == "" && (d.Status == DocumentStatusDraft || d.Status == DocumentStatusPending)
}
