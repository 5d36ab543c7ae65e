package models

import "time"

const (
	NotificationDocumentUploaded     = "document_uploaded"
	NotificationPaymentConfirmed     = "payment_confirmed"
	NotificationPaymentFailed        = "payment_failed"
	NotificationPaymentRefunded      = "payment_refunded"
	NotificationVerificationRequired = "verification_required"
	NotificationTranslationReady     = "translation_ready"
	NotificationTranslationRejected  = "translation_rejected"
	NotificationWithdrawalUpdated    = "withdrawal_updated"
	NotificationStatusChanged        = "status_changed"
)

type Notification struct {
	ID        string            `bson:"id" json:"id"`
	UserID    string            `bson:"userId" json:"userId"`
	Type      string            `bson:"type" json:"type"`
	Title     string            `bson:"title" json:"title"`
	Message   string            `bson:"message" json:"message"`
	Data      map[string]string `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool              `bson:"read" json:"read"`
	CreatedAt time.Time         `bson:"createdAt" json:"createdAt"`
	ReadAt    *time.Time        `bson:"readAt,omitempty" json:"readAt,omitempty"`
}

// PushPayload is the asynq payload of a push notification task.
type PushPayload struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}
