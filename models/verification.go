package models

import "time"

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Verification is a translated document waiting for an authenticator's review
// (the documents_to_be_verified collection). DocumentID may be empty for rows
// created before documents were linked by id; those are matched by user and filename.
type Verification struct {
	ID                string     `bson:"id" json:"id"`
	DocumentID        string     `bson:"documentId,omitempty" json:"documentId,omitempty"`
	UserID            string     `bson:"userId" json:"userId"`
	Filename          string     `bson:"filename" json:"filename"`
	TranslatedFileKey string     `bson:"translatedFileKey" json:"-"`
	Status            string     `bson:"status" json:"status"`
	AuthenticatorID   string     `bson:"authenticatorId,omitempty" json:"authenticatorId,omitempty"`
	RejectionReason   string     `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	ReviewedAt        *time.Time `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
}

// LastActivity is the review time when set, otherwise the creation time.
func (v *Verification) LastActivity() time.Time {
	if v.ReviewedAt != nil {
		return *v.ReviewedAt
	}
	return v.CreatedAt
}
