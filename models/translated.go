package models

import "time"

// TranslatedDocument is a finished translation delivered to the customer.
type TranslatedDocument struct {
	ID                 string     `bson:"id" json:"id"`
	OriginalDocumentID string     `bson:"originalDocumentId,omitempty" json:"originalDocumentId,omitempty"`
	UserID             string     `bson:"userId" json:"userId"`
	Filename           string     `bson:"filename" json:"filename"`
	TranslatedFileKey  string     `bson:"translatedFileKey" json:"-"`
	IsAuthenticated    bool       `bson:"isAuthenticated" json:"isAuthenticated"`
	AuthenticatedBy    string     `bson:"authenticatedBy,omitempty" json:"authenticatedBy,omitempty"`
	AuthenticatedAt    *time.Time `bson:"authenticatedAt,omitempty" json:"authenticatedAt,omitempty"`
	CreatedAt          time.Time  `bson:"createdAt" json:"createdAt"`
}
