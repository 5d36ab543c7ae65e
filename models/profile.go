// models/profile.go
package models

import "time"

const (
	RoleCustomer      = "customer"
	RoleAuthenticator = "authenticator"
	RoleAdmin         = "admin"
	RoleFinance       = "finance"
)

// Roles lists every role a profile may hold.
var Roles = []string{RoleCustomer, RoleAuthenticator, RoleAdmin, RoleFinance}

// IsValidRole reports whether role is one of Roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Profile is an account on the platform. Customers, staff and affiliates all share this record.
type Profile struct {
	ID            string    `bson:"id" json:"id"`
	Email         string    `bson:"email" json:"email"`
	FullName      string    `bson:"fullName" json:"fullName"`
	Phone         string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Role          string    `bson:"role" json:"role"`
	PasswordHash  string    `bson:"passwordHash" json:"-"`
	TokenHash     string    `bson:"tokenHash" json:"-"`
	FCMToken      string    `bson:"fcmToken" json:"-"`
	AffiliateCode string    `bson:"affiliateCode,omitempty" json:"affiliateCode,omitempty"`
	ReferredBy    string    `bson:"referredBy,omitempty" json:"referredBy,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsStaff reports whether the profile belongs to an employee role.
func (p *Profile) IsStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleAuthenticator || p.Role == RoleFinance
}
