package handlers

import (
	"time"

	"tradocs/services/account"
	"tradocs/services/admin"
	"tradocs/services/affiliate"
	"tradocs/services/authenticator"
	"tradocs/services/document"
	"tradocs/services/finance"
	"tradocs/services/notification"
	"tradocs/services/payment"
)

// HandlerBundle groups the services every endpoint handler works with.
type HandlerBundle struct {
	Accounts       account.AccountService
	Documents      document.DocumentService
	Payments       payment.PaymentService
	Notifications  notification.NotificationService
	Affiliates     affiliate.AffiliateService
	Authenticators authenticator.AuthenticatorService
	Finance        finance.FinanceService
	Admin          admin.AdminService

	// Location resolves date range presets. Defaults to UTC.
	Location *time.Location
	// Now is overridable in tests.
	Now func() time.Time
}

func (h *HandlerBundle) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

func (h *HandlerBundle) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
