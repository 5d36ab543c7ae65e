package admin

import (
	"time"

	"tradocs/models"
)

// GetLegalSections returns all published policies.
func (a *DefaultAdminService) GetLegalSections() []models.LegalSection {
	now := time.Now().UTC().Format(time.RFC3339)

	return []models.LegalSection{
		{
			ID:       "tos",
			Title:    "Terms of Service",
			Summary:  "The terms that apply when you order a translation.",
			Content:  termsOfService(),
			Audience: models.LegalAudienceCustomers,
			Version:  "v1.0",
			Updated:  now,
		},
		{
			ID:       "privacy",
			Title:    "Privacy Policy",
			Summary:  "How uploaded documents and account data are stored and used.",
			Content:  privacyPolicy(),
			Audience: models.LegalAudienceEveryone,
			Version:  "v1.0",
			Updated:  now,
		},
		{
			ID:       "refunds",
			Title:    "Payment & Refund Policy",
			Summary:  "When you are charged and when a refund is possible.",
			Content:  refundPolicy(),
			Audience: models.LegalAudienceCustomers,
			Version:  "v1.0",
			Updated:  now,
		},
		{
			ID:       "certification",
			Title:    "Certified Translation Standards",
			Summary:  "What authenticators check before a certified translation is released.",
			Content:  certificationStandards(),
			Audience: models.LegalAudienceStaff,
			Version:  "v1.0",
			Updated:  now,
		},
	}
}

// GetLegalSectionsFor returns the policies relevant to a role.
func (a *DefaultAdminService) GetLegalSectionsFor(role string) []models.LegalSection {
	audience := models.LegalAudienceCustomers
	if role == models.RoleAdmin || role == models.RoleAuthenticator || role == models.RoleFinance {
		audience = models.LegalAudienceStaff
	}
	var filtered []models.LegalSection
	for _, section := range a.GetLegalSections() {
		if section.Audience == models.LegalAudienceEveryone || section.Audience == audience || role == models.RoleAdmin {
			filtered = append(filtered, section)
		}
	}
	return filtered
}

func termsOfService() string {
	return `By uploading a document you confirm you have the right to have it translated.

1. Quotes: The price is calculated per page and shown before checkout.
2. Delivery: Standard translations are delivered once complete. Certified translations are released after review by an authenticator.
3. Accuracy: Report any error within 14 days of delivery and we will correct it free of charge.
4. Drafts: Unpaid drafts are deleted automatically after 30 days.`
}

func privacyPolicy() string {
	return `We store the files you upload only to translate them.

1. Data we collect: name, email, uploaded files and payment references.
2. Access: files are visible to you and to the staff working on your order.
3. Payments: card details are handled by Stripe and never reach our servers.
4. Deletion: you may delete drafts at any time and request deletion of your account.`
}

func refundPolicy() string {
	return `1. You are charged when you complete checkout.
2. Orders not yet delivered can be refunded on request; the documents are then cancelled.
3. Delivered translations are not refundable but will be corrected if inaccurate.
4. Affiliate commissions on refunded orders are withdrawn.`
}

func certificationStandards() string {
	return `Before approving a certified translation, check that:

- the translation is complete and matches the source page by page;
- names, dates and numbers match the source exactly;
- stamps and seals are described;
- the certification statement is attached.

Reject with a clear reason when any item fails.`
}
