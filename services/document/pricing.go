package document

import (
	"tradocs/models"

	"github.com/shopspring/decimal"
)

// CertifiedMultiplier scales the page price for certified translations.
var CertifiedMultiplier = decimal.NewFromFloat(1.5)

// Pricing is the per-page price list.
type Pricing struct {
	PerPage  decimal.Decimal
	Currency string
}

// NewPricing builds a price list from a per-page price in cents.
func NewPricing(perPageCents int64, currency string) Pricing {
	return Pricing{PerPage: decimal.New(perPageCents, -2), Currency: currency}
}

// Cost is pages times the page price, rounded to cents.
func (p Pricing) Cost(pages int, translationType string) decimal.Decimal {
	cost := p.PerPage.Mul(decimal.NewFromInt(int64(pages)))
	if translationType == models.TranslationCertified {
		cost = cost.Mul(CertifiedMultiplier)
	}
	return cost.Round(2)
}
