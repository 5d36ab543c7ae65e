package payment

import (
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
)

// Gateway is the slice of the Stripe API the service calls.
type Gateway interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewRefund(params *stripe.RefundParams) (*stripe.Refund, error)
	ExpireCheckoutSession(id string) (*stripe.CheckoutSession, error)
}

// StripeGateway calls Stripe with the process-wide stripe.Key.
type StripeGateway struct{}

func (StripeGateway) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

func (StripeGateway) ExpireCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	return session.Expire(id, &stripe.CheckoutSessionExpireParams{})
}

func (StripeGateway) NewRefund(params *stripe.RefundParams) (*stripe.Refund, error) {
	return refund.New(params)
}
