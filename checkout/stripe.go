package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// stripeCreator backs SessionCreator with Stripe's hosted checkout. The
// stripe-go client reads its API key from the package-level stripe.Key set
// at startup.
type stripeCreator struct{}

func NewStripeCreator() SessionCreator {
	return stripeCreator{}
}

func (stripeCreator) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return session.New(params)
}
