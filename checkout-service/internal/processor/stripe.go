package processor

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
)

// StripeProcessor creates Stripe Checkout sessions. The secret key is checked
// on every call, so a service started without one still answers requests.
type StripeProcessor struct {
	secretKey string
	backend   stripe.Backend
}

// NewStripeProcessor uses the default Stripe API backend when backend is nil.
func NewStripeProcessor(secretKey string, backend stripe.Backend) *StripeProcessor {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeProcessor{
		secretKey: secretKey,
		backend:   backend,
	}
}

func (p *StripeProcessor) CreateSession(ctx context.Context, params *SessionParams) (*Session, error) {
	if p.secretKey == "" {
		return nil, ErrNotConfigured
	}

	client := session.Client{B: p.backend, Key: p.secretKey}
	s, err := client.New(buildSessionParams(ctx, params))
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	if s.URL == "" {
		return nil, ErrNoSessionURL
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

func buildSessionParams(ctx context.Context, p *SessionParams) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems))
	for _, item := range p.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			product.Description = stripe.String(item.Description)
		}
		if item.Image != "" {
			product.Images = []*string{stripe.String(item.Image)}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(p.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: product,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(p.AllowedCountries),
		},
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{
			{
				ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
					Type: stripe.String("fixed_amount"),
					FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
						Amount:   stripe.Int64(p.Shipping.Amount),
						Currency: stripe.String(p.Currency),
					},
					DisplayName: stripe.String(p.Shipping.DisplayName),
					DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
						Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
							Unit:  stripe.String("business_day"),
							Value: stripe.Int64(p.Shipping.MinBusinessDays),
						},
						Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
							Unit:  stripe.String("business_day"),
							Value: stripe.Int64(p.Shipping.MaxBusinessDays),
						},
					},
				},
			},
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}
