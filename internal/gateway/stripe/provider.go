// Package stripe implements gateway.Provider with the Stripe API.
package stripe

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/xenking/storefront-checkout/internal/domain/payment"
	"github.com/xenking/storefront-checkout/internal/gateway"
)

// MetadataCouponID carries the coupon of a payment intent. Payment intents
// have no discounts field, so the coupon travels as metadata.
const MetadataCouponID = "coupon_id"

// SessionCreator creates checkout sessions.
type SessionCreator interface {
	New(params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
}

// IntentCreator creates payment intents.
type IntentCreator interface {
	New(params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
}

// Clients are the Stripe resources bound to one secret key.
type Clients struct {
	Sessions SessionCreator
	Intents  IntentCreator
}

// ClientFactory returns clients authenticated with secretKey.
type ClientFactory func(secretKey string) Clients

// NewClients is the default ClientFactory.
func NewClients(secretKey string) Clients {
	sc := client.New(secretKey, nil)
	return Clients{
		Sessions: sc.CheckoutSessions,
		Intents:  sc.PaymentIntents,
	}
}

// Provider talks to Stripe. It keeps no key of its own: every call is made
// with the secret key passed in.
type Provider struct {
	clients ClientFactory
}

var _ gateway.Provider = (*Provider)(nil)

// NewProvider creates a Provider. A nil factory uses NewClients.
func NewProvider(factory ClientFactory) *Provider {
	if factory == nil {
		factory = NewClients
	}
	return &Provider{clients: factory}
}

// CreateCheckoutSession creates a Stripe Checkout Session.
func (p *Provider) CreateCheckoutSession(ctx context.Context, secretKey string, req payment.SessionRequest) (payment.Session, error) {
	params := sessionParams(req)
	params.Context = ctx

	s, err := p.clients(secretKey).Sessions.New(params)
	if err != nil {
		return payment.Session{}, classify(err)
	}
	return payment.Session{ID: s.ID, URL: s.URL}, nil
}

// CreatePaymentIntent creates a Stripe PaymentIntent.
func (p *Provider) CreatePaymentIntent(ctx context.Context, secretKey string, req payment.IntentRequest) (payment.Intent, error) {
	params := intentParams(req)
	params.Context = ctx

	pi, err := p.clients(secretKey).Intents.New(params)
	if err != nil {
		return payment.Intent{}, classify(err)
	}
	return payment.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func sessionParams(req payment.SessionRequest) *stripeapi.CheckoutSessionParams {
	params := &stripeapi.CheckoutSessionParams{
		Mode:               stripeapi.String(req.Mode),
		SuccessURL:         stripeapi.String(req.SuccessURL),
		CancelURL:          stripeapi.String(req.CancelURL),
		PaymentMethodTypes: stripeapi.StringSlice(req.PaymentMethodTypes),
	}

	var taxRates []*string
	if len(req.TaxRateIDs) > 0 {
		taxRates = stripeapi.StringSlice(req.TaxRateIDs)
	}
	for _, li := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripeapi.CheckoutSessionLineItemParams{
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency: stripeapi.String(li.Currency.String()),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripeapi.String(li.Name),
					Description: optional(li.Description),
				},
				UnitAmount: stripeapi.Int64(li.UnitAmount),
			},
			Quantity: stripeapi.Int64(li.Quantity),
			TaxRates: taxRates,
		})
	}

	for _, c := range req.Discounts {
		params.Discounts = append(params.Discounts, &stripeapi.CheckoutSessionDiscountParams{
			Coupon: stripeapi.String(c.ID),
		})
	}

	if req.TaxBlocks || req.TaxIDCollection || req.AutomaticTax {
		params.TaxIDCollection = &stripeapi.CheckoutSessionTaxIDCollectionParams{
			Enabled: stripeapi.Bool(req.TaxIDCollection),
		}
		params.AutomaticTax = &stripeapi.CheckoutSessionAutomaticTaxParams{
			Enabled: stripeapi.Bool(req.AutomaticTax),
		}
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func intentParams(req payment.IntentRequest) *stripeapi.PaymentIntentParams {
	params := &stripeapi.PaymentIntentParams{
		Amount:      stripeapi.Int64(req.Amount),
		Currency:    stripeapi.String(req.Currency.String()),
		Description: optional(req.Description),
	}
	if req.AutomaticPaymentMethods {
		params.AutomaticPaymentMethods = &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if len(req.Discounts) > 0 {
		params.AddMetadata(MetadataCouponID, req.Discounts[0].ID)
	}
	return params
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return stripeapi.String(s)
}

// classify turns client errors reported by Stripe into rejections. Auth,
// permission and rate-limit failures are our problem, not the customer's,
// and stay internal.
func classify(err error) error {
	var se *stripeapi.Error
	if !errors.As(err, &se) {
		return errors.Wrap(err, "stripe")
	}
	switch se.HTTPStatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return errors.Wrapf(err, "stripe %d", se.HTTPStatusCode)
	}
	if se.HTTPStatusCode < 400 || se.HTTPStatusCode >= 500 {
		return errors.Wrap(err, "stripe")
	}
	msg := se.Msg
	if msg == "" {
		msg = "payment was rejected by the provider"
	}
	return &payment.RejectedError{
		Message: msg,
		Code:    string(se.Code),
		Status:  se.HTTPStatusCode,
	}
}
