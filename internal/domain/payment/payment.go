// Package payment defines provider-agnostic payment requests, their results
// and the error classes a payment gateway may return.
package payment

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-checkout/internal/domain/money"
)

// ModePayment is the only checkout session mode used: a one-off charge.
const ModePayment = "payment"

// PaymentMethodCard restricts hosted checkout to card payments.
const PaymentMethodCard = "card"

// Metadata keys attached to provider objects.
const (
	MetadataItemID  = "item_id"
	MetadataOrderID = "order_id"
)

// ErrInvalidRequest is wrapped by every request validation failure.
var ErrInvalidRequest = errors.New("invalid payment request")

// LineItem is one priced line of a checkout session.
type LineItem struct {
	Currency    money.Currency
	Name        string
	Description string
	// UnitAmount is the unit price in minor units.
	UnitAmount int64
	Quantity   int64
}

// NewLineItem validates and returns a LineItem.
func NewLineItem(currency money.Currency, name, description string, unitAmount, quantity int64) (LineItem, error) {
	li := LineItem{
		Currency:    currency,
		Name:        name,
		Description: description,
		UnitAmount:  unitAmount,
		Quantity:    quantity,
	}
	return li, li.Validate()
}

// Validate checks the line item fields.
func (li LineItem) Validate() error {
	switch {
	case li.Currency == "":
		return errors.Wrap(ErrInvalidRequest, "line item currency is empty")
	case strings.TrimSpace(li.Name) == "":
		return errors.Wrap(ErrInvalidRequest, "line item name is empty")
	case li.UnitAmount < 0:
		return errors.Wrapf(ErrInvalidRequest, "line item %q has negative amount", li.Name)
	case li.Quantity < 1:
		return errors.Wrapf(ErrInvalidRequest, "line item %q has quantity %d", li.Name, li.Quantity)
	}
	return nil
}

// Coupon references a provider-side coupon.
type Coupon struct {
	ID string
}

// SessionRequest creates a hosted checkout session.
type SessionRequest struct {
	// Currency selects credentials. Every line item is priced in it.
	Currency           money.Currency
	Mode               string
	PaymentMethodTypes []string
	LineItems          []LineItem
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
	// Discounts is empty unless a provider coupon applies.
	Discounts []Coupon
	// TaxBlocks sends the tax id collection and automatic tax settings even
	// when both are disabled. Item sessions leave it false.
	TaxBlocks       bool
	TaxIDCollection bool
	AutomaticTax    bool
	// TaxRateIDs are provider tax rates applied to every line item.
	TaxRateIDs []string
}

// Validate checks the session request and all of its line items.
func (r *SessionRequest) Validate() error {
	if r.Currency == "" {
		return errors.Wrap(ErrInvalidRequest, "session currency is empty")
	}
	if r.Mode != ModePayment {
		return errors.Wrapf(ErrInvalidRequest, "unsupported mode %q", r.Mode)
	}
	if len(r.LineItems) == 0 {
		return errors.Wrap(ErrInvalidRequest, "session has no line items")
	}
	if r.SuccessURL == "" || r.CancelURL == "" {
		return errors.Wrap(ErrInvalidRequest, "redirect urls are required")
	}
	for _, li := range r.LineItems {
		if err := li.Validate(); err != nil {
			return err
		}
	}
	for _, c := range r.Discounts {
		if c.ID == "" {
			return errors.Wrap(ErrInvalidRequest, "empty coupon id")
		}
	}
	return nil
}

// IntentRequest creates a payment intent for a direct charge.
type IntentRequest struct {
	// Amount is the charged amount in minor units.
	Amount                  int64
	Currency                money.Currency
	Metadata                map[string]string
	AutomaticPaymentMethods bool
	Description             string
	Discounts               []Coupon
}

// Validate checks the intent request.
func (r *IntentRequest) Validate() error {
	if r.Currency == "" {
		return errors.Wrap(ErrInvalidRequest, "intent currency is empty")
	}
	if r.Amount < 0 {
		return errors.Wrapf(ErrInvalidRequest, "negative amount %d", r.Amount)
	}
	for _, c := range r.Discounts {
		if c.ID == "" {
			return errors.Wrap(ErrInvalidRequest, "empty coupon id")
		}
	}
	return nil
}

// Session is a created checkout session.
type Session struct {
	ID  string
	URL string
}

// Intent is a created payment intent with the key the client needs to
// confirm it.
type Intent struct {
	ID             string
	ClientSecret   string
	PublishableKey string
}

// Gateway creates payment objects with the payment provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (Intent, error)
	PublishableKey(currency money.Currency) (string, error)
}
