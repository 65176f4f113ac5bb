// Package checkout turns items and orders into payment requests and sends
// them through a payment gateway.
package checkout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/money"
	"github.com/xenking/storefront-checkout/internal/domain/order"
	"github.com/xenking/storefront-checkout/internal/domain/payment"
	"github.com/xenking/storefront-checkout/internal/domain/pricing"
)

// ValidationError reports an entity that cannot be turned into a payment
// request, e.g. an item without a currency.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Pricer computes order amounts.
type Pricer interface {
	Total(o *order.Order) decimal.Decimal
	TaxSplit(o *order.Order) pricing.TaxSplit
}

// CurrencyResolver picks the settlement currency of an order.
type CurrencyResolver interface {
	Resolve(o *order.Order) money.Currency
}

// BuilderConfig holds the storefront redirect targets.
type BuilderConfig struct {
	// Domain is the storefront base URL, e.g. https://shop.example.com.
	Domain string
}

// Builder assembles payment requests. It performs no I/O.
type Builder struct {
	successURL string
	cancelURL  string
	pricer     Pricer
	currencies CurrencyResolver
}

// NewBuilder returns a Builder redirecting to {Domain}/success/ and
// {Domain}/cancel/.
func NewBuilder(cfg BuilderConfig, pricer Pricer, currencies CurrencyResolver) *Builder {
	base := strings.TrimRight(cfg.Domain, "/")
	return &Builder{
		successURL: base + "/success/",
		cancelURL:  base + "/cancel/",
		pricer:     pricer,
		currencies: currencies,
	}
}

// ItemLineItem prices a single item with quantity 1 in its own currency.
func (b *Builder) ItemLineItem(it *catalog.Item) (payment.LineItem, error) {
	if it.Currency == "" {
		return payment.LineItem{}, &ValidationError{Reason: fmt.Sprintf("item %d has no currency", it.ID)}
	}
	return payment.NewLineItem(it.Currency, it.Name, it.Description, money.MinorUnits(it.Price), 1)
}

// ItemSession builds a checkout session selling one unit of an item.
func (b *Builder) ItemSession(it *catalog.Item) (payment.SessionRequest, error) {
	li, err := b.ItemLineItem(it)
	if err != nil {
		return payment.SessionRequest{}, err
	}
	req := b.session(it.Currency, []payment.LineItem{li})
	return req, req.Validate()
}

// ItemIntent builds a payment intent charging the item price.
func (b *Builder) ItemIntent(it *catalog.Item) (payment.IntentRequest, error) {
	if it.Currency == "" {
		return payment.IntentRequest{}, &ValidationError{Reason: fmt.Sprintf("item %d has no currency", it.ID)}
	}
	req := payment.IntentRequest{
		Amount:                  money.MinorUnits(it.Price),
		Currency:                it.Currency,
		Metadata:                map[string]string{payment.MetadataItemID: strconv.FormatInt(it.ID, 10)},
		AutomaticPaymentMethods: true,
	}
	return req, req.Validate()
}

// OrderSession builds a checkout session with one line item per order line,
// all priced in the resolved order currency. The provider applies tax and
// coupon to the line amounts.
func (b *Builder) OrderSession(o *order.Order) (payment.SessionRequest, error) {
	currency := b.currencies.Resolve(o)
	if currency == "" {
		return payment.SessionRequest{}, &ValidationError{Reason: fmt.Sprintf("order %s has no currency", o.ID)}
	}

	items := make([]payment.LineItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		li, err := payment.NewLineItem(currency, l.Item.Name, l.Item.Description,
			money.MinorUnits(l.Item.Price), int64(l.Quantity))
		if err != nil {
			return payment.SessionRequest{}, err
		}
		items = append(items, li)
	}

	req := b.session(currency, items)
	req.Metadata = map[string]string{payment.MetadataOrderID: o.ID}
	req.Discounts = coupons(o.Discount)

	hasTax := o.Tax != nil
	req.TaxBlocks = true
	req.TaxIDCollection = hasTax
	req.AutomaticTax = hasTax
	if o.Tax.HasTaxID() {
		req.TaxRateIDs = []string{o.Tax.TaxID}
	}
	return req, req.Validate()
}

// OrderIntent builds a payment intent for an order. Without a tax it charges
// the discounted total. With a tax it charges subtotal plus tax and leaves
// the discount to the provider coupon.
func (b *Builder) OrderIntent(o *order.Order) (payment.IntentRequest, error) {
	currency := b.currencies.Resolve(o)
	if currency == "" {
		return payment.IntentRequest{}, &ValidationError{Reason: fmt.Sprintf("order %s has no currency", o.ID)}
	}

	req := payment.IntentRequest{
		Amount:                  money.MinorUnits(b.pricer.Total(o)),
		Currency:                currency,
		Metadata:                map[string]string{payment.MetadataOrderID: o.ID},
		AutomaticPaymentMethods: true,
	}
	if o.Tax != nil {
		split := b.pricer.TaxSplit(o)
		req.Amount = money.MinorUnits(split.Subtotal) + money.MinorUnits(split.Tax)
		req.Description = fmt.Sprintf("%s%% %s", money.FormatRate(o.Tax.Rate), o.Tax.Name)
	}
	req.Discounts = coupons(o.Discount)
	return req, req.Validate()
}

func (b *Builder) session(currency money.Currency, items []payment.LineItem) payment.SessionRequest {
	return payment.SessionRequest{
		Currency:           currency,
		Mode:               payment.ModePayment,
		PaymentMethodTypes: []string{payment.PaymentMethodCard},
		LineItems:          items,
		SuccessURL:         b.successURL,
		CancelURL:          b.cancelURL,
	}
}

func coupons(d *catalog.Discount) []payment.Coupon {
	if !d.HasCoupon() {
		return nil
	}
	return []payment.Coupon{{ID: d.CouponID}}
}
