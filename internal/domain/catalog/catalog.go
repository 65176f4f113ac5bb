// Package catalog holds the entities that orders reference: items, discounts
// and taxes. They are created out of band and are read-only for checkout.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/domain/money"
)

// Sentinel errors for missing catalog entities.
var (
	ErrItemNotFound     = errors.New("item not found")
	ErrDiscountNotFound = errors.New("discount not found")
	ErrTaxNotFound      = errors.New("tax not found")
)

// ValidationError reports a catalog entity that violates its invariants.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var hundred = decimal.NewFromInt(100)

// Item is a sellable product with a unit price in a single currency.
type Item struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Currency    money.Currency
}

// Validate checks the item invariants.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if i.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if !i.Price.Equal(money.Round(i.Price)) {
		return &ValidationError{Field: "price", Reason: "at most 2 fraction digits"}
	}
	if i.Currency != "" && !i.Currency.Valid() {
		return &ValidationError{Field: "currency", Reason: fmt.Sprintf("unsupported %q", i.Currency)}
	}
	return nil
}

// Duration tells the provider how long a coupon stays applied. It does not
// affect local totals.
type Duration string

// Coupon durations.
const (
	DurationOnce      Duration = "once"
	DurationForever   Duration = "forever"
	DurationRepeating Duration = "repeating"
)

// Valid reports whether d is a known duration.
func (d Duration) Valid() bool {
	switch d {
	case DurationOnce, DurationForever, DurationRepeating:
		return true
	}
	return false
}

// Discount is a percentage reduction, optionally linked to a provider coupon.
type Discount struct {
	ID         int64
	Name       string
	PercentOff decimal.Decimal
	// CouponID is the provider coupon. Empty means percentage-only.
	CouponID string
	Duration Duration
}

// HasCoupon reports whether the discount is linked to a provider coupon.
func (d *Discount) HasCoupon() bool {
	return d != nil && d.CouponID != ""
}

// Validate checks the discount invariants and fills in the default duration.
func (d *Discount) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if d.PercentOff.IsNegative() || d.PercentOff.GreaterThan(hundred) {
		return &ValidationError{Field: "percent_off", Reason: "must be within [0, 100]"}
	}
	if d.Duration == "" {
		d.Duration = DurationOnce
	}
	if !d.Duration.Valid() {
		return &ValidationError{Field: "duration", Reason: fmt.Sprintf("unknown %q", d.Duration)}
	}
	return nil
}

// TaxType classifies a tax for reporting.
type TaxType string

// Tax types.
const (
	TaxTypeVAT      TaxType = "vat"
	TaxTypeSalesTax TaxType = "sales_tax"
	TaxTypeGST      TaxType = "gst"
)

// Valid reports whether t is a known tax type.
func (t TaxType) Valid() bool {
	switch t {
	case TaxTypeVAT, TaxTypeSalesTax, TaxTypeGST:
		return true
	}
	return false
}

// DefaultCountry is assigned to taxes created without a country.
const DefaultCountry = "US"

// Tax is a percentage surcharge, optionally linked to a provider tax rate.
type Tax struct {
	ID   int64
	Name string
	// Rate is a percentage, e.g. 10 for 10%.
	Rate decimal.Decimal
	Type TaxType
	// TaxID is the provider tax rate. Empty means not provider-linked.
	TaxID   string
	Country string
}

// HasTaxID reports whether the tax is linked to a provider tax rate.
func (t *Tax) HasTaxID() bool {
	return t != nil && t.TaxID != ""
}

// Validate checks the tax invariants and fills in the default country.
func (t *Tax) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if t.Rate.IsNegative() {
		return &ValidationError{Field: "rate", Reason: "must not be negative"}
	}
	if !t.Type.Valid() {
		return &ValidationError{Field: "tax_type", Reason: fmt.Sprintf("unknown %q", t.Type)}
	}
	if t.Country == "" {
		t.Country = DefaultCountry
	}
	if len(t.Country) != 2 {
		return &ValidationError{Field: "country", Reason: "must be an ISO 3166-1 alpha-2 code"}
	}
	t.Country = strings.ToUpper(t.Country)
	return nil
}

// Repository defines read operations for the catalog.
type Repository interface {
	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	GetItems(ctx context.Context, ids []int64) ([]Item, error)
	GetDiscount(ctx context.Context, id int64) (*Discount, error)
	GetTax(ctx context.Context, id int64) (*Tax, error)
}
