package pricing

import (
	"github.com/xenking/storefront-checkout/internal/domain/money"
	"github.com/xenking/storefront-checkout/internal/domain/order"
)

// CurrencyResolver picks the settlement currency of an order.
type CurrencyResolver struct {
	Default money.Currency
}

// NewCurrencyResolver returns a resolver falling back to money.DefaultCurrency.
func NewCurrencyResolver() *CurrencyResolver {
	return &CurrencyResolver{Default: money.DefaultCurrency}
}

// Resolve returns the currency of the first line's item, or the default for
// an order without lines. Lines in other currencies are not checked.
func (r *CurrencyResolver) Resolve(o *order.Order) money.Currency {
	if len(o.Lines) == 0 {
		return r.Default
	}
	return o.Lines[0].Item.Currency
}
