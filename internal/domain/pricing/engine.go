// Package pricing derives order amounts and settlement currency from order
// lines. Nothing here is stored: every call recomputes from the order.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/domain/money"
	"github.com/xenking/storefront-checkout/internal/domain/order"
)

// TaxSplit is an order subtotal and its tax, each rounded to cents. The
// discount is not part of it.
type TaxSplit struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
}

// Engine computes order totals.
type Engine struct{}

// NewEngine returns a pricing Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Subtotal sums price times quantity over all lines.
func (e *Engine) Subtotal(o *order.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Total applies tax and then discount to the subtotal. The result keeps full
// precision; callers round when converting to minor units.
func (e *Engine) Total(o *order.Order) decimal.Decimal {
	total := e.Subtotal(o)
	if o.Tax != nil {
		total = total.Add(money.PercentOf(total, o.Tax.Rate))
	}
	if o.Discount != nil {
		total = total.Sub(money.PercentOf(total, o.Discount.PercentOff))
	}
	return total
}

// TaxSplit returns the subtotal and the tax on it. The discount is ignored.
// Without a tax the tax part is zero.
func (e *Engine) TaxSplit(o *order.Order) TaxSplit {
	subtotal := e.Subtotal(o)
	tax := decimal.Zero
	if o.Tax != nil {
		tax = money.PercentOf(subtotal, o.Tax.Rate)
	}
	return TaxSplit{
		Subtotal: money.Round(subtotal),
		Tax:      money.Round(tax),
	}
}
