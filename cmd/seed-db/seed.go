package main

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/money"
)

type catalogWriter interface {
	UpsertItem(ctx context.Context, it *catalog.Item) error
	CreateDiscount(ctx context.Context, d *catalog.Discount) error
	CreateTax(ctx context.Context, t *catalog.Tax) error
}

type seed struct {
	Items     []catalog.Item
	Discounts []catalog.Discount
	Taxes     []catalog.Tax
}

// decodeSeed reads {"items":[...],"discounts":[...],"taxes":[...]}. Amounts
// are decimal strings.
func decodeSeed(r io.Reader) (*seed, error) {
	var s seed
	d := jx.Decode(r, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var it catalog.Item
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "name":
						it.Name, err = d.Str()
					case "description":
						it.Description, err = d.Str()
					case "price":
						it.Price, err = decodeDecimal(d)
					case "currency":
						var c string
						if c, err = d.Str(); err == nil {
							it.Currency, err = money.ParseCurrency(c)
						}
					default:
						err = d.Skip()
					}
					return err
				}); err != nil {
					return errors.Wrapf(err, "item %d", len(s.Items))
				}
				s.Items = append(s.Items, it)
				return nil
			})
		case "discounts":
			return d.Arr(func(d *jx.Decoder) error {
				var disc catalog.Discount
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "name":
						disc.Name, err = d.Str()
					case "percent_off":
						disc.PercentOff, err = decodeDecimal(d)
					case "coupon_id":
						disc.CouponID, err = d.Str()
					case "duration":
						var v string
						v, err = d.Str()
						disc.Duration = catalog.Duration(v)
					default:
						err = d.Skip()
					}
					return err
				}); err != nil {
					return errors.Wrapf(err, "discount %d", len(s.Discounts))
				}
				s.Discounts = append(s.Discounts, disc)
				return nil
			})
		case "taxes":
			return d.Arr(func(d *jx.Decoder) error {
				var t catalog.Tax
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "name":
						t.Name, err = d.Str()
					case "rate":
						t.Rate, err = decodeDecimal(d)
					case "tax_type":
						var v string
						v, err = d.Str()
						t.Type = catalog.TaxType(v)
					case "tax_id":
						t.TaxID, err = d.Str()
					case "country":
						t.Country, err = d.Str()
					default:
						err = d.Skip()
					}
					return err
				}); err != nil {
					return errors.Wrapf(err, "tax %d", len(s.Taxes))
				}
				s.Taxes = append(s.Taxes, t)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// decodeDecimal accepts a JSON string or number.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Decimal{}, errors.Errorf("expected decimal, got %s", d.Next())
	}
}
