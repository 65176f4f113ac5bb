package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/money"
	"github.com/xenking/storefront-checkout/internal/domain/order"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeItem(e *jx.Encoder, it catalog.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(it.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(it.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Str(money.Format(it.Price)) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(it.Currency.String()) })
	})
}

// encodeOrder writes the order representation. Money is a string with two
// fraction digits so clients never round through a float.
func encodeOrder(e *jx.Encoder, o *order.Order, total decimal.Decimal) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range o.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("item_id", func(e *jx.Encoder) { e.Int64(l.Item.ID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
					})
				}
			})
		})
		e.Field("discount", func(e *jx.Encoder) {
			if o.Discount == nil {
				e.Null()
				return
			}
			e.Int64(o.Discount.ID)
		})
		e.Field("tax", func(e *jx.Encoder) {
			if o.Tax == nil {
				e.Null()
				return
			}
			e.Int64(o.Tax.ID)
		})
		e.Field("total_price", func(e *jx.Encoder) { e.Str(money.Format(total)) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano)) })
	})
}

type lineBody struct {
	ItemID   int64 `validate:"gt=0"`
	Quantity int   `validate:"gte=1"`
}

type createOrderBody struct {
	Items    []lineBody `validate:"required,dive"`
	Discount *int64     `validate:"omitempty,gt=0"`
	Tax      *int64     `validate:"omitempty,gt=0"`
}

// decodeCreateOrder reads {"items":[{"item_id","quantity"}],"discount","tax"}.
// Unknown fields are ignored; discount and tax may be null.
func decodeCreateOrder(d *jx.Decoder) (createOrderBody, error) {
	var body createOrderBody
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			body.Items = []lineBody{}
			return d.Arr(func(d *jx.Decoder) error {
				var l lineBody
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "item_id":
						l.ItemID, err = d.Int64()
					case "quantity":
						l.Quantity, err = d.Int()
					default:
						err = d.Skip()
					}
					return err
				}); err != nil {
					return err
				}
				body.Items = append(body.Items, l)
				return nil
			})
		case "discount":
			id, err := decodeOptionalID(d)
			body.Discount = id
			return err
		case "tax":
			id, err := decodeOptionalID(d)
			body.Tax = id
			return err
		default:
			return d.Skip()
		}
	})
	return body, err
}

func decodeOptionalID(d *jx.Decoder) (*int64, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := d.Int64()
	if err != nil {
		return nil, err
	}
	return &v, nil
}
