package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is a set of item lines with an optional discount and tax. Its total
// is derived from those on every read and is never stored.
type Order struct {
	ID    string
	Lines []Line
	// Discount and Tax are nil when absent or when the referenced record was
	// deleted after the order was created.
	Discount  *catalog.Discount
	Tax       *catalog.Tax
	CreatedAt time.Time
	// PaymentIntentID is the provider object created for this order, if any.
	PaymentIntentID string
}

// Line is a quantity of one catalog item.
type Line struct {
	Item     catalog.Item
	Quantity int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	SetPaymentIntentID(ctx context.Context, id, paymentIntentID string) error
}
