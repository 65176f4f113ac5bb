package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
)

// ValidationError reports malformed order input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ItemNotFoundError indicates a requested item does not exist.
type ItemNotFoundError struct {
	ItemID int64
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %d not found", e.ItemID)
}

// InvalidQuantityError indicates a line with a non-positive quantity.
type InvalidQuantityError struct {
	ItemID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %d", e.ItemID)
}

// DuplicateItemError indicates the same item was requested on two lines.
type DuplicateItemError struct {
	ItemID int64
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("item %d appears more than once", e.ItemID)
}

// LineRequest is one requested order line.
type LineRequest struct {
	ItemID   int64
	Quantity int
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	Lines      []LineRequest
	DiscountID *int64
	TaxID      *int64
}

// Service encapsulates order creation.
type Service struct {
	catalog catalog.Repository
	orders  Repository
	now     func() time.Time
}

// NewService creates an order Service.
func NewService(c catalog.Repository, orders Repository) *Service {
	return &Service{
		catalog: c,
		orders:  orders,
		now:     time.Now,
	}
}

// Create validates lines, resolves items, discount and tax, then persists a
// new order. An order without lines is allowed and totals zero.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	ids := make([]int64, 0, len(req.Lines))
	seen := make(map[int64]struct{}, len(req.Lines))
	for _, l := range req.Lines {
		if l.Quantity < 1 {
			return nil, &InvalidQuantityError{ItemID: l.ItemID}
		}
		if _, dup := seen[l.ItemID]; dup {
			return nil, &DuplicateItemError{ItemID: l.ItemID}
		}
		seen[l.ItemID] = struct{}{}
		ids = append(ids, l.ItemID)
	}

	byID := make(map[int64]catalog.Item, len(ids))
	if len(ids) > 0 {
		items, err := s.catalog.GetItems(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, "get items")
		}
		for _, it := range items {
			byID[it.ID] = it
		}
	}

	o := &Order{
		ID:        uuid.New().String(),
		Lines:     make([]Line, 0, len(req.Lines)),
		CreatedAt: s.now().UTC(),
	}
	for _, l := range req.Lines {
		it, ok := byID[l.ItemID]
		if !ok {
			return nil, &ItemNotFoundError{ItemID: l.ItemID}
		}
		o.Lines = append(o.Lines, Line{Item: it, Quantity: l.Quantity})
	}

	if req.DiscountID != nil {
		d, err := s.catalog.GetDiscount(ctx, *req.DiscountID)
		if err != nil {
			if errors.Is(err, catalog.ErrDiscountNotFound) {
				return nil, &ValidationError{Field: "discount", Reason: fmt.Sprintf("discount %d not found", *req.DiscountID)}
			}
			return nil, errors.Wrap(err, "get discount")
		}
		o.Discount = d
	}
	if req.TaxID != nil {
		t, err := s.catalog.GetTax(ctx, *req.TaxID)
		if err != nil {
			if errors.Is(err, catalog.ErrTaxNotFound) {
				return nil, &ValidationError{Field: "tax", Reason: fmt.Sprintf("tax %d not found", *req.TaxID)}
			}
			return nil, errors.Wrap(err, "get tax")
		}
		o.Tax = t
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}
