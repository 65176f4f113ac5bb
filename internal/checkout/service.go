package checkout

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/money"
	"github.com/xenking/storefront-checkout/internal/domain/order"
	"github.com/xenking/storefront-checkout/internal/domain/payment"
)

// ItemStore loads catalog items.
type ItemStore interface {
	GetItem(ctx context.Context, id int64) (*catalog.Item, error)
}

// OrderStore loads orders and records provider objects created for them.
type OrderStore interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	SetPaymentIntentID(ctx context.Context, id, paymentIntentID string) error
}

// Service exposes the checkout operations for items and orders.
type Service struct {
	items   ItemStore
	orders  OrderStore
	pricer  Pricer
	builder *Builder
	gateway payment.Gateway
}

// NewService creates a checkout Service.
func NewService(
	items ItemStore,
	orders OrderStore,
	pricer Pricer,
	builder *Builder,
	gateway payment.Gateway,
) *Service {
	return &Service{
		items:   items,
		orders:  orders,
		pricer:  pricer,
		builder: builder,
		gateway: gateway,
	}
}

// ItemDetail is an item together with the publishable key a client needs to
// pay for it.
type ItemDetail struct {
	Item           *catalog.Item
	PublishableKey string
}

// DescribeItem returns an item and the publishable key for its currency.
func (s *Service) DescribeItem(ctx context.Context, itemID int64) (*ItemDetail, error) {
	it, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	key, err := s.gateway.PublishableKey(it.Currency)
	if err != nil {
		return nil, err
	}
	return &ItemDetail{Item: it, PublishableKey: key}, nil
}

// BuildItemCheckout creates a checkout session for one unit of an item.
func (s *Service) BuildItemCheckout(ctx context.Context, itemID int64) (payment.Session, error) {
	it, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return payment.Session{}, err
	}
	req, err := s.builder.ItemSession(it)
	if err != nil {
		return payment.Session{}, err
	}
	return s.gateway.CreateCheckoutSession(ctx, req)
}

// BuildItemPaymentIntent creates a payment intent for one unit of an item.
func (s *Service) BuildItemPaymentIntent(ctx context.Context, itemID int64) (payment.Intent, error) {
	it, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return payment.Intent{}, err
	}
	req, err := s.builder.ItemIntent(it)
	if err != nil {
		return payment.Intent{}, err
	}
	return s.gateway.CreatePaymentIntent(ctx, req)
}

// BuildOrderCheckout creates a checkout session for an order.
func (s *Service) BuildOrderCheckout(ctx context.Context, orderID string) (payment.Session, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return payment.Session{}, err
	}
	req, err := s.builder.OrderSession(o)
	if err != nil {
		return payment.Session{}, err
	}
	sess, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		return payment.Session{}, err
	}
	s.attach(ctx, o.ID, sess.ID)
	return sess, nil
}

// BuildOrderPaymentIntent creates a payment intent for an order.
func (s *Service) BuildOrderPaymentIntent(ctx context.Context, orderID string) (payment.Intent, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return payment.Intent{}, err
	}
	req, err := s.builder.OrderIntent(o)
	if err != nil {
		return payment.Intent{}, err
	}
	intent, err := s.gateway.CreatePaymentIntent(ctx, req)
	if err != nil {
		return payment.Intent{}, err
	}
	s.attach(ctx, o.ID, intent.ID)
	return intent, nil
}

// PriceOrder returns the order total rounded to cents.
func (s *Service) PriceOrder(ctx context.Context, orderID string) (decimal.Decimal, error) {
	_, total, err := s.GetPricedOrder(ctx, orderID)
	return total, err
}

// GetPricedOrder loads an order once and prices that same snapshot, so the
// total always matches the discount and tax returned with it.
func (s *Service) GetPricedOrder(ctx context.Context, orderID string) (*order.Order, decimal.Decimal, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return o, money.Round(s.pricer.Total(o)), nil
}

// attach records the provider object on the order. The payment object
// already exists at this point, so a failure is logged and not returned.
func (s *Service) attach(ctx context.Context, orderID, ref string) {
	if ref == "" {
		return
	}
	if err := s.orders.SetPaymentIntentID(ctx, orderID, ref); err != nil {
		zctx.From(ctx).Error("Attach payment reference",
			zap.String("order_id", orderID),
			zap.String("payment_ref", ref),
			zap.Error(err),
		)
	}
}
