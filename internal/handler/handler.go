// Package handler serves the storefront HTTP API on a chi router.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/checkout"
	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/order"
	"github.com/xenking/storefront-checkout/internal/domain/payment"
)

// Items lists the catalog.
type Items interface {
	ListItems(ctx context.Context) ([]catalog.Item, error)
}

// Orders creates and loads orders.
type Orders interface {
	Create(ctx context.Context, req order.CreateRequest) (*order.Order, error)
}

// Checkout runs the payment operations.
type Checkout interface {
	DescribeItem(ctx context.Context, itemID int64) (*checkout.ItemDetail, error)
	BuildItemCheckout(ctx context.Context, itemID int64) (payment.Session, error)
	BuildItemPaymentIntent(ctx context.Context, itemID int64) (payment.Intent, error)
	BuildOrderCheckout(ctx context.Context, orderID string) (payment.Session, error)
	BuildOrderPaymentIntent(ctx context.Context, orderID string) (payment.Intent, error)
	GetPricedOrder(ctx context.Context, orderID string) (*order.Order, decimal.Decimal, error)
}

// Totaler computes an order total.
type Totaler interface {
	Total(o *order.Order) decimal.Decimal
}

// Config holds non-dependency handler settings.
type Config struct {
	// Domain is the public storefront origin returned with item details.
	Domain string
	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Handler serves the API.
type Handler struct {
	items    Items
	orders   Orders
	checkout Checkout
	totals   Totaler

	domain  string
	maxBody int64
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config, items Items, orders Orders, co Checkout, totals Totaler) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		items:    items,
		orders:   orders,
		checkout: co,
		totals:   totals,
		domain:   cfg.Domain,
		maxBody:  cfg.MaxBodyBytes,
	}
}

// Mount registers the API routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/items/", h.ListItems)
	r.Post("/api/orders/", h.CreateOrder)
	r.Get("/api/orders/{order_id}/", h.GetOrder)

	r.Get("/item/{id}/", h.ItemDetail)
	r.Get("/buy/{id}/", h.BuyItem)
	r.Get("/payment-intent/{id}/", h.ItemPaymentIntent)
	r.Get("/order/{order_id}/checkout/", h.OrderCheckout)
	r.Post("/order/{order_id}/payment-intent/", h.OrderPaymentIntent)

	r.Get("/success/", h.Success)
	r.Get("/cancel/", h.Cancel)
}

// Routes returns a router serving only the API routes.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Mount(r)
	return r
}
