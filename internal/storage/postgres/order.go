package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/money"
	"github.com/xenking/storefront-checkout/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, discount_id, tax_id, created_at)
	VALUES ($1, $2, $3, $4)`
	createOrderItemSQL = `INSERT INTO order_items (order_id, item_id, quantity)
	VALUES ($1, $2, $3)`

	getOrderSQL = `SELECT id::text, discount_id, tax_id, payment_intent_id, created_at
	FROM orders WHERE id = $1`
	getOrderLinesSQL = `SELECT i.id, i.name, i.description, i.price, i.currency, oi.quantity
	FROM order_items oi
	JOIN items i ON i.id = oi.item_id
	WHERE oi.order_id = $1
	ORDER BY oi.id`

	setPaymentIntentSQL = `UPDATE orders SET payment_intent_id = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db      DBTX
	catalog *CatalogRepository
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db, catalog: NewCatalogRepository(db)}
}

// Create inserts an order and its lines in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var discountID, taxID *int64
	if o.Discount != nil {
		discountID = &o.Discount.ID
	}
	if o.Tax != nil {
		taxID = &o.Tax.ID
	}

	if _, err := tx.Exec(ctx, createOrderSQL, o.ID, discountID, taxID, o.CreatedAt); err != nil {
		return errors.Wrap(err, "insert order")
	}
	for _, l := range o.Lines {
		if _, err := tx.Exec(ctx, createOrderItemSQL, o.ID, l.Item.ID, l.Quantity); err != nil {
			return errors.Wrapf(err, "insert order item %d", l.Item.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// Get loads an order with its lines, discount and tax. It returns
// order.ErrNotFound for unknown or malformed IDs. A discount or tax deleted
// after the order was created is left nil.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, order.ErrNotFound
	}

	var (
		o                 order.Order
		discountID, taxID *int64
		createdAt         time.Time
	)
	err := r.db.QueryRow(ctx, getOrderSQL, id).Scan(&o.ID, &discountID, &taxID, &o.PaymentIntentID, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o.CreatedAt = createdAt.UTC()

	if discountID != nil {
		d, err := r.catalog.GetDiscount(ctx, *discountID)
		if err != nil && !errors.Is(err, catalog.ErrDiscountNotFound) {
			return nil, err
		}
		o.Discount = d
	}
	if taxID != nil {
		t, err := r.catalog.GetTax(ctx, *taxID)
		if err != nil && !errors.Is(err, catalog.ErrTaxNotFound) {
			return nil, err
		}
		o.Tax = t
	}

	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *OrderRepository) lines(ctx context.Context, orderID string) ([]order.Line, error) {
	rows, err := r.db.Query(ctx, getOrderLinesSQL, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "query order lines")
	}
	defer rows.Close()

	var lines []order.Line
	for rows.Next() {
		var (
			l        order.Line
			currency string
		)
		if err := rows.Scan(&l.Item.ID, &l.Item.Name, &l.Item.Description, &l.Item.Price, &currency, &l.Quantity); err != nil {
			return nil, errors.Wrap(err, "scan order line")
		}
		l.Item.Currency = money.Currency(currency)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate order lines")
	}
	return lines, nil
}

// SetPaymentIntentID records the provider object created for an order.
func (r *OrderRepository) SetPaymentIntentID(ctx context.Context, id, paymentIntentID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return order.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, setPaymentIntentSQL, id, paymentIntentID)
	if err != nil {
		return errors.Wrapf(err, "set payment intent for order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
