package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/money"
	"github.com/xenking/storefront-checkout/internal/domain/order"
)

const testOrderID = "3f1c2a9e-7b4d-4c1a-9e55-0d6a2b8c4f10"

var (
	orderCols = []string{"id", "discount_id", "tax_id", "payment_intent_id", "created_at"}
	lineCols  = []string{"id", "name", "description", "price", "currency", "quantity"}
)

func sampleOrder() *order.Order {
	return &order.Order{
		ID: testOrderID,
		Lines: []order.Line{
			{Item: catalog.Item{ID: 1, Name: "Poster", Price: decimal.RequireFromString("25.00"), Currency: money.USD}, Quantity: 1},
			{Item: catalog.Item{ID: 2, Name: "Print", Price: decimal.RequireFromString("12.00"), Currency: money.USD}, Quantity: 2},
		},
		Discount:  &catalog.Discount{ID: 5},
		Tax:       &catalog.Tax{ID: 6},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func int64Ptr(v int64) *int64 { return &v }

// --- Create Tests ---

func TestOrderRepository_Create_Success(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)
	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, int64Ptr(5), int64Ptr(6), o.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for _, l := range o.Lines {
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(o.ID, l.Item.ID, l.Quantity).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_NoDiscountNoTax(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)
	o := sampleOrder()
	o.Discount, o.Tax = nil, nil
	o.Lines = nil

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, pgxmock.AnyArg(), pgxmock.AnyArg(), o.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_BeginError(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := NewOrderRepository(mock).Create(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_ItemInsertError(t *testing.T) {
	mock := newMockPool(t)
	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, int64Ptr(5), int64Ptr(6), o.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(o.ID, int64(1), 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(o.ID, int64(2), 2).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	err := NewOrderRepository(mock).Create(context.Background(), o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order item 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Get Tests ---

func TestOrderRepository_Get_Success(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM orders WHERE id").WithArgs(testOrderID).
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow(testOrderID, int64Ptr(5), int64Ptr(6), "pi_123", created))
	mock.ExpectQuery("FROM discounts WHERE id").WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "percent_off", "coupon_id", "duration"}).
			AddRow(int64(5), "Spring", decimal.RequireFromString("10"), "SAVE10", "once"))
	mock.ExpectQuery("FROM taxes WHERE id").WithArgs(int64(6)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "rate", "tax_type", "tax_id", "country"}).
			AddRow(int64(6), "VAT", decimal.RequireFromString("10"), "vat", "txr_1", "US"))
	mock.ExpectQuery("FROM order_items").WithArgs(testOrderID).
		WillReturnRows(pgxmock.NewRows(lineCols).
			AddRow(int64(1), "Poster", "A2 matte", decimal.RequireFromString("25.00"), "usd", 1).
			AddRow(int64(2), "Print", "", decimal.RequireFromString("12.00"), "usd", 2))

	o, err := repo.Get(context.Background(), testOrderID)
	require.NoError(t, err)
	assert.Equal(t, testOrderID, o.ID)
	assert.Equal(t, "pi_123", o.PaymentIntentID)
	assert.Equal(t, created, o.CreatedAt)
	require.NotNil(t, o.Discount)
	assert.Equal(t, "SAVE10", o.Discount.CouponID)
	require.NotNil(t, o.Tax)
	assert.Equal(t, "txr_1", o.Tax.TaxID)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Poster", o.Lines[0].Item.Name)
	assert.Equal(t, money.USD, o.Lines[0].Item.Currency)
	assert.Equal(t, 2, o.Lines[1].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Get_DeletedDiscountAndNoTax(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("FROM orders WHERE id").WithArgs(testOrderID).
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow(testOrderID, int64Ptr(5), nil, "", time.Now()))
	mock.ExpectQuery("FROM discounts WHERE id").WithArgs(int64(5)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM order_items").WithArgs(testOrderID).
		WillReturnRows(pgxmock.NewRows(lineCols))

	o, err := repo.Get(context.Background(), testOrderID)
	require.NoError(t, err)
	assert.Nil(t, o.Discount)
	assert.Nil(t, o.Tax)
	assert.Empty(t, o.Lines)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Get_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("FROM orders WHERE id").WithArgs(testOrderID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), testOrderID)
	require.ErrorIs(t, err, order.ErrNotFound)

	_, err = repo.Get(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, order.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Get_LinesError(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery("FROM orders WHERE id").WithArgs(testOrderID).
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow(testOrderID, nil, nil, "", time.Now()))
	mock.ExpectQuery("FROM order_items").WithArgs(testOrderID).
		WillReturnError(errors.New("timeout"))

	_, err := NewOrderRepository(mock).Get(context.Background(), testOrderID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query order lines")
}

// --- SetPaymentIntentID Tests ---

func TestOrderRepository_SetPaymentIntentID(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)

	mock.ExpectExec("UPDATE orders SET payment_intent_id").WithArgs(testOrderID, "pi_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE orders SET payment_intent_id").WithArgs(testOrderID, "pi_2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.SetPaymentIntentID(context.Background(), testOrderID, "pi_1"))
	require.ErrorIs(t, repo.SetPaymentIntentID(context.Background(), testOrderID, "pi_2"), order.ErrNotFound)
	require.ErrorIs(t, repo.SetPaymentIntentID(context.Background(), "bad", "pi_3"), order.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
