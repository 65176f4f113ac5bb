package payment

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-checkout/internal/domain/money"
)

func TestNewLineItem(t *testing.T) {
	li, err := NewLineItem(money.USD, "Mug", "", 2500, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), li.UnitAmount)

	tests := []struct {
		name     string
		currency money.Currency
		item     string
		amount   int64
		qty      int64
	}{
		{name: "no currency", item: "Mug", amount: 1, qty: 1},
		{name: "no name", currency: money.USD, amount: 1, qty: 1},
		{name: "negative amount", currency: money.USD, item: "Mug", amount: -1, qty: 1},
		{name: "zero quantity", currency: money.USD, item: "Mug", amount: 1, qty: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLineItem(tt.currency, tt.item, "", tt.amount, tt.qty)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func validSession() SessionRequest {
	return SessionRequest{
		Currency:   money.USD,
		Mode:       ModePayment,
		LineItems:  []LineItem{{Currency: money.USD, Name: "Mug", UnitAmount: 100, Quantity: 1}},
		SuccessURL: "https://shop.test/success/",
		CancelURL:  "https://shop.test/cancel/",
	}
}

func TestSessionRequestValidate(t *testing.T) {
	ok := validSession()
	require.NoError(t, ok.Validate())

	mutations := map[string]func(*SessionRequest){
		"no currency":     func(r *SessionRequest) { r.Currency = "" },
		"bad mode":        func(r *SessionRequest) { r.Mode = "subscription" },
		"no lines":        func(r *SessionRequest) { r.LineItems = nil },
		"no success url":  func(r *SessionRequest) { r.SuccessURL = "" },
		"bad line":        func(r *SessionRequest) { r.LineItems[0].Quantity = 0 },
		"empty coupon id": func(r *SessionRequest) { r.Discounts = []Coupon{{}} },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			r := validSession()
			mutate(&r)
			require.ErrorIs(t, r.Validate(), ErrInvalidRequest)
		})
	}
}

func TestIntentRequestValidate(t *testing.T) {
	r := IntentRequest{Amount: 0, Currency: money.EUR}
	require.NoError(t, r.Validate())

	r.Amount = -5
	require.ErrorIs(t, r.Validate(), ErrInvalidRequest)

	r = IntentRequest{Amount: 5}
	require.ErrorIs(t, r.Validate(), ErrInvalidRequest)
}

func TestInternalError(t *testing.T) {
	cause := context.DeadlineExceeded
	err := error(&InternalError{Op: "create payment intent", Err: cause})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), InternalMessage)

	var iErr *InternalError
	require.True(t, errors.As(err, &iErr))
	assert.Equal(t, "create payment intent", iErr.Op)
}

func TestRejectedError(t *testing.T) {
	err := &RejectedError{Message: "Your card was declined.", Code: "card_declined"}
	assert.Equal(t, "payment rejected (card_declined): Your card was declined.", err.Error())
}
