package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/checkout"
	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/order"
	"github.com/xenking/storefront-checkout/internal/domain/payment"
	"github.com/xenking/storefront-checkout/pkg/httpmiddleware"
)

const msgNotConfigured = "payment gateway is not configured"

// badRequestError is malformed input caught by the handler itself.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

// writeError maps err to a status and a client-safe message. Only rejections
// and input errors echo their text; everything else is logged and reported as
// "internal error".
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	lg := zctx.From(r.Context())
	switch {
	case status >= http.StatusInternalServerError:
		lg.Error("Request failed", zap.Error(err))
	case status == http.StatusBadRequest:
		lg.Debug("Bad request", zap.Error(err))
	}
	httpmiddleware.WriteError(w, status, msg)
}

func classify(err error) (int, string) {
	var (
		badReq     *badRequestError
		coValid    *checkout.ValidationError
		orderValid *order.ValidationError
		itemMiss   *order.ItemNotFoundError
		badQty     *order.InvalidQuantityError
		dupItem    *order.DuplicateItemError
		cfgErr     *payment.ConfigurationError
		rejected   *payment.RejectedError
	)
	switch {
	case errors.Is(err, catalog.ErrItemNotFound), errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.As(err, &badReq):
		return http.StatusBadRequest, badReq.Error()
	case errors.As(err, &coValid):
		return http.StatusBadRequest, coValid.Error()
	case errors.As(err, &orderValid):
		return http.StatusBadRequest, orderValid.Error()
	case errors.As(err, &itemMiss):
		return http.StatusBadRequest, itemMiss.Error()
	case errors.As(err, &badQty):
		return http.StatusBadRequest, badQty.Error()
	case errors.As(err, &dupItem):
		return http.StatusBadRequest, dupItem.Error()
	case errors.Is(err, payment.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, msgNotConfigured
	case errors.As(err, &rejected):
		return http.StatusBadRequest, rejected.Message
	default:
		return http.StatusInternalServerError, payment.InternalMessage
	}
}
