package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront-checkout/internal/domain/order"
)

// CreateOrder serves POST /api/orders/.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := decodeCreateOrder(jx.Decode(http.MaxBytesReader(w, r.Body, h.maxBody), 4096))
	if err != nil {
		writeError(w, r, &badRequestError{msg: "malformed JSON body"})
		return
	}
	if err := validateBody(body); err != nil {
		writeError(w, r, err)
		return
	}

	req := order.CreateRequest{
		Lines:      make([]order.LineRequest, len(body.Items)),
		DiscountID: body.Discount,
		TaxID:      body.Tax,
	}
	for i, l := range body.Items {
		req.Lines[i] = order.LineRequest{ItemID: l.ItemID, Quantity: l.Quantity}
	}

	o, err := h.orders.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total := h.totals.Total(o)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o, total) })
}

// GetOrder serves GET /api/orders/{order_id}/.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, total, err := h.checkout.GetPricedOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o, total) })
}
