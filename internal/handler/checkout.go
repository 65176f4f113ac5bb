package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/payment"
)

// BuyItem serves GET /buy/{id}/ with a checkout session for one unit.
func (h *Handler) BuyItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		writeError(w, r, catalog.ErrItemNotFound)
		return
	}
	sess, err := h.checkout.BuildItemCheckout(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSession(w, sess)
}

// ItemPaymentIntent serves GET /payment-intent/{id}/.
func (h *Handler) ItemPaymentIntent(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		writeError(w, r, catalog.ErrItemNotFound)
		return
	}
	intent, err := h.checkout.BuildItemPaymentIntent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeIntent(w, intent)
}

// OrderCheckout serves GET /order/{order_id}/checkout/.
func (h *Handler) OrderCheckout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkout.BuildOrderCheckout(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSession(w, sess)
}

// OrderPaymentIntent serves POST /order/{order_id}/payment-intent/.
func (h *Handler) OrderPaymentIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.checkout.BuildOrderPaymentIntent(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeIntent(w, intent)
}

// Success serves the landing page the provider redirects to after payment.
func (h *Handler) Success(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, "success")
}

// Cancel serves the landing page for abandoned payments.
func (h *Handler) Cancel(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, "canceled")
}

func writeSession(w http.ResponseWriter, s payment.Session) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str(s.ID) })
			if s.URL != "" {
				e.Field("url", func(e *jx.Encoder) { e.Str(s.URL) })
			}
		})
	})
}

func writeIntent(w http.ResponseWriter, i payment.Intent) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("clientSecret", func(e *jx.Encoder) { e.Str(i.ClientSecret) })
			e.Field("publishableKey", func(e *jx.Encoder) { e.Str(i.PublishableKey) })
		})
	})
}

func writeStatus(w http.ResponseWriter, status string) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str(status) })
		})
	})
}
