package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
)

// ListItems serves GET /api/items/.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.ListItems(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, it := range items {
				encodeItem(e, it)
			}
		})
	})
}

// ItemDetail serves GET /item/{id}/: the item, the publishable key for its
// currency and the storefront domain a client needs to start a payment.
func (h *Handler) ItemDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		writeError(w, r, catalog.ErrItemNotFound)
		return
	}
	d, err := h.checkout.DescribeItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("item", func(e *jx.Encoder) { encodeItem(e, *d.Item) })
			e.Field("publishableKey", func(e *jx.Encoder) { e.Str(d.PublishableKey) })
			e.Field("domain", func(e *jx.Encoder) { e.Str(h.domain) })
		})
	})
}

// itemID parses the {id} route parameter. Non-numeric IDs match no item.
func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
