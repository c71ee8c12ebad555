package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/vkushwaha/storefront/internal/domain/checkout"
)

// PlaceOrder prices the requested items, applies the coupon if one is
// given, and submits the order. The breakdown persisted on the order is
// frozen at this point: later offer or coupon edits do not touch it.
// A rejected coupon fails the placement so the customer never pays a
// different total than the one they approved.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", "")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items required", "")
		return
	}

	lines, err := h.buildLines(r.Context(), req.Items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	session := checkout.NewSession(h.calc, h.orders, h.usage)
	if _, err := session.SetLines(r.Context(), lines); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.CouponCode != "" {
		if _, err := session.ApplyCoupon(r.Context(), req.CouponCode); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	o, err := session.Submit(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(o.ID)
		e.FieldStart("breakdown")
		encodeBreakdown(e, session.Breakdown())
		e.ObjEnd()
	})
}
