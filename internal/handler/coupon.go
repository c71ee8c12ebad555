package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

type validateCouponRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
}

// ValidateCoupon checks a coupon against an order amount and returns
// the discount it would yield. Rejections come back as 422 with the
// tagged reason; they are expected outcomes, not server failures.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", "")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "coupon code required", "")
		return
	}

	res, err := h.coupons.Validate(r.Context(), req.Code, req.OrderAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(res.Coupon.Code)
		e.FieldStart("description")
		e.Str(res.Coupon.Description)
		e.FieldStart("discount")
		e.Float64(res.Discount.InexactFloat64())
		e.ObjEnd()
	})
}
